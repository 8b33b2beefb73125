package transcribe

import "autolrc/core/audio"

// Chunk is one [From, To) span of audio sent as a single request.
type Chunk struct {
	From float64
	To   float64
}

// PlanChunks splits [0, duration) into spans no longer than maxSeconds,
// preferring to cut at the midpoint of a detected silence so no chunk
// boundary lands mid-word. With no usable silence near the limit the cut
// falls exactly at the limit.
func PlanChunks(duration, maxSeconds float64, silences []audio.Silence) []Chunk {
	if duration <= maxSeconds {
		return []Chunk{{From: 0, To: duration}}
	}

	var chunks []Chunk
	from := 0.0
	for duration-from > maxSeconds {
		limit := from + maxSeconds
		cut := limit

		// Latest silence midpoint inside the second half of the window keeps
		// chunks large while still splitting in silence. Taking the maximum
		// keeps the choice independent of the detection report's ordering.
		best := 0.0
		for _, s := range silences {
			mid := s.Mid()
			if mid > from+maxSeconds/2 && mid <= limit && mid > best {
				best = mid
			}
		}
		if best > 0 {
			cut = best
		}

		chunks = append(chunks, Chunk{From: from, To: cut})
		from = cut
	}
	chunks = append(chunks, Chunk{From: from, To: duration})
	return chunks
}
