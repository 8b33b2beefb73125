package align

import (
	"strings"

	"autolrc/model"
)

// UniformFallback distributes the audio duration over the transcript words
// proportionally to their character count. Always succeeds; used when
// forced alignment degrades. Timing is monotonic by construction.
func UniformFallback(transcript string, duration float64) []model.Token {
	words := strings.Fields(transcript)
	if len(words) == 0 || duration <= 0 {
		return nil
	}

	totalChars := 0
	for _, w := range words {
		totalChars += len([]rune(w))
	}
	if totalChars == 0 {
		return nil
	}

	tokens := make([]model.Token, 0, len(words))
	cursor := 0.0
	for _, w := range words {
		width := duration * float64(len([]rune(w))) / float64(totalChars)
		tokens = append(tokens, model.Token{
			Text:  w,
			Start: cursor,
			End:   cursor + width,
		})
		cursor += width
	}
	// Rounding drift must never push the last token past the audio end.
	tokens[len(tokens)-1].End = duration
	return tokens
}
