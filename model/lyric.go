package model

import "strings"

// Transcript is the raw text returned by the transcription service for one
// job. Immutable once received. Empty text signals "no speech detected".
type Transcript struct {
	Text string
}

// Empty reports whether the transcript contains no usable text.
func (t Transcript) Empty() bool {
	return strings.TrimSpace(t.Text) == ""
}

// Lines returns the non-empty trimmed lines of the transcript, preserving
// the line boundaries the transcription service produced.
func (t Transcript) Lines() []string {
	var lines []string
	for _, line := range strings.Split(t.Text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Token is one aligned unit of text with start/end times in seconds.
// Produced only by the aligner; Start <= End and tokens are ordered by Start.
type Token struct {
	Text  string
	Start float64
	End   float64
}

// LyricLine is a start timestamp plus the text assembled from one or more
// consecutive tokens. Line timestamps are non-decreasing within a job.
type LyricLine struct {
	Timestamp float64 // seconds
	End       float64 // end of the last word, seconds
	Text      string
	Words     []Token // word-level timing, used by the eLRC renderer
}
