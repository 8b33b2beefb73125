package lyric

import (
	"strings"

	"autolrc/model"
)

// AssemblerConfig bounds line length on unpunctuated transcripts and sets
// the minimum timestamp increment used when clamping.
type AssemblerConfig struct {
	MaxTokensPerLine int     // hard cap per line, default 8
	MaxLineDuration  float64 // seconds, default 10
	MinIncrement     float64 // seconds, default 0.01
}

// DefaultAssemblerConfig returns the standard line-assembly settings.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		MaxTokensPerLine: 8,
		MaxLineDuration:  10,
		MinIncrement:     0.01,
	}
}

// Assembler groups aligned tokens into lyric lines with strictly
// non-decreasing timestamps.
type Assembler struct {
	cfg AssemblerConfig
}

// NewAssembler creates an assembler, zero config fields take defaults.
func NewAssembler(cfg AssemblerConfig) *Assembler {
	def := DefaultAssemblerConfig()
	if cfg.MaxTokensPerLine <= 0 {
		cfg.MaxTokensPerLine = def.MaxTokensPerLine
	}
	if cfg.MaxLineDuration <= 0 {
		cfg.MaxLineDuration = def.MaxLineDuration
	}
	if cfg.MinIncrement <= 0 {
		cfg.MinIncrement = def.MinIncrement
	}
	return &Assembler{cfg: cfg}
}

// Assemble segments the token stream into lyric lines. Transcript-provided
// line boundaries win; a single-line transcript is split on sentence
// punctuation or at the configured token/duration caps. The returned lines
// always satisfy the monotonic-timestamp invariant.
func (a *Assembler) Assemble(tokens []model.Token, transcript model.Transcript, duration float64) []model.LyricLine {
	transcriptLines := transcript.Lines()

	var lines []model.LyricLine
	if len(transcriptLines) > 1 {
		lines = a.assembleFromBoundaries(tokens, transcriptLines)
	} else {
		lines = a.assembleByPolicy(tokens)
	}
	if len(lines) == 0 {
		return nil
	}

	a.fillEmptyTimestamps(lines, duration)
	a.clampMonotonic(lines, duration)
	return lines
}

// assembleFromBoundaries groups tokens by the transcription service's own
// line breaks, tolerating words the aligner dropped.
func (a *Assembler) assembleFromBoundaries(tokens []model.Token, transcriptLines []string) []model.LyricLine {
	lines := make([]model.LyricLine, 0, len(transcriptLines))
	pos := 0

	for _, textLine := range transcriptLines {
		var words []model.Token
		for _, want := range strings.Fields(textLine) {
			if pos < len(tokens) && tokens[pos].Text == want {
				words = append(words, tokens[pos])
				pos++
			}
			// Otherwise the aligner dropped this word; the line keeps its
			// text and inherits timing from neighbors if it ends up empty.
		}
		lines = append(lines, newLine(textLine, words))
	}
	return lines
}

// assembleByPolicy splits an unbroken token stream on sentence-ending
// punctuation or at the token/duration caps.
func (a *Assembler) assembleByPolicy(tokens []model.Token) []model.LyricLine {
	var lines []model.LyricLine
	var current []model.Token

	flush := func() {
		if len(current) == 0 {
			return
		}
		texts := make([]string, len(current))
		for i, t := range current {
			texts[i] = t.Text
		}
		lines = append(lines, newLine(strings.Join(texts, " "), current))
		current = nil
	}

	for _, tok := range tokens {
		current = append(current, tok)
		switch {
		case endsSentence(tok.Text):
			flush()
		case len(current) >= a.cfg.MaxTokensPerLine:
			flush()
		case current[len(current)-1].End-current[0].Start >= a.cfg.MaxLineDuration:
			flush()
		}
	}
	flush()
	return lines
}

// fillEmptyTimestamps assigns timing to lines whose token set is empty due
// to alignment dropout: the midpoint between the previous line's end and
// the next timed line's start. A fully empty sequence is spaced evenly
// across the audio duration.
func (a *Assembler) fillEmptyTimestamps(lines []model.LyricLine, duration float64) {
	anyTimed := false
	for i := range lines {
		if len(lines[i].Words) > 0 {
			anyTimed = true
			break
		}
	}
	if !anyTimed {
		step := duration / float64(len(lines))
		for i := range lines {
			lines[i].Timestamp = step * float64(i)
			lines[i].End = step * float64(i+1)
		}
		return
	}

	for i := range lines {
		if len(lines[i].Words) > 0 {
			continue
		}

		prevEnd := 0.0
		if i > 0 {
			prevEnd = lines[i-1].End
		}
		nextStart := duration
		for j := i + 1; j < len(lines); j++ {
			if len(lines[j].Words) > 0 {
				nextStart = lines[j].Timestamp
				break
			}
		}
		if nextStart < prevEnd {
			nextStart = prevEnd
		}

		mid := (prevEnd + nextStart) / 2
		lines[i].Timestamp = mid
		lines[i].End = mid
	}
}

// clampMonotonic enforces strictly non-decreasing line timestamps, nudging
// violators forward by the minimum increment, and caps ends at the audio
// duration.
func (a *Assembler) clampMonotonic(lines []model.LyricLine, duration float64) {
	for i := range lines {
		if i > 0 && lines[i].Timestamp < lines[i-1].Timestamp {
			lines[i].Timestamp = lines[i-1].Timestamp + a.cfg.MinIncrement
		}
		if lines[i].End < lines[i].Timestamp {
			lines[i].End = lines[i].Timestamp
		}
		if duration > 0 && lines[i].End > duration {
			lines[i].End = duration
		}
	}
}

func newLine(text string, words []model.Token) model.LyricLine {
	line := model.LyricLine{Text: text, Words: words}
	if len(words) > 0 {
		line.Timestamp = words[0].Start
		line.End = words[len(words)-1].End
	}
	return line
}

// endsSentence reports whether a token closes a sentence or clause.
func endsSentence(word string) bool {
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case '.', '!', '?', ';':
		return true
	}
	// Common full-width terminators from CJK transcripts.
	for _, suffix := range []string{"。", "！", "？"} {
		if strings.HasSuffix(word, suffix) {
			return true
		}
	}
	return false
}
