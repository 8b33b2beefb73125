package align

import (
	"strings"
	"unicode"

	"autolrc/logger"
)

// tokenization is a transcript mapped through the model vocabulary: a flat
// label-index sequence plus per-word spans into it.
type tokenization struct {
	words   []string // original words, whitespace stripped
	indices []int    // flat label indices, word separators included
	spans   [][2]int // per word: [start, end) positions within indices
}

// tokenize maps the transcript onto the model's label vocabulary. Runes with
// no matching label are dropped with a warning and never fail the alignment.
// Words whose every rune is unknown are dropped entirely.
func tokenize(transcript string, labels []string) tokenization {
	labelIndex := make(map[string]int, len(labels))
	for i, l := range labels {
		labelIndex[l] = i
	}
	separator, hasSeparator := labelIndex["|"]

	var tk tokenization
	dropped := 0

	for _, word := range strings.Fields(transcript) {
		start := len(tk.indices)
		for _, r := range word {
			// The wav2vec2 character vocabulary is uppercase.
			ch := string(unicode.ToUpper(r))
			if idx, ok := labelIndex[ch]; ok {
				tk.indices = append(tk.indices, idx)
			} else {
				dropped++
			}
		}
		end := len(tk.indices)
		if end == start {
			continue // nothing mappable in this word
		}

		tk.words = append(tk.words, word)
		tk.spans = append(tk.spans, [2]int{start, end})
		if hasSeparator {
			tk.indices = append(tk.indices, separator)
		}
	}

	// Trailing separator carries no word.
	if hasSeparator && len(tk.indices) > 0 && tk.indices[len(tk.indices)-1] == separator {
		tk.indices = tk.indices[:len(tk.indices)-1]
	}

	if dropped > 0 {
		logger.Warn("dropped characters not present in the model vocabulary",
			logger.Int("count", dropped))
	}
	return tk
}
