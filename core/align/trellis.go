package align

import (
	"fmt"
	"math"
)

// pathPoint is one step of the alignment path: emission frame t consumed at
// token position i.
type pathPoint struct {
	frame int
	token int
}

// alignPath finds the monotonic path through the emission lattice that
// maximizes the cumulative log-likelihood of the token sequence (Viterbi
// forced alignment). Returns the path and its mean per-step log-probability,
// which serves as the alignment confidence.
func alignPath(emissions [][]float64, tokens []int, blank int) ([]pathPoint, float64, error) {
	numFrames := len(emissions)
	numTokens := len(tokens)
	if numTokens == 0 {
		return nil, 0, fmt.Errorf("no tokens to align")
	}
	if numFrames < numTokens {
		return nil, 0, fmt.Errorf("audio too short: %d frames for %d tokens", numFrames, numTokens)
	}

	// Every frame must score the blank and every aligned token.
	width := blank
	for _, tok := range tokens {
		if tok > width {
			width = tok
		}
	}
	width++
	for t, row := range emissions {
		if len(row) < width {
			return nil, 0, fmt.Errorf("emission frame %d has %d scores, need %d", t, len(row), width)
		}
	}

	negInf := math.Inf(-1)
	trellis := make([][]float64, numFrames+1)
	for t := range trellis {
		trellis[t] = make([]float64, numTokens+1)
		for i := range trellis[t] {
			trellis[t][i] = negInf
		}
	}
	trellis[0][0] = 0
	for t := 0; t < numFrames; t++ {
		trellis[t+1][0] = trellis[t][0] + emissions[t][blank]
	}

	for t := 0; t < numFrames; t++ {
		for i := 0; i < numTokens; i++ {
			stay := trellis[t][i+1] + emissions[t][blank]
			advance := trellis[t][i] + emissions[t][tokens[i]]
			trellis[t+1][i+1] = math.Max(stay, advance)
		}
	}

	if math.IsInf(trellis[numFrames][numTokens], -1) {
		return nil, 0, fmt.Errorf("alignment failed to converge")
	}

	// Backtrack from the terminal cell.
	var reversed []pathPoint
	var score float64
	t, i := numFrames-1, numTokens
	for t >= 0 && i >= 0 {
		if i > 0 && trellis[t][i] <= trellis[t][i-1]+emissions[t][tokens[i-1]] {
			reversed = append(reversed, pathPoint{frame: t, token: i - 1})
			score += emissions[t][tokens[i-1]]
			i--
		} else {
			reversed = append(reversed, pathPoint{frame: t, token: i})
			score += emissions[t][blank]
			t--
		}
	}

	path := make([]pathPoint, len(reversed))
	for n, p := range reversed {
		path[len(reversed)-1-n] = p
	}

	confidence := score / float64(len(path))
	return path, confidence, nil
}
