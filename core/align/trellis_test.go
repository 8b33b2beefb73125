package align

import (
	"math"
	"testing"
)

// hotEmissions builds a frame sequence where exactly one label per frame is
// near-certain and the rest carry logprob cold.
func hotEmissions(hot []int, numLabels int, cold float64) [][]float64 {
	frames := make([][]float64, len(hot))
	for t, h := range hot {
		frames[t] = make([]float64, numLabels)
		for l := range frames[t] {
			frames[t][l] = cold
		}
		frames[t][h] = -0.05
	}
	return frames
}

func TestAlignPathFollowsEmissions(t *testing.T) {
	// labels: 0=blank, 1=H, 2=I; H fires at frame 0, I at frame 2.
	emissions := hotEmissions([]int{1, 0, 2, 0, 0, 0}, 3, -8)
	tokens := []int{1, 2}

	path, confidence, err := alignPath(emissions, tokens, 0)
	if err != nil {
		t.Fatalf("alignPath: %v", err)
	}
	if len(path) == 0 {
		t.Fatal("empty path")
	}
	for i := 1; i < len(path); i++ {
		if path[i].frame < path[i-1].frame {
			t.Fatalf("frames regress at step %d: %d after %d", i, path[i].frame, path[i-1].frame)
		}
		if path[i].token < path[i-1].token {
			t.Fatalf("tokens regress at step %d: %d after %d", i, path[i].token, path[i-1].token)
		}
	}
	if confidence < -3 {
		t.Fatalf("confidence = %v, want well above the fallback threshold", confidence)
	}
}

func TestAlignPathConfidenceDropsOnMismatch(t *testing.T) {
	matched := hotEmissions([]int{1, 0, 2, 0, 0, 0}, 3, -8)
	tokens := []int{1, 2}
	_, good, err := alignPath(matched, tokens, 0)
	if err != nil {
		t.Fatalf("matched alignPath: %v", err)
	}

	// Same shape, but the token labels never fire.
	mismatched := hotEmissions([]int{0, 0, 0, 0, 0, 0}, 3, -100)
	_, bad, err := alignPath(mismatched, tokens, 0)
	if err != nil {
		t.Fatalf("mismatched alignPath: %v", err)
	}
	if bad >= good {
		t.Fatalf("mismatched confidence %v not below matched %v", bad, good)
	}
}

func TestAlignPathNoTokens(t *testing.T) {
	if _, _, err := alignPath(hotEmissions([]int{0}, 3, -8), nil, 0); err == nil {
		t.Fatal("expected error for zero tokens")
	}
}

func TestAlignPathTooFewFrames(t *testing.T) {
	emissions := hotEmissions([]int{1}, 3, -8)
	if _, _, err := alignPath(emissions, []int{1, 2}, 0); err == nil {
		t.Fatal("expected error when frames < tokens")
	}
}

// TestAlignPathRejectsRaggedEmissions checks frames narrower than the token
// indices are reported as an error instead of panicking mid-batch.
func TestAlignPathRejectsRaggedEmissions(t *testing.T) {
	emissions := [][]float64{
		{-1, -1, -1},
		{-1}, // ragged row, cannot score tokens 1 and 2
		{-1, -1, -1},
	}
	if _, _, err := alignPath(emissions, []int{1, 2}, 0); err == nil {
		t.Fatal("expected error for ragged emission rows")
	}
}

func TestAlignPathImpossibleTokens(t *testing.T) {
	emissions := hotEmissions([]int{0, 0, 0}, 3, -8)
	for f := range emissions {
		emissions[f][1] = math.Inf(-1)
		emissions[f][2] = math.Inf(-1)
	}
	if _, _, err := alignPath(emissions, []int{1, 2}, 0); err == nil {
		t.Fatal("expected convergence error for impossible token sequence")
	}
}
