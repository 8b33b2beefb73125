package align

import (
	"context"
	"encoding/json"
	"fmt"

	"autolrc/core/run"
)

// Emissions is the acoustic model output: per-frame log-probabilities over
// the model's label vocabulary.
type Emissions struct {
	// LogProbs is indexed [frame][label].
	LogProbs [][]float64 `json:"emissions"`
	// Labels is the model vocabulary. The CTC blank is "_" or "-".
	Labels []string `json:"labels"`
}

// Frames returns the number of emission frames.
func (e Emissions) Frames() int { return len(e.LogProbs) }

// BlankIndex returns the CTC blank label position, defaulting to 0.
func (e Emissions) BlankIndex() int {
	for i, l := range e.Labels {
		if l == "_" || l == "-" {
			return i
		}
	}
	return 0
}

// EmissionModel is the acoustic alignment model collaborator. The model is
// loaded once per process; implementations must be safe for the single
// acquisition point per inference call the orchestrator provides.
type EmissionModel interface {
	Emissions(ctx context.Context, wavPath string) (Emissions, error)
}

// CommandModel obtains emissions by invoking a helper binary that loads the
// pretrained wav2vec2 bundle and prints a JSON document
// {"labels": [...], "emissions": [[...], ...]} to stdout.
type CommandModel struct {
	binPath string
	runner  run.Runner
}

// NewCommandModel creates an emission model around the helper binary.
func NewCommandModel(binPath string, runner run.Runner) *CommandModel {
	if runner == nil {
		runner = run.ExecRunner{}
	}
	return &CommandModel{binPath: binPath, runner: runner}
}

// Emissions runs the helper over the canonical WAV file.
func (m *CommandModel) Emissions(ctx context.Context, wavPath string) (Emissions, error) {
	result, err := m.runner.Run(ctx, m.binPath, "--input", wavPath)
	if err != nil {
		return Emissions{}, fmt.Errorf("emission model failed (exit %d): %w\n%s",
			result.ExitCode, err, result.Stderr)
	}

	var emissions Emissions
	if err := json.Unmarshal([]byte(result.Stdout), &emissions); err != nil {
		return Emissions{}, fmt.Errorf("decode emission model output: %w", err)
	}
	if emissions.Frames() == 0 || len(emissions.Labels) == 0 {
		return Emissions{}, fmt.Errorf("emission model returned no frames or labels")
	}
	for t, row := range emissions.LogProbs {
		if len(row) != len(emissions.Labels) {
			return Emissions{}, fmt.Errorf("emission frame %d has %d scores for %d labels",
				t, len(row), len(emissions.Labels))
		}
	}
	return emissions, nil
}
