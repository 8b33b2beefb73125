package align

import (
	"context"
	"errors"
	"sync"
	"time"

	"autolrc/core/audio"
	"autolrc/logger"
	"autolrc/model"
)

// DefaultConfidenceThreshold is the mean per-step log-probability below
// which the Viterbi result is considered unreliable.
const DefaultConfidenceThreshold = -10.0

// Result is the aligner output: ordered non-overlapping tokens, plus a
// degradation marker when timing fell back to uniform distribution.
type Result struct {
	Tokens   []model.Token
	Degraded bool
	Reason   string
}

// Aligner runs the acoustic model over the waveform and force-aligns the
// transcript against its emissions. The loaded model is a process-wide
// read-mostly resource; inference calls are serialized through a single
// acquisition point.
type Aligner struct {
	model               EmissionModel
	confidenceThreshold float64
	overlapTolerance    float64
	timeout             time.Duration

	inferenceMu sync.Mutex
}

// Option configures an Aligner.
type Option func(*Aligner)

// WithConfidenceThreshold overrides the fallback-trigger threshold.
func WithConfidenceThreshold(threshold float64) Option {
	return func(a *Aligner) { a.confidenceThreshold = threshold }
}

// WithOverlapTolerance allows adjacent tokens to overlap by up to tol seconds.
func WithOverlapTolerance(tol float64) Option {
	return func(a *Aligner) { a.overlapTolerance = tol }
}

// WithTimeout bounds one model inference call.
func WithTimeout(timeout time.Duration) Option {
	return func(a *Aligner) { a.timeout = timeout }
}

// NewAligner creates an aligner around the given emission model.
func NewAligner(emissionModel EmissionModel, opts ...Option) *Aligner {
	a := &Aligner{
		model:               emissionModel,
		confidenceThreshold: DefaultConfidenceThreshold,
		overlapTolerance:    0,
		timeout:             10 * time.Minute,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Align produces one ordered, non-overlapping time interval per transcript
// word. An empty transcript yields an empty token slice and no error. Model
// failure, timeout, or low confidence degrade to uniform timing rather than
// failing; only context cancellation is returned as an error.
func (a *Aligner) Align(ctx context.Context, waveform audio.Waveform, wavPath string, transcript model.Transcript) (Result, error) {
	if transcript.Empty() {
		return Result{}, nil
	}

	duration := waveform.Duration()
	emissions, err := a.infer(ctx, wavPath)
	if err != nil {
		// A killed helper process reports a generic exec error; consult the
		// caller's context so cancellation is never mistaken for model failure.
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return Result{}, err
		}
		logger.Warn("emission model unavailable, falling back to uniform timing",
			logger.ErrorField(err))
		return a.fallback(transcript, duration, "emission model failure"), nil
	}

	tk := tokenize(transcript.Text, emissions.Labels)
	if len(tk.indices) == 0 {
		return a.fallback(transcript, duration, "no transcript characters map onto the model vocabulary"), nil
	}

	path, confidence, err := alignPath(emissions.LogProbs, tk.indices, emissions.BlankIndex())
	if err != nil {
		return a.fallback(transcript, duration, err.Error()), nil
	}
	if confidence < a.confidenceThreshold {
		logger.Warn("alignment confidence below threshold",
			logger.Float64("confidence", confidence),
			logger.Float64("threshold", a.confidenceThreshold))
		return a.fallback(transcript, duration, "alignment confidence below threshold"), nil
	}

	tokens := a.wordTimings(tk, path, emissions.Frames(), duration)
	if len(tokens) == 0 {
		return a.fallback(transcript, duration, "alignment produced no word timings"), nil
	}
	return Result{Tokens: tokens}, nil
}

// infer runs one inference call under the model acquisition lock.
func (a *Aligner) infer(ctx context.Context, wavPath string) (Emissions, error) {
	a.inferenceMu.Lock()
	defer a.inferenceMu.Unlock()

	inferCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.model.Emissions(inferCtx, wavPath)
}

func (a *Aligner) fallback(transcript model.Transcript, duration float64, reason string) Result {
	return Result{
		Tokens:   UniformFallback(transcript.Text, duration),
		Degraded: true,
		Reason:   reason,
	}
}

// wordTimings converts the alignment path into per-word time intervals.
// Frame index scales to seconds through the audio duration, mirroring the
// acoustic model's fixed frame stride.
func (a *Aligner) wordTimings(tk tokenization, path []pathPoint, totalFrames int, duration float64) []model.Token {
	if totalFrames == 0 {
		return nil
	}
	frameDuration := duration / float64(totalFrames)

	tokens := make([]model.Token, 0, len(tk.words))
	cursor := 0
	for w, span := range tk.spans {
		start, end := span[0], span[1]

		// Path points are ordered, so scan forward from the previous word.
		first, last := -1, -1
		for i := cursor; i < len(path); i++ {
			p := path[i]
			if p.token < start {
				continue
			}
			if p.token > end {
				cursor = i
				break
			}
			if first == -1 {
				first = p.frame
			}
			last = p.frame
		}
		if first == -1 {
			continue // alignment dropout for this word
		}

		tokens = append(tokens, model.Token{
			Text:  tk.words[w],
			Start: float64(first) * frameDuration,
			End:   float64(last+1) * frameDuration,
		})
	}

	return a.enforceOrder(tokens, duration)
}

// enforceOrder clamps token intervals so that starts are non-decreasing and
// token i's end exceeds token i+1's start by at most the overlap tolerance.
func (a *Aligner) enforceOrder(tokens []model.Token, duration float64) []model.Token {
	for i := range tokens {
		if tokens[i].End > duration {
			tokens[i].End = duration
		}
		if tokens[i].Start < 0 {
			tokens[i].Start = 0
		}
		if tokens[i].End < tokens[i].Start {
			tokens[i].End = tokens[i].Start
		}
		if i == 0 {
			continue
		}
		if tokens[i].Start < tokens[i-1].Start {
			tokens[i].Start = tokens[i-1].Start
		}
		if tokens[i-1].End > tokens[i].Start+a.overlapTolerance {
			tokens[i-1].End = tokens[i].Start + a.overlapTolerance
		}
	}
	return tokens
}
