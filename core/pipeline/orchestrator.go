package pipeline

import (
	"context"
	"fmt"
	"time"

	"autolrc/cache"
	"autolrc/core/align"
	"autolrc/core/audio"
	"autolrc/core/lyric"
	"autolrc/logger"
	"autolrc/model"
	"autolrc/repository"
	"autolrc/storage"
)

// Preprocessor normalizes one input file into a canonical waveform.
type Preprocessor interface {
	Prepare(ctx context.Context, job model.AudioJob) (*audio.Prepared, error)
}

// Transcriber obtains the transcript text for a canonical WAV file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, durationSec float64, language string) (model.Transcript, error)
}

// Aligner produces ordered token timings for a transcript, degrading to
// uniform timing instead of failing.
type Aligner interface {
	Align(ctx context.Context, waveform audio.Waveform, wavPath string, transcript model.Transcript) (align.Result, error)
}

// Orchestrator drives one audio file through the pipeline stages as a state
// machine and reports the per-file outcome. Collaborators are injected
// behind narrow interfaces so the machine is testable with deterministic
// fakes.
type Orchestrator struct {
	preprocessor Preprocessor
	transcriber  Transcriber
	aligner      Aligner
	assembler    *lyric.Assembler
	writer       *lyric.Writer

	// Optional collaborators; nil disables each.
	cache     *cache.TranscriptCache
	publisher *storage.Publisher
	history   *repository.ResultRepository
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(
	preprocessor Preprocessor,
	transcriber Transcriber,
	aligner Aligner,
	assembler *lyric.Assembler,
	writer *lyric.Writer,
) *Orchestrator {
	return &Orchestrator{
		preprocessor: preprocessor,
		transcriber:  transcriber,
		aligner:      aligner,
		assembler:    assembler,
		writer:       writer,
	}
}

// WithCache attaches the optional transcript cache.
func (o *Orchestrator) WithCache(c *cache.TranscriptCache) *Orchestrator {
	o.cache = c
	return o
}

// WithPublisher attaches the optional artifact publisher.
func (o *Orchestrator) WithPublisher(p *storage.Publisher) *Orchestrator {
	o.publisher = p
	return o
}

// WithHistory attaches the optional job-history repository.
func (o *Orchestrator) WithHistory(r *repository.ResultRepository) *Orchestrator {
	o.history = r
	return o
}

// Process runs one job start to finish and returns its result. Never
// panics the batch: every failure is folded into the PipelineResult.
func (o *Orchestrator) Process(ctx context.Context, job model.AudioJob) model.PipelineResult {
	started := time.Now()
	state := newJobState()
	var degradations []string

	fail := func(stage model.JobStatus, err error) model.PipelineResult {
		_ = state.advance(model.StatusFailed)
		logger.Error("job failed",
			logger.String("file", job.SourcePath),
			logger.String("stage", string(stage)),
			logger.ErrorField(err))
		result := model.PipelineResult{
			JobID:        job.ID,
			SourcePath:   job.SourcePath,
			Status:       model.StatusFailed,
			FailedStage:  stage,
			Reason:       err.Error(),
			Degradations: degradations,
			Duration:     time.Since(started),
		}
		o.record(result)
		return result
	}

	logger.Info("processing",
		logger.String("file", job.SourcePath),
		logger.String("job", job.ID),
		logger.String("language", job.Language))

	// Preprocessing: vocal isolation (optional) and canonical conversion.
	if err := state.advance(model.StatusPreprocessing); err != nil {
		return fail(model.StatusQueued, err)
	}
	prepared, err := o.preprocessor.Prepare(ctx, job)
	if err != nil {
		return fail(model.StatusPreprocessing, err)
	}
	defer func() {
		if err := prepared.Cleanup(); err != nil {
			logger.Warn("temp cleanup failed", logger.ErrorField(err))
		}
	}()
	degradations = append(degradations, prepared.Degradations...)
	duration := prepared.Duration()
	logger.Info("audio prepared",
		logger.String("file", job.SourcePath),
		logger.Float64("durationSec", duration))

	// Transcribing.
	if err := o.checkCancelled(ctx); err != nil {
		return fail(model.StatusPreprocessing, err)
	}
	if err := state.advance(model.StatusTranscribing); err != nil {
		return fail(state.status, err)
	}
	transcript, err := o.transcribe(ctx, job, prepared)
	if err != nil {
		return fail(model.StatusTranscribing, err)
	}

	var lines []model.LyricLine
	degraded := false

	if transcript.Empty() {
		// No speech detected: skip alignment and assembly, emit empty output.
		logger.Info("no speech detected, writing empty output",
			logger.String("file", job.SourcePath))
		if err := state.advance(model.StatusWriting); err != nil {
			return fail(state.status, err)
		}
	} else {
		// Aligning.
		if err := o.checkCancelled(ctx); err != nil {
			return fail(model.StatusTranscribing, err)
		}
		if err := state.advance(model.StatusAligning); err != nil {
			return fail(state.status, err)
		}
		alignResult, err := o.aligner.Align(ctx, prepared.Waveform, prepared.WAVPath, transcript)
		if err != nil {
			return fail(model.StatusAligning, err)
		}
		if alignResult.Degraded {
			degraded = true
			degradations = append(degradations, fmt.Sprintf("alignment degraded: %s", alignResult.Reason))
		}
		if err := o.checkCancelled(ctx); err != nil {
			return fail(model.StatusAligning, err)
		}

		// Assembling.
		if err := state.advance(model.StatusAssembling); err != nil {
			return fail(state.status, err)
		}
		lines = o.assembler.Assemble(alignResult.Tokens, transcript, duration)

		if err := state.advance(model.StatusWriting); err != nil {
			return fail(state.status, err)
		}
	}

	// Writing: each requested format is attempted independently.
	written, writeErrs := o.writeOutputs(job, lines)
	if len(written) == 0 && len(writeErrs) > 0 {
		return fail(model.StatusWriting, writeErrs[0])
	}
	for _, werr := range writeErrs {
		degraded = true
		degradations = append(degradations, werr.Error())
	}
	o.publish(ctx, written)

	terminal := model.StatusDone
	if degraded {
		terminal = model.StatusPartialDone
	}
	if err := state.advance(terminal); err != nil {
		return fail(state.status, err)
	}

	result := model.PipelineResult{
		JobID:        job.ID,
		SourcePath:   job.SourcePath,
		Status:       terminal,
		OutputPaths:  written,
		Degradations: degradations,
		Duration:     time.Since(started),
	}
	o.record(result)

	logger.Info("job finished",
		logger.String("file", job.SourcePath),
		logger.String("status", string(terminal)),
		logger.Int("outputs", len(written)),
		logger.Duration("took", result.Duration))
	return result
}

// transcribe consults the cache before calling the remote service.
func (o *Orchestrator) transcribe(ctx context.Context, job model.AudioJob, prepared *audio.Prepared) (model.Transcript, error) {
	var cacheKey string
	if o.cache != nil {
		key, err := o.cache.Key(job.SourcePath, job.Language)
		if err != nil {
			logger.Warn("cache key derivation failed", logger.ErrorField(err))
		} else {
			cacheKey = key
			if text, hit, err := o.cache.Get(ctx, cacheKey); err != nil {
				logger.Warn("transcript cache lookup failed", logger.ErrorField(err))
			} else if hit {
				logger.Info("transcript cache hit", logger.String("file", job.SourcePath))
				return model.Transcript{Text: text}, nil
			}
		}
	}

	transcript, err := o.transcriber.Transcribe(ctx, prepared.WAVPath, prepared.Duration(), job.Language)
	if err != nil {
		return model.Transcript{}, err
	}

	if cacheKey != "" {
		if err := o.cache.Set(ctx, cacheKey, transcript.Text); err != nil {
			logger.Warn("transcript cache store failed", logger.ErrorField(err))
		}
	}
	return transcript, nil
}

// writeOutputs attempts every requested format; a failed format never
// blocks the others.
func (o *Orchestrator) writeOutputs(job model.AudioJob, lines []model.LyricLine) ([]string, []error) {
	var written []string
	var errs []error

	type attempt struct {
		enabled bool
		write   func(string, []model.LyricLine) (string, error)
	}
	for _, att := range []attempt{
		{job.CreateLRC, o.writer.WriteLRC},
		{job.CreateELRC, o.writer.WriteELRC},
		{job.CreateTXT, o.writer.WriteTXT},
	} {
		if !att.enabled {
			continue
		}
		path, err := att.write(job.SourcePath, lines)
		if err != nil {
			logger.Error("output write failed", logger.ErrorField(err))
			errs = append(errs, err)
			continue
		}
		written = append(written, path)
	}
	return written, errs
}

// publish uploads written artifacts when a publisher is configured.
// Publication failure is a warning, never a job failure.
func (o *Orchestrator) publish(ctx context.Context, paths []string) {
	if o.publisher == nil {
		return
	}
	for _, path := range paths {
		if err := o.publisher.Publish(ctx, path); err != nil {
			logger.Warn("artifact publication failed",
				logger.String("path", path),
				logger.ErrorField(err))
		}
	}
}

// record persists the result when job history is configured.
func (o *Orchestrator) record(result model.PipelineResult) {
	if o.history == nil {
		return
	}
	if err := o.history.Save(result); err != nil {
		logger.Warn("job history write failed", logger.ErrorField(err))
	}
}

// checkCancelled detects between-stage cancellation.
func (o *Orchestrator) checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("job cancelled: %w", err)
	}
	return nil
}
