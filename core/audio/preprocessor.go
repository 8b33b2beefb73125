package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"autolrc/logger"
	"autolrc/model"
)

// Separator isolates vocals from a mixed track. Failure is non-fatal; the
// preprocessor falls back to the original audio.
type Separator interface {
	Isolate(ctx context.Context, inputPath, workDir string) (string, error)
}

// Prepared is the preprocessor output for one job: a canonical WAV file on
// disk plus its decoded waveform. Cleanup removes all temporary artifacts.
type Prepared struct {
	WAVPath      string
	Waveform     Waveform
	Degradations []string
	tempDir      string
}

// Duration returns the prepared audio duration in seconds.
func (p *Prepared) Duration() float64 { return p.Waveform.Duration() }

// Cleanup removes the temporary working directory, including any isolated
// vocal track and the converted WAV.
func (p *Prepared) Cleanup() error {
	if p == nil || p.tempDir == "" {
		return nil
	}
	if err := os.RemoveAll(p.tempDir); err != nil {
		return err
	}
	p.tempDir = ""
	return nil
}

// Preprocessor normalizes an input file into a canonical mono waveform,
// optionally running vocal isolation first.
type Preprocessor struct {
	processor Processor
	separator Separator
	tempRoot  string
}

// NewPreprocessor creates a preprocessor. separator may be nil to disable
// vocal isolation entirely.
func NewPreprocessor(processor Processor, separator Separator, tempRoot string) *Preprocessor {
	return &Preprocessor{processor: processor, separator: separator, tempRoot: tempRoot}
}

// Prepare produces the canonical waveform for one job. The caller must call
// Cleanup on the returned Prepared regardless of downstream success.
func (p *Preprocessor) Prepare(ctx context.Context, job model.AudioJob) (*Prepared, error) {
	tempDir, err := os.MkdirTemp(p.tempRoot, "autolrc-*")
	if err != nil {
		return nil, fmt.Errorf("create temp workspace: %w", err)
	}

	prepared := &Prepared{tempDir: tempDir}
	sourcePath := job.SourcePath

	if job.UseVocalIsolation && p.separator != nil {
		vocalsPath, err := p.separator.Isolate(ctx, job.SourcePath, tempDir)
		if err != nil {
			logger.Warn("vocal isolation failed, using original audio",
				logger.String("file", job.SourcePath),
				logger.ErrorField(err))
			prepared.Degradations = append(prepared.Degradations,
				fmt.Sprintf("vocal isolation failed: %v", err))
		} else {
			sourcePath = vocalsPath
			logger.Info("using isolated vocals for transcription",
				logger.String("file", job.SourcePath))
		}
	}

	wavPath := filepath.Join(tempDir, baseName(job.SourcePath)+"_16k.wav")
	if err := p.processor.ConvertToWAV(ctx, sourcePath, wavPath); err != nil {
		_ = prepared.Cleanup()
		return nil, &model.DecodeError{Path: job.SourcePath, Err: err}
	}

	waveform, err := DecodeWAV(wavPath)
	if err != nil {
		_ = prepared.Cleanup()
		return nil, err
	}

	prepared.WAVPath = wavPath
	prepared.Waveform = waveform
	return prepared, nil
}

// baseName returns the sanitized input filename without its extension,
// safe for use in temporary paths.
func baseName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return SanitizeFilename(name)
}

// SanitizeFilename replaces anything outside [a-zA-Z0-9_-] with underscores
// and collapses runs of underscores. External tools choke on exotic names.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return out
}
