package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"autolrc/core/run"
	"autolrc/logger"
)

// CanonicalSampleRate is the sample rate the transcription service and the
// alignment model both expect.
const CanonicalSampleRate = 16000

// FFmpegProcessor implements the Processor interface using ffmpeg/ffprobe.
type FFmpegProcessor struct {
	ffmpegPath string
	runner     run.Runner
}

// NewFFmpegProcessor creates a new FFmpegProcessor.
func NewFFmpegProcessor(ffmpegPath string, runner run.Runner) *FFmpegProcessor {
	if runner == nil {
		runner = run.ExecRunner{}
	}
	return &FFmpegProcessor{ffmpegPath: ffmpegPath, runner: runner}
}

// ffprobePath derives the ffprobe binary path from the configured ffmpeg path.
func (p *FFmpegProcessor) ffprobePath() string {
	return strings.Replace(p.ffmpegPath, "ffmpeg", "ffprobe", 1)
}

// ConvertToWAV transcodes the input into 16 kHz mono s16le WAV.
func (p *FFmpegProcessor) ConvertToWAV(ctx context.Context, inputFile, outputFile string) error {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputFile,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(CanonicalSampleRate),
		"-c:a", "pcm_s16le",
		outputFile,
	}

	result, err := p.runner.Run(ctx, p.ffmpegPath, args...)
	if err != nil {
		return fmt.Errorf("ffmpeg conversion failed for %s (exit %d): %w\n%s",
			inputFile, result.ExitCode, err, result.Stderr)
	}
	return nil
}

// Duration returns the input duration in seconds using ffprobe.
func (p *FFmpegProcessor) Duration(ctx context.Context, inputFile string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		inputFile,
	}

	result, err := p.runner.Run(ctx, p.ffprobePath(), args...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe execution failed for %s: %w\n%s", inputFile, err, result.Stderr)
	}

	var probeData struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &probeData); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q from ffprobe: %w", probeData.Format.Duration, err)
	}
	return duration, nil
}

// DetectSilences runs the silencedetect filter and parses its stderr report.
func (p *FFmpegProcessor) DetectSilences(ctx context.Context, inputFile string, minDuration float64) ([]Silence, error) {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-i", inputFile,
		"-af", fmt.Sprintf("silencedetect=noise=-30dB:d=%g", minDuration),
		"-f", "null",
		"-",
	}

	result, err := p.runner.Run(ctx, p.ffmpegPath, args...)
	if err != nil {
		return nil, fmt.Errorf("silencedetect failed for %s: %w", inputFile, err)
	}

	silences := ParseSilenceReport(result.Stderr)
	logger.Debug("silence detection complete",
		logger.String("file", inputFile),
		logger.Int("silences", len(silences)))
	return silences, nil
}

// Slice extracts [from, to) seconds into outputFile, re-encoding to the
// canonical format so chunks stay API-compatible.
func (p *FFmpegProcessor) Slice(ctx context.Context, inputFile, outputFile string, from, to float64) error {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-ss", fmt.Sprintf("%.3f", from),
		"-to", fmt.Sprintf("%.3f", to),
		"-i", inputFile,
		"-ac", "1",
		"-ar", strconv.Itoa(CanonicalSampleRate),
		"-c:a", "pcm_s16le",
		outputFile,
	}

	result, err := p.runner.Run(ctx, p.ffmpegPath, args...)
	if err != nil {
		return fmt.Errorf("ffmpeg slice failed for %s (exit %d): %w\n%s",
			inputFile, result.ExitCode, err, result.Stderr)
	}
	return nil
}

// ParseSilenceReport extracts silence intervals from silencedetect stderr
// output. Lines look like:
//
//	[silencedetect @ 0x...] silence_start: 12.345
//	[silencedetect @ 0x...] silence_end: 14.100 | silence_duration: 1.755
func ParseSilenceReport(stderr string) []Silence {
	var silences []Silence
	var current *Silence

	for _, line := range strings.Split(stderr, "\n") {
		if idx := strings.Index(line, "silence_start:"); idx >= 0 {
			val := strings.TrimSpace(line[idx+len("silence_start:"):])
			if start, err := strconv.ParseFloat(val, 64); err == nil {
				current = &Silence{Start: start}
			}
			continue
		}
		if idx := strings.Index(line, "silence_end:"); idx >= 0 && current != nil {
			val := strings.TrimSpace(line[idx+len("silence_end:"):])
			if cut := strings.Index(val, "|"); cut >= 0 {
				val = strings.TrimSpace(val[:cut])
			}
			if end, err := strconv.ParseFloat(val, 64); err == nil {
				current.End = end
				silences = append(silences, *current)
			}
			current = nil
		}
	}
	return silences
}
