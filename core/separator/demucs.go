package separator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"autolrc/core/run"
	"autolrc/logger"
)

// DemucsSeparator isolates vocals by invoking the demucs CLI with the
// two-stem vocals model. Implements audio.Separator.
type DemucsSeparator struct {
	demucsPath string
	modelName  string
	runner     run.Runner
}

// NewDemucsSeparator creates a separator around the demucs binary.
func NewDemucsSeparator(demucsPath string, runner run.Runner) *DemucsSeparator {
	if runner == nil {
		runner = run.ExecRunner{}
	}
	return &DemucsSeparator{
		demucsPath: demucsPath,
		modelName:  "htdemucs",
		runner:     runner,
	}
}

// Isolate runs demucs over a sanitized working copy of the input and returns
// the path of the vocals-only track inside workDir.
func (s *DemucsSeparator) Isolate(ctx context.Context, inputPath, workDir string) (string, error) {
	// Demucs mishandles exotic filenames, so work on a sanitized copy.
	workCopy, err := s.stageWorkingCopy(inputPath, workDir)
	if err != nil {
		return "", err
	}

	outDir := filepath.Join(workDir, "separated")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create demucs output dir: %w", err)
	}

	args := []string{
		"--two-stems=vocals",
		"-n", s.modelName,
		"--out", outDir,
		workCopy,
	}

	logger.Info("running vocal separation",
		logger.String("file", inputPath),
		logger.String("model", s.modelName))

	result, err := s.runner.Run(ctx, s.demucsPath, args...)
	if err != nil {
		return "", fmt.Errorf("demucs failed (exit %d): %w\n%s", result.ExitCode, err, result.Stderr)
	}

	stem := strings.TrimSuffix(filepath.Base(workCopy), filepath.Ext(workCopy))
	vocalsPath, err := findVocals(filepath.Join(outDir, s.modelName, stem))
	if err != nil {
		return "", err
	}
	return vocalsPath, nil
}

// stageWorkingCopy copies the input into workDir under a filesystem-safe name.
func (s *DemucsSeparator) stageWorkingCopy(inputPath, workDir string) (string, error) {
	ext := filepath.Ext(inputPath)
	safeName := sanitize(strings.TrimSuffix(filepath.Base(inputPath), ext)) + ext
	dst := filepath.Join(workDir, safeName)

	in, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("open input for staging: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create working copy: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("stage working copy: %w", err)
	}
	return dst, nil
}

// findVocals locates the vocals stem in the demucs output directory.
func findVocals(stemDir string) (string, error) {
	entries, err := os.ReadDir(stemDir)
	if err != nil {
		return "", fmt.Errorf("read demucs output dir %s: %w", stemDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.Contains(name, "vocal") && strings.HasSuffix(name, ".wav") {
			return filepath.Join(stemDir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("vocals stem not found in %s", stemDir)
}

func sanitize(name string) string {
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
