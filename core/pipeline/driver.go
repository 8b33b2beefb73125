package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"autolrc/config"
	"autolrc/logger"
	"autolrc/model"
)

// audioExtensions lists the input formats the batch driver picks up.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
}

// IsAudioFile reports whether the path has a supported audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// Driver enumerates input files and runs one orchestrator pass per file,
// continuing past individual failures. Jobs share no mutable state, so a
// bounded worker pool processes them independently.
type Driver struct {
	orchestrator *Orchestrator
	cfg          *config.Config
}

// NewDriver creates a batch driver.
func NewDriver(orchestrator *Orchestrator, cfg *config.Config) *Driver {
	return &Driver{orchestrator: orchestrator, cfg: cfg}
}

// newJob builds a job for one source file from the run configuration.
func (d *Driver) newJob(sourcePath string) model.AudioJob {
	return model.NewAudioJob(
		sourcePath,
		d.cfg.Language,
		d.cfg.CreateLRC,
		d.cfg.CreateTXT,
		d.cfg.CreateELRC,
		d.cfg.UseVocalIsolation,
	)
}

// ProcessFile runs a single file through the pipeline.
func (d *Driver) ProcessFile(ctx context.Context, sourcePath string) model.PipelineResult {
	return d.orchestrator.Process(ctx, d.newJob(sourcePath))
}

// Run processes a file or every audio file in a directory and returns the
// batch summary. The returned error covers input discovery only; per-job
// failures are counted in the summary, never aborting the batch.
func (d *Driver) Run(ctx context.Context, inputPath string) (model.BatchSummary, error) {
	files, err := discoverInputs(inputPath)
	if err != nil {
		return model.BatchSummary{}, err
	}
	if len(files) == 0 {
		return model.BatchSummary{}, fmt.Errorf("no audio files found under %s", inputPath)
	}

	logger.Info("batch starting",
		logger.String("input", inputPath),
		logger.Int("files", len(files)),
		logger.Int("workers", d.cfg.Workers))

	jobs := make(chan string)
	results := make(chan model.PipelineResult)

	var wg sync.WaitGroup
	for w := 0; w < d.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- d.ProcessFile(ctx, path)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var summary model.BatchSummary
	for result := range results {
		summary.Add(result)
	}

	logger.Info("batch complete",
		logger.Int("total", summary.Total),
		logger.Int("done", summary.Done),
		logger.Int("partial", summary.PartialDone),
		logger.Int("failed", summary.Failed))
	return summary, nil
}

// discoverInputs resolves a file or directory into a sorted file list.
func discoverInputs(inputPath string) ([]string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("input path %s: %w", inputPath, err)
	}

	if !info.IsDir() {
		if !IsAudioFile(inputPath) {
			return nil, fmt.Errorf("unsupported input file: %s", inputPath)
		}
		return []string{inputPath}, nil
	}

	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return nil, fmt.Errorf("read input directory %s: %w", inputPath, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsAudioFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(inputPath, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
