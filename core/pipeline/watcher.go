package pipeline

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"autolrc/logger"
)

// Watcher runs the pipeline as a long-lived service: it watches the input
// directory and processes audio files as they arrive. Files already present
// at startup are processed first.
type Watcher struct {
	driver *Driver

	mu        sync.Mutex
	processed map[string]bool
}

// NewWatcher creates a watcher around the batch driver.
func NewWatcher(driver *Driver) *Watcher {
	return &Watcher{
		driver:    driver,
		processed: make(map[string]bool),
	}
}

// Watch blocks until the context is cancelled, processing existing files
// and then every audio file created under inputDir.
func (w *Watcher) Watch(ctx context.Context, inputDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(inputDir); err != nil {
		return err
	}

	// Catch up on files that arrived before the watch started.
	files, err := discoverInputs(inputDir)
	if err == nil {
		for _, f := range files {
			w.handle(ctx, f)
		}
	}

	logger.Info("watching for new audio files", logger.String("dir", inputDir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !IsAudioFile(event.Name) {
				continue
			}
			if !w.markPending(event.Name) {
				continue
			}
			if !waitForStableFile(ctx, event.Name) {
				w.unmark(event.Name)
				continue
			}
			w.driver.ProcessFile(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", logger.ErrorField(err))
		}
	}
}

// handle processes one file exactly once.
func (w *Watcher) handle(ctx context.Context, path string) {
	if !w.markPending(path) {
		return
	}
	w.driver.ProcessFile(ctx, path)
}

func (w *Watcher) markPending(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.processed[path] {
		return false
	}
	w.processed[path] = true
	return true
}

func (w *Watcher) unmark(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.processed, path)
}

// waitForStableFile polls until the file size stops changing, so a file
// still being copied into the input directory is not picked up truncated.
// A size that held steady for one poll interval counts as stable, zero
// included: empty files must flow through and fail decode rather than
// stall the watch loop.
func waitForStableFile(ctx context.Context, path string) bool {
	var lastSize int64 = -1
	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(500 * time.Millisecond):
		}

		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() == lastSize {
			return true
		}
		lastSize = info.Size()
	}
}
