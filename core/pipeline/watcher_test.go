package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"autolrc/config"
)

func TestMarkPendingOnce(t *testing.T) {
	w := NewWatcher(nil)
	if !w.markPending("/in/a.mp3") {
		t.Fatal("first mark rejected")
	}
	if w.markPending("/in/a.mp3") {
		t.Fatal("duplicate mark accepted")
	}
	w.unmark("/in/a.mp3")
	if !w.markPending("/in/a.mp3") {
		t.Fatal("mark after unmark rejected")
	}
}

func TestWaitForStableFileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if waitForStableFile(ctx, "/nonexistent") {
		t.Fatal("stable on cancelled context")
	}
}

// TestWaitForStableFileEmptyFile checks a zero-byte file stabilizes instead
// of pinning the watch loop until the context dies.
func TestWaitForStableFileEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mp3")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !waitForStableFile(ctx, path) {
		t.Fatal("empty file never reported stable")
	}
	if ctx.Err() != nil {
		t.Fatal("stability only reached by exhausting the context")
	}
}

func TestWaitForStableFileSteadySize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !waitForStableFile(ctx, path) {
		t.Fatal("steady file never reported stable")
	}
}

func TestWatchProcessesExistingFiles(t *testing.T) {
	inputDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(inputDir, "old.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f := newFixture(t)
	driver := NewDriver(f.orchestrator, &config.Config{Language: "en", CreateLRC: true, Workers: 1})
	w := NewWatcher(driver)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := w.Watch(ctx, inputDir); err != context.DeadlineExceeded {
		t.Fatalf("Watch returned %v, want deadline exceeded", err)
	}

	if f.transcriber.calls != 1 {
		t.Fatalf("transcriber calls = %d, want 1 catch-up job", f.transcriber.calls)
	}
	if _, err := os.Stat(filepath.Join(f.outputDir, "old.lrc")); err != nil {
		t.Fatalf("catch-up output missing: %v", err)
	}
}
