package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"autolrc/config"
)

func TestIsAudioFile(t *testing.T) {
	cases := map[string]bool{
		"song.mp3":       true,
		"SONG.MP3":       true,
		"track.flac":     true,
		"voice.m4a":      true,
		"clip.ogg":       true,
		"raw.wav":        true,
		"cover.jpg":      false,
		"notes.txt":      false,
		"archive.tar.gz": false,
		"noextension":    false,
	}
	for path, want := range cases {
		if got := IsAudioFile(path); got != want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestDiscoverInputsDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp3", "a.flac", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := discoverInputs(dir)
	if err != nil {
		t.Fatalf("discoverInputs: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want 2 audio files", files)
	}
	// Sorted order, directories skipped even with audio-like names.
	if filepath.Base(files[0]) != "a.flac" || filepath.Base(files[1]) != "b.mp3" {
		t.Fatalf("files = %v", files)
	}
}

func TestDiscoverInputsSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.mp3")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	files, err := discoverInputs(path)
	if err != nil {
		t.Fatalf("discoverInputs: %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Fatalf("files = %v", files)
	}
}

func TestDiscoverInputsRejectsUnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cover.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := discoverInputs(path); err == nil {
		t.Fatal("expected error for unsupported input file")
	}
}

func TestDriverRunBatch(t *testing.T) {
	inputDir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		if err := os.WriteFile(filepath.Join(inputDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	f := newFixture(t)
	// Single worker keeps the fake call counters race-free.
	cfg := &config.Config{
		Language:  "en",
		CreateLRC: true,
		Workers:   1,
	}
	driver := NewDriver(f.orchestrator, cfg)

	summary, err := driver.Run(context.Background(), inputDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 3 || summary.Done != 3 {
		t.Fatalf("summary = %+v, want 3 done of 3", summary)
	}
	if f.transcriber.calls != 3 {
		t.Fatalf("transcriber calls = %d, want 3", f.transcriber.calls)
	}
}

func TestDriverRunEmptyDirectory(t *testing.T) {
	f := newFixture(t)
	driver := NewDriver(f.orchestrator, &config.Config{Workers: 1})

	if _, err := driver.Run(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error for directory without audio files")
	}
}
