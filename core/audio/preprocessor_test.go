package audio

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"autolrc/model"
)

// fakeProcessor converts by writing a small valid WAV, recording which
// input it was given.
type fakeProcessor struct {
	convertErr   error
	convertInput string
}

func (f *fakeProcessor) ConvertToWAV(ctx context.Context, inputFile, outputFile string) error {
	f.convertInput = inputFile
	if f.convertErr != nil {
		return f.convertErr
	}
	return os.WriteFile(outputFile, makeWAV(16000, [][]int16{{100}, {200}, {300}}), 0o644)
}

func (f *fakeProcessor) Duration(ctx context.Context, inputFile string) (float64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeProcessor) DetectSilences(ctx context.Context, inputFile string, minDuration float64) ([]Silence, error) {
	return nil, nil
}

func (f *fakeProcessor) Slice(ctx context.Context, inputFile, outputFile string, from, to float64) error {
	return errors.New("not implemented")
}

type fakeSeparator struct {
	vocalsPath string
	err        error
}

func (f *fakeSeparator) Isolate(ctx context.Context, inputPath, workDir string) (string, error) {
	return f.vocalsPath, f.err
}

func TestPrepareWithoutIsolation(t *testing.T) {
	proc := &fakeProcessor{}
	p := NewPreprocessor(proc, nil, t.TempDir())
	job := model.NewAudioJob("/music/song.mp3", "en", true, false, false, false)

	prepared, err := p.Prepare(context.Background(), job)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer prepared.Cleanup()

	if proc.convertInput != "/music/song.mp3" {
		t.Fatalf("converted %q, want the original source", proc.convertInput)
	}
	if len(prepared.Waveform.Samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(prepared.Waveform.Samples))
	}
	if len(prepared.Degradations) != 0 {
		t.Fatalf("degradations = %v, want none", prepared.Degradations)
	}
	if _, err := os.Stat(prepared.WAVPath); err != nil {
		t.Fatalf("canonical wav missing: %v", err)
	}
}

func TestPrepareIsolationFailureFallsBack(t *testing.T) {
	proc := &fakeProcessor{}
	sep := &fakeSeparator{err: errors.New("demucs crashed")}
	p := NewPreprocessor(proc, sep, t.TempDir())
	job := model.NewAudioJob("/music/song.mp3", "en", true, false, false, true)

	prepared, err := p.Prepare(context.Background(), job)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer prepared.Cleanup()

	if proc.convertInput != "/music/song.mp3" {
		t.Fatalf("converted %q, want the original source after isolation failure", proc.convertInput)
	}
	if len(prepared.Degradations) != 1 || !strings.Contains(prepared.Degradations[0], "vocal isolation") {
		t.Fatalf("degradations = %v", prepared.Degradations)
	}
}

func TestPrepareUsesIsolatedVocals(t *testing.T) {
	proc := &fakeProcessor{}
	sep := &fakeSeparator{vocalsPath: "/tmp/vocals.wav"}
	p := NewPreprocessor(proc, sep, t.TempDir())
	job := model.NewAudioJob("/music/song.mp3", "en", true, false, false, true)

	prepared, err := p.Prepare(context.Background(), job)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer prepared.Cleanup()

	if proc.convertInput != "/tmp/vocals.wav" {
		t.Fatalf("converted %q, want the isolated vocals", proc.convertInput)
	}
	if len(prepared.Degradations) != 0 {
		t.Fatalf("degradations = %v, want none", prepared.Degradations)
	}
}

func TestPrepareConversionFailure(t *testing.T) {
	tempRoot := t.TempDir()
	proc := &fakeProcessor{convertErr: errors.New("unreadable input")}
	p := NewPreprocessor(proc, nil, tempRoot)
	job := model.NewAudioJob("/music/broken.mp3", "en", true, false, false, false)

	_, err := p.Prepare(context.Background(), job)
	var derr *model.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("error type = %T, want *model.DecodeError", err)
	}

	// The temp workspace must not leak on failure.
	entries, err := os.ReadDir(tempRoot)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp workspace leaked: %v", entries)
	}
}

func TestPrepareCleanupRemovesWorkspace(t *testing.T) {
	tempRoot := t.TempDir()
	p := NewPreprocessor(&fakeProcessor{}, nil, tempRoot)
	job := model.NewAudioJob("song.mp3", "en", true, false, false, false)

	prepared, err := p.Prepare(context.Background(), job)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := prepared.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	entries, err := os.ReadDir(tempRoot)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("workspace left behind: %v", entries)
	}
	// Second cleanup is a no-op.
	if err := prepared.Cleanup(); err != nil {
		t.Fatalf("repeated Cleanup: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"My Song (feat. X)", "My_Song_feat_X_"},
		{"already-safe_name", "already-safe_name"},
		{"spaces   and/slash", "spaces_and_slash"},
		{"日本語タイトル", "_"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
