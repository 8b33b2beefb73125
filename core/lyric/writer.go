package lyric

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"autolrc/model"
)

// Writer serializes assembled lines into the requested output files under
// one directory. Writes are atomic: content lands in a temporary file that
// is renamed into place, so a crash never leaves a truncated file visible
// under the final name.
type Writer struct {
	outputDir string
}

// NewWriter creates a writer targeting outputDir, creating it if needed.
func NewWriter(outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}
	return &Writer{outputDir: outputDir}, nil
}

// WriteLRC writes <basename>.lrc and returns its path.
func (w *Writer) WriteLRC(sourcePath string, lines []model.LyricLine) (string, error) {
	return w.write(sourcePath, "lrc", RenderLRC(lines))
}

// WriteELRC writes <basename>.elrc and returns its path.
func (w *Writer) WriteELRC(sourcePath string, lines []model.LyricLine) (string, error) {
	return w.write(sourcePath, "elrc", RenderELRC(lines))
}

// WriteTXT writes <basename>.txt and returns its path.
func (w *Writer) WriteTXT(sourcePath string, lines []model.LyricLine) (string, error) {
	return w.write(sourcePath, "txt", RenderTXT(lines))
}

func (w *Writer) write(sourcePath, format, content string) (string, error) {
	base := filepath.Base(sourcePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	finalPath := filepath.Join(w.outputDir, name+"."+format)

	tmp, err := os.CreateTemp(w.outputDir, name+".*.tmp")
	if err != nil {
		return "", &model.OutputError{Format: format, Path: finalPath, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", &model.OutputError{Format: format, Path: finalPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", &model.OutputError{Format: format, Path: finalPath, Err: err}
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", &model.OutputError{Format: format, Path: finalPath, Err: err}
	}
	return finalPath, nil
}
