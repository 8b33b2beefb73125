package lyric

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"autolrc/model"
)

// FormatTimestamp renders seconds as [mm:ss.xx], rounding to centiseconds
// first so floating point noise cannot flip a digit.
func FormatTimestamp(seconds float64) string {
	rounded := math.Round(seconds*100) / 100
	mins := int(rounded / 60)
	secs := rounded - float64(mins)*60
	return fmt.Sprintf("[%02d:%05.2f]", mins, secs)
}

// formatWordStamp renders the eLRC inline word timestamp <mm:ss.xx>.
func formatWordStamp(seconds float64) string {
	ts := FormatTimestamp(seconds)
	return "<" + ts[1:len(ts)-1] + ">"
}

// RenderLRC serializes lines in the standard LRC format, one
// `[mm:ss.xx]text` entry per line.
func RenderLRC(lines []model.LyricLine) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(FormatTimestamp(line.Timestamp))
		b.WriteString(line.Text)
	}
	return b.String()
}

// RenderELRC serializes lines in the enhanced LRC format with per-word
// timestamps nested inside each line.
func RenderELRC(lines []model.LyricLine) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(FormatTimestamp(line.Timestamp))
		if len(line.Words) == 0 {
			b.WriteString(line.Text)
			continue
		}
		for _, w := range line.Words {
			b.WriteString(formatWordStamp(w.Start))
			b.WriteString(w.Text)
		}
	}
	return b.String()
}

// RenderTXT serializes the plain transcript, newline-joined, no timestamps.
func RenderTXT(lines []model.LyricLine) string {
	if len(lines) == 0 {
		return ""
	}
	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = line.Text
	}
	return strings.Join(texts, "\n")
}

// ParseLRC parses LRC content back into (timestamp, text) lines. Lines
// without a leading timestamp tag are skipped.
func ParseLRC(content string) []model.LyricLine {
	var lines []model.LyricLine
	for _, raw := range strings.Split(content, "\n") {
		raw = strings.TrimSpace(raw)
		if len(raw) < 10 || raw[0] != '[' {
			continue
		}
		end := strings.IndexByte(raw, ']')
		if end < 0 {
			continue
		}
		ts, ok := parseTimestamp(raw[1:end])
		if !ok {
			continue
		}
		lines = append(lines, model.LyricLine{
			Timestamp: ts,
			Text:      raw[end+1:],
		})
	}
	return lines
}

// parseTimestamp parses "mm:ss.xx" into seconds.
func parseTimestamp(tag string) (float64, bool) {
	parts := strings.SplitN(tag, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	mins, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, false
	}
	return float64(mins)*60 + secs, true
}
