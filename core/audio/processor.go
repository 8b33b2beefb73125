package audio

import "context"

// Silence is one detected stretch of silence in seconds.
type Silence struct {
	Start float64
	End   float64
}

// Mid returns the midpoint of the silent stretch, a safe split point.
func (s Silence) Mid() float64 { return (s.Start + s.End) / 2 }

// Processor defines an interface for audio probing and conversion operations.
type Processor interface {
	// ConvertToWAV transcodes any supported input into the canonical
	// format: 16 kHz mono signed 16-bit PCM WAV.
	ConvertToWAV(ctx context.Context, inputFile, outputFile string) error
	// Duration returns the audio duration in seconds.
	Duration(ctx context.Context, inputFile string) (float64, error)
	// DetectSilences finds silent stretches of at least minDuration seconds.
	DetectSilences(ctx context.Context, inputFile string, minDuration float64) ([]Silence, error)
	// Slice extracts [from, to) seconds of the input into outputFile.
	Slice(ctx context.Context, inputFile, outputFile string, from, to float64) error
}
