package audio

import (
	"encoding/binary"
	"fmt"
	"os"

	"autolrc/model"
)

// Waveform is decoded PCM audio: float32 samples in [-1, 1] at a fixed
// sample rate, single channel. Owned by the pipeline invocation that
// produced it and discarded once alignment completes.
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the waveform length in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate == 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// DecodeWAV reads a PCM WAV file into a mono Waveform. Multi-channel input
// is downmixed by averaging. Only 16-bit PCM is supported, which is what
// the canonical ffmpeg conversion produces. Failures are reported as
// *model.DecodeError.
func DecodeWAV(path string) (Waveform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Waveform{}, &model.DecodeError{Path: path, Err: err}
	}
	wf, err := decodeWAVBytes(data)
	if err != nil {
		return Waveform{}, &model.DecodeError{Path: path, Err: err}
	}
	return wf, nil
}

func decodeWAVBytes(data []byte) (Waveform, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Waveform{}, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		sampleRate    int
		numChannels   int
		bitsPerSample int
		pcm           []byte
	)

	// Walk the chunk list; fmt must precede data per the WAV spec.
	off := 12
	for off+8 <= len(data) {
		chunkID := string(data[off : off+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Waveform{}, fmt.Errorf("fmt chunk too short: %d bytes", chunkSize)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return Waveform{}, fmt.Errorf("unsupported audio format %d (want PCM)", audioFormat)
			}
			numChannels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// Chunks are word-aligned.
		off = body + chunkSize
		if chunkSize%2 == 1 {
			off++
		}
	}

	if sampleRate == 0 || numChannels == 0 {
		return Waveform{}, fmt.Errorf("missing fmt chunk")
	}
	if pcm == nil {
		return Waveform{}, fmt.Errorf("missing data chunk")
	}
	if bitsPerSample != 16 {
		return Waveform{}, fmt.Errorf("unsupported bit depth %d (want 16)", bitsPerSample)
	}

	bytesPerFrame := 2 * numChannels
	frames := len(pcm) / bytesPerFrame
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < numChannels; ch++ {
			raw := int16(binary.LittleEndian.Uint16(pcm[i*bytesPerFrame+ch*2:]))
			sum += float32(raw) / 32768
		}
		samples[i] = sum / float32(numChannels)
	}

	return Waveform{Samples: samples, SampleRate: sampleRate}, nil
}
