package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	sampleRate    = 44100
	bitsPerSample = 16
	channels      = 1
	amplitude     = 0.6 * math.MaxInt16
	fadeSamples   = sampleRate / 100 // 10ms ramps avoid clicks
)

// WriteTone writes a mono 16-bit PCM WAV sine wave.
func WriteTone(w io.Writer, frequency, seconds float64) error {
	if frequency <= 0 || seconds <= 0 {
		return fmt.Errorf("invalid tone %vHz for %vs", frequency, seconds)
	}
	n := int(seconds * sampleRate)
	dataSize := uint32(n * channels * bitsPerSample / 8)

	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36 + dataSize),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1), // PCM
		uint16(channels),
		uint32(sampleRate),
		uint32(sampleRate * channels * bitsPerSample / 8),
		uint16(channels * bitsPerSample / 8),
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("failed to write wav header: %w", err)
		}
	}

	samples := make([]int16, n)
	for i := range samples {
		gain := 1.0
		if i < fadeSamples {
			gain = float64(i) / fadeSamples
		} else if n-i < fadeSamples {
			gain = float64(n-i) / fadeSamples
		}
		samples[i] = int16(gain * amplitude * math.Sin(2*math.Pi*frequency*float64(i)/sampleRate))
	}
	if err := binary.Write(w, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("failed to write wav samples: %w", err)
	}
	return nil
}
