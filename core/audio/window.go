package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Window is one fixed-duration block of mono PCM as delivered by a capture
// client. Samples are float32 in [-1, 1].
type Window struct {
	Samples    []float32
	SampleRate int
}

// Peak returns the largest absolute sample value in the window.
func (w Window) Peak() float32 {
	return Peak(w.Samples)
}

// Duration returns the playing time of the window.
func (w Window) Duration() time.Duration {
	return Duration(len(w.Samples), w.SampleRate)
}

func Peak(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

func Duration(sampleCount, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(sampleCount) / float64(sampleRate) * float64(time.Second))
}

// BytesToFloat32 converts little-endian 16-bit PCM into float32 samples.
func BytesToFloat32(pcm []byte) []float32 {
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float32(sample) / math.MaxInt16
	}
	return samples
}

// Float32ToBytes converts float32 samples into little-endian 16-bit PCM,
// clipping anything outside [-1, 1].
func Float32ToBytes(samples []float32) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(Float32ToInt16(s)))
	}
	return pcm
}

// Float32ToInt16Slice converts float32 samples into 16-bit integer samples.
func Float32ToInt16Slice(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = Float32ToInt16(s)
	}
	return out
}

func Float32ToInt16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(s * math.MaxInt16)
}
