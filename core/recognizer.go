package orchestration

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// amplitudeFloor is the cheap silence rejection: buffers quieter than
	// this never reach the recognition gateway.
	amplitudeFloor = 0.01

	// normalizeLow and normalizeHigh bound the peak the recognition gateway
	// sees; very quiet and very loud buffers are rescaled into this band.
	normalizeLow  = 0.1
	normalizeHigh = 0.8
)

// recognizer wraps the recognition gateway with the checks every call site
// needs: minimum-length and amplitude-floor rejection, peak normalization,
// and an explicit reset for pooled clients so no state bleeds between calls.
type recognizer struct {
	client Recognizer
}

func newRecognizer(client Recognizer) *recognizer {
	return &recognizer{client: client}
}

func (r *recognizer) set(client Recognizer) {
	if r != nil {
		r.client = client
	}
}

func (r *recognizer) isConfigured() bool {
	return r != nil && r.client != nil
}

// Recognize transcribes a PCM buffer, returning "" for anything the gateway
// should not see (too short, too quiet) and for gateway failures. It never
// raises; empty text is indistinguishable from silence by design.
func (r *recognizer) Recognize(ctx context.Context, sampleRate int, samples []float32) string {
	if !r.isConfigured() || sampleRate <= 0 {
		return ""
	}

	if len(samples) < sampleRate {
		// Under one second of audio recognizes too unreliably to be useful.
		return ""
	}

	samples, ok := normalizePeak(samples)
	if !ok {
		return ""
	}

	// Pooled clients keep their model loaded but must not carry decoder
	// state from the previous invocation.
	if resettable, isResettable := r.client.(interface{ Reset() }); isResettable {
		resettable.Reset()
	}

	ctx, span := tracer.Start(ctx, "recognize audio")
	defer span.End()

	transcript, err := r.client.Transcribe(ctx, sampleRate, samples)
	if err != nil {
		logger.Warn("recognition failed, treating as silence", slog.Any("error", err))
		return ""
	}

	return strings.TrimSpace(transcript)
}

// normalizePeak rescales the buffer so its peak lands inside the
// [normalizeLow, normalizeHigh] band. Buffers under the amplitude floor are
// rejected outright.
func normalizePeak(samples []float32) ([]float32, bool) {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}

	if peak < amplitudeFloor {
		return nil, false
	}

	var scale float32
	switch {
	case peak < normalizeLow:
		scale = normalizeLow / peak
	case peak > normalizeHigh:
		scale = normalizeHigh / peak
	default:
		return samples, true
	}

	scaled := make([]float32, len(samples))
	for i, s := range samples {
		scaled[i] = s * scale
	}
	return scaled, true
}
