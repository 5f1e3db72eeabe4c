package orchestration

import (
	"context"
	"testing"

	"github.com/tomazic/vela-core/core/audio"
)

func TestRecognizeRejectsShortBuffers(t *testing.T) {
	client := &scriptedRecognizer{transcripts: []string{"should not be reached"}}
	r := newRecognizer(client)

	short := make([]float32, audio.DefaultSampleRate/2)
	for i := range short {
		short[i] = 0.5
	}

	if got := r.Recognize(context.Background(), audio.DefaultSampleRate, short); got != "" {
		t.Fatalf("expected sub-second buffer to be rejected, got %q", got)
	}
	if client.calls.Load() != 0 {
		t.Fatalf("expected the gateway not to be called for short buffers")
	}
}

func TestRecognizeRejectsBuffersBelowAmplitudeFloor(t *testing.T) {
	client := &scriptedRecognizer{transcripts: []string{"should not be reached"}}
	r := newRecognizer(client)

	quiet := make([]float32, audio.DefaultSampleRate)
	for i := range quiet {
		quiet[i] = 0.001
	}

	if got := r.Recognize(context.Background(), audio.DefaultSampleRate, quiet); got != "" {
		t.Fatalf("expected near-silent buffer to be rejected, got %q", got)
	}
	if client.calls.Load() != 0 {
		t.Fatalf("expected the gateway not to be called for silent buffers")
	}
}

func TestRecognizeResetsPooledClients(t *testing.T) {
	client := &scriptedRecognizer{transcripts: []string{"hello there"}}
	r := newRecognizer(client)

	loud := make([]float32, audio.DefaultSampleRate)
	for i := range loud {
		loud[i] = 0.5
	}

	if got := r.Recognize(context.Background(), audio.DefaultSampleRate, loud); got != "hello there" {
		t.Fatalf("expected transcript to pass through, got %q", got)
	}
	if client.resets.Load() != 1 {
		t.Fatalf("expected exactly one reset before transcription, got %d", client.resets.Load())
	}
}

func TestNormalizePeakRescalesIntoBand(t *testing.T) {
	quiet := make([]float32, 4)
	for i := range quiet {
		quiet[i] = 0.02
	}
	scaled, ok := normalizePeak(quiet)
	if !ok {
		t.Fatalf("expected quiet-but-audible buffer to be accepted")
	}
	if peak := audio.Peak(scaled); peak < normalizeLow-0.001 || peak > normalizeLow+0.001 {
		t.Fatalf("expected quiet buffer scaled up to %f, got peak %f", normalizeLow, peak)
	}

	loud := make([]float32, 4)
	for i := range loud {
		loud[i] = 0.95
	}
	scaled, ok = normalizePeak(loud)
	if !ok {
		t.Fatalf("expected loud buffer to be accepted")
	}
	if peak := audio.Peak(scaled); peak < normalizeHigh-0.001 || peak > normalizeHigh+0.001 {
		t.Fatalf("expected loud buffer scaled down to %f, got peak %f", normalizeHigh, peak)
	}

	inBand := []float32{0.3, -0.4, 0.2}
	scaled, ok = normalizePeak(inBand)
	if !ok {
		t.Fatalf("expected in-band buffer to be accepted")
	}
	if audio.Peak(scaled) != 0.4 {
		t.Fatalf("expected in-band buffer to pass through unscaled, got peak %f", audio.Peak(scaled))
	}

	if _, ok := normalizePeak(make([]float32, 4)); ok {
		t.Fatalf("expected all-zero buffer to be rejected")
	}
}

func TestUnconfiguredRecognizerReturnsEmpty(t *testing.T) {
	r := newRecognizer(nil)

	loud := make([]float32, audio.DefaultSampleRate)
	loud[0] = 0.5

	if got := r.Recognize(context.Background(), audio.DefaultSampleRate, loud); got != "" {
		t.Fatalf("expected unconfigured recognizer to return empty, got %q", got)
	}
}
