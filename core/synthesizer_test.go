package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/tomazic/vela-core/core/audio"
)

func TestSynthesizeConcatenatesAllChunks(t *testing.T) {
	client := &stubSynthesizer{
		chunks:     [][]float32{{0.1, 0.2}, {0.3}, {0.4, 0.5, 0.6}},
		sampleRate: audio.DefaultSampleRate,
	}
	s := newSynthesizer(client, "")

	samples, sampleRate, chunkCount, err := s.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunkCount != 3 {
		t.Fatalf("expected 3 chunks, got %d", chunkCount)
	}
	if len(samples) != 6 {
		t.Fatalf("expected all chunk samples concatenated, got %d", len(samples))
	}
	if sampleRate != audio.DefaultSampleRate {
		t.Fatalf("unexpected sample rate %d", sampleRate)
	}
}

func TestSynthesizeFailsOnEmptySequence(t *testing.T) {
	client := &stubSynthesizer{sampleRate: audio.DefaultSampleRate}
	s := newSynthesizer(client, "")

	if _, _, _, err := s.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatalf("expected an error when synthesis produces no audio")
	}
}

func TestSynthesizePropagatesGatewayError(t *testing.T) {
	client := &stubSynthesizer{err: errors.New("gateway down")}
	s := newSynthesizer(client, "")

	if _, _, _, err := s.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatalf("expected gateway error to propagate")
	}
}

func TestUnconfiguredSynthesizerFails(t *testing.T) {
	s := newSynthesizer(nil, "")

	if _, _, _, err := s.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error from unconfigured synthesizer")
	}
}
