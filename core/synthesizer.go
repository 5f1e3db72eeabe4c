package orchestration

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tomazic/vela-core/core/synthesis"
)

// synthesizer wraps the synthesis gateway and fully drains its finite chunk
// sequence into one contiguous buffer. Partial chunks are never exposed so a
// single playback task covers the whole answer; per-chunk playback causes
// audible discontinuities that can retrigger endpointing.
type synthesizer struct {
	client       Synthesizer
	languageHint string
}

func newSynthesizer(client Synthesizer, languageHint string) *synthesizer {
	return &synthesizer{client: client, languageHint: languageHint}
}

func (s *synthesizer) set(client Synthesizer) {
	if s != nil {
		s.client = client
	}
}

func (s *synthesizer) isConfigured() bool {
	return s != nil && s.client != nil
}

// Synthesize converts text into one concatenated PCM buffer, reporting how
// many gateway chunks went into it.
func (s *synthesizer) Synthesize(ctx context.Context, text string) (samples []float32, sampleRate int, chunkCount int, err error) {
	if !s.isConfigured() {
		return nil, 0, 0, fmt.Errorf("no synthesis gateway configured")
	}

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()

	chunks, err := s.client.Synthesize(ctx, text, synthesis.WithLanguageHint(s.languageHint))
	if err != nil {
		return nil, 0, 0, recordError(ctx, fmt.Errorf("failed to open synthesis stream: %w", err))
	}

	for chunk, chunkErr := range chunks {
		if chunkErr != nil {
			return nil, 0, 0, recordError(ctx, fmt.Errorf("synthesis stream failed: %w", chunkErr))
		}
		if len(chunk.Samples) == 0 {
			continue
		}
		if sampleRate == 0 {
			sampleRate = chunk.SampleRate
		}
		samples = append(samples, chunk.Samples...)
		chunkCount++
	}

	if chunkCount == 0 {
		return nil, 0, 0, recordError(ctx, fmt.Errorf("synthesis produced no audio"))
	}

	return samples, sampleRate, chunkCount, nil
}

// recordError marks the active span failed and passes the error through.
func recordError(ctx context.Context, err error) error {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
