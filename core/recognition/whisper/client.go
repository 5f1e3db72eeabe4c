// Package whisper provides a fully local recognition gateway backed by the
// whisper.cpp bindings. The model is loaded once and kept resident; decoding
// contexts are recreated so no decoder state survives between calls.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// modelSampleRate is the only sample rate whisper.cpp accepts.
const modelSampleRate = 16000

type TranscriptionClient struct {
	language string
	threads  int

	mu    sync.Mutex
	model whisper.Model
	wctx  whisper.Context
}

type Option func(*TranscriptionClient)

// WithLanguage forces a transcription language ("en", "de", ...). The default
// "auto" lets the model detect it.
func WithLanguage(language string) Option {
	return func(c *TranscriptionClient) { c.language = language }
}

func WithThreads(threads int) Option {
	return func(c *TranscriptionClient) { c.threads = threads }
}

// NewTranscriptionClient loads the ggml model at modelPath and keeps it
// resident for the lifetime of the client.
func NewTranscriptionClient(modelPath string, opts ...Option) (*TranscriptionClient, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load whisper model: %w", err)
	}

	client := &TranscriptionClient{
		language: "auto",
		threads:  runtime.NumCPU(),
		model:    model,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Reset discards the cached decoding context so the next Transcribe starts
// from a completely fresh decoder. The loaded model is untouched.
func (c *TranscriptionClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wctx = nil
}

// Transcribe decodes a mono float32 buffer. Whisper only accepts 16 kHz
// input; other rates are rejected rather than resampled.
func (c *TranscriptionClient) Transcribe(ctx context.Context, sampleRate int, pcm []float32) (string, error) {
	if sampleRate != modelSampleRate {
		return "", fmt.Errorf("unsupported sample rate %d, whisper requires %d", sampleRate, modelSampleRate)
	}
	if len(pcm) == 0 {
		return "", errors.New("no audio samples provided")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == nil {
		return "", errors.New("transcription client closed")
	}

	if c.wctx == nil {
		wctx, err := c.model.NewContext()
		if err != nil {
			return "", fmt.Errorf("failed to create whisper context: %w", err)
		}
		if err := wctx.SetLanguage(c.language); err != nil {
			return "", fmt.Errorf("failed to set language: %w", err)
		}
		wctx.SetThreads(uint(c.threads))
		c.wctx = wctx
	}

	if err := c.wctx.Process(pcm, nil, nil, nil); err != nil {
		return "", fmt.Errorf("failed to process audio: %w", err)
	}

	var parts []string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		segment, err := c.wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read segment: %w", err)
		}
		parts = append(parts, segment.Text)
	}

	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

func (c *TranscriptionClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == nil {
		return nil
	}
	err := c.model.Close()
	c.model = nil
	c.wctx = nil
	return err
}
