package orchestration

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomazic/vela-core/core/audio"
	"github.com/tomazic/vela-core/core/synthesis"
)

// scriptedRecognizer returns canned transcripts in order, then empty strings.
type scriptedRecognizer struct {
	mu          sync.Mutex
	transcripts []string
	resets      atomic.Int32
	calls       atomic.Int32
}

func (s *scriptedRecognizer) Transcribe(_ context.Context, _ int, _ []float32) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.transcripts) == 0 {
		return "", nil
	}
	transcript := s.transcripts[0]
	s.transcripts = s.transcripts[1:]
	return transcript, nil
}

func (s *scriptedRecognizer) Reset() { s.resets.Add(1) }

type stubAnswerer struct {
	answer string
	err    error
	calls  atomic.Int32
}

func (s *stubAnswerer) Answer(_ context.Context, _ string) (string, error) {
	s.calls.Add(1)
	return s.answer, s.err
}

type stubSynthesizer struct {
	chunks     [][]float32
	sampleRate int
	err        error
	calls      atomic.Int32
}

func (s *stubSynthesizer) Synthesize(_ context.Context, _ string, _ ...synthesis.Option) (iter.Seq2[synthesis.Chunk, error], error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	chunks := s.chunks
	sampleRate := s.sampleRate
	return func(yield func(synthesis.Chunk, error) bool) {
		for _, chunk := range chunks {
			if !yield(synthesis.Chunk{Samples: chunk, SampleRate: sampleRate}, nil) {
				return
			}
		}
	}, nil
}

type stubPlayback struct {
	mu     sync.Mutex
	played [][]float32
	delay  time.Duration
	err    error
}

func (s *stubPlayback) Play(_ context.Context, samples []float32, _ int) error {
	s.mu.Lock()
	s.played = append(s.played, samples)
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.err
}

func (s *stubPlayback) Close() error { return nil }

func (s *stubPlayback) playedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.played)
}

// scriptedCapture hands out prepared windows, then blocks until the context
// is cancelled.
type scriptedCapture struct {
	mu      sync.Mutex
	windows []audio.Window
}

func (s *scriptedCapture) ReadWindow(ctx context.Context) (audio.Window, error) {
	s.mu.Lock()
	if len(s.windows) > 0 {
		window := s.windows[0]
		s.windows = s.windows[1:]
		s.mu.Unlock()
		return window, nil
	}
	s.mu.Unlock()

	<-ctx.Done()
	return audio.Window{}, ctx.Err()
}

func (s *scriptedCapture) Close() error { return nil }

func (s *scriptedCapture) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

// drainingCapture mimics a device client with a window backlog: Drain
// discards everything still queued.
type drainingCapture struct {
	scriptedCapture
	drains atomic.Int32
}

func (d *drainingCapture) Drain() {
	d.drains.Add(1)
	d.mu.Lock()
	d.windows = nil
	d.mu.Unlock()
}

// windowWithPeak builds a one-second window whose peak amplitude is level.
func windowWithPeak(level float32) audio.Window {
	samples := make([]float32, audio.DefaultWindowSamples)
	for i := range samples {
		samples[i] = level / 2
	}
	samples[len(samples)/2] = level
	return audio.Window{Samples: samples, SampleRate: audio.DefaultSampleRate}
}
