// Package portaudio provides a capture client on top of the PortAudio
// bindings, for hosts where miniaudio is unavailable. ReadWindow performs
// blocking stream reads on the caller's goroutine until a full window is
// assembled.
package portaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/tomazic/vela-core/core/audio"
)

// framesPerBuffer is the PortAudio read granularity (~30ms at 16 kHz).
const framesPerBuffer = 512

type Client struct {
	stream  *portaudio.Stream
	in      []int16
	pending []float32

	mu     sync.Mutex
	closed bool
}

func NewClient() (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, framesPerBuffer, in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	return &Client{stream: stream, in: in}, nil
}

// ReadWindow blocks until one full capture window has been read from the
// device. The context is checked between device reads, so cancellation takes
// effect within one read buffer.
func (c *Client) ReadWindow(ctx context.Context) (audio.Window, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return audio.Window{}, fmt.Errorf("portaudio client closed")
	}

	for len(c.pending) < audio.DefaultWindowSamples {
		select {
		case <-ctx.Done():
			return audio.Window{}, ctx.Err()
		default:
		}

		if err := c.stream.Read(); err != nil {
			return audio.Window{}, fmt.Errorf("failed to read from portaudio stream: %w", err)
		}
		for _, sample := range c.in {
			c.pending = append(c.pending, float32(sample)/32768)
		}
	}

	window := audio.Window{
		Samples:    append([]float32(nil), c.pending[:audio.DefaultWindowSamples]...),
		SampleRate: audio.DefaultSampleRate,
	}
	c.pending = c.pending[audio.DefaultWindowSamples:]
	return window, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	err := c.stream.Close()
	if termErr := portaudio.Terminate(); err == nil {
		err = termErr
	}
	return err
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
