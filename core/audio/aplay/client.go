// Package aplay provides a playback client that shells out to a system audio
// player (aplay, paplay, or afplay). Buffers are written to a temporary WAV
// file and handed to the player, which keeps the process free of audio device
// bindings. Useful on headless Linux boxes where ALSA utilities are already
// installed.
package aplay

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tomazic/vela-core/core/audio"
)

// defaultPlayTimeout kills a wedged player process. Spoken answers are short;
// anything running this long is stuck.
const defaultPlayTimeout = 30 * time.Second

// players lists known command-line audio players in preference order.
var players = [][]string{
	{"aplay", "-q"},
	{"paplay"},
	{"afplay"},
}

type Client struct {
	command []string
	timeout time.Duration

	mu        sync.Mutex
	tempFiles map[string]struct{}
}

type Option func(*Client)

// WithCommand overrides player binary discovery, e.g. {"mpv", "--no-video"}.
func WithCommand(command ...string) Option {
	return func(c *Client) { c.command = command }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient locates a usable player binary on PATH.
func NewClient(opts ...Option) (*Client, error) {
	client := &Client{
		timeout:   defaultPlayTimeout,
		tempFiles: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.command == nil {
		for _, candidate := range players {
			if _, err := exec.LookPath(candidate[0]); err == nil {
				client.command = candidate
				break
			}
		}
	}
	if client.command == nil {
		return nil, fmt.Errorf("no audio player found, install aplay, paplay, or afplay")
	}

	return client, nil
}

// Play writes the buffer to a temporary WAV file and blocks until the player
// process exits or the timeout fires.
func (c *Client) Play(ctx context.Context, samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		return nil
	}

	path, err := c.writeTempWAV(samples, sampleRate)
	if err != nil {
		return err
	}
	defer c.removeTemp(path)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string(nil), c.command[1:]...), path)
	cmd := exec.CommandContext(ctx, c.command[0], args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("player timed out: %w", ctx.Err())
		}
		return fmt.Errorf("player failed: %w", err)
	}
	return nil
}

// Close removes any temporary files a crashed playback left behind.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for path := range c.tempFiles {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
		delete(c.tempFiles, path)
	}
	return firstErr
}

func (c *Client) writeTempWAV(samples []float32, sampleRate int) (string, error) {
	f, err := os.CreateTemp("", "vela-playback-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	c.mu.Lock()
	c.tempFiles[f.Name()] = struct{}{}
	c.mu.Unlock()

	encoder := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buffer := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, sample := range samples {
		buffer.Data[i] = int(audio.Float32ToInt16(sample))
	}

	if err := encoder.Write(buffer); err != nil {
		_ = encoder.Close()
		_ = f.Close()
		c.removeTemp(f.Name())
		return "", fmt.Errorf("failed to write wav data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		_ = f.Close()
		c.removeTemp(f.Name())
		return "", fmt.Errorf("failed to finalize wav file: %w", err)
	}
	if err := f.Close(); err != nil {
		c.removeTemp(f.Name())
		return "", fmt.Errorf("failed to close wav file: %w", err)
	}

	return f.Name(), nil
}

func (c *Client) removeTemp(path string) {
	_ = os.Remove(path)
	c.mu.Lock()
	delete(c.tempFiles, path)
	c.mu.Unlock()
}
