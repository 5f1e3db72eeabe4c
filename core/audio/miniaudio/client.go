// Package miniaudio provides capture and playback clients on top of the
// malgo (miniaudio) bindings. One Client owns the audio context; the capture
// side delivers fixed-length windows and the playback side plays buffers to
// completion.
package miniaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/tomazic/vela-core/core/audio"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient

	closeOnce sync.Once
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{audioContext: audioCtx}

	if err := client.playbackClient.Init(audioCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}
	if err := client.playbackClient.Start(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := client.captureClient.Init(audioCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}
	if err := client.captureClient.Start(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	return &client, nil
}

// ReadWindow blocks until one capture window is filled.
func (c *Client) ReadWindow(ctx context.Context) (audio.Window, error) {
	return c.captureClient.ReadWindow(ctx)
}

// Play plays the whole buffer and returns once the device has drained it.
func (c *Client) Play(ctx context.Context, samples []float32, sampleRate int) error {
	return c.playbackClient.Play(ctx, samples, sampleRate)
}

// Close releases both devices and the audio context. Safe to call more than
// once; the orchestrator closes capture and playback independently.
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		closeErr = errors.Join(
			c.captureClient.Uninit(),
			c.playbackClient.Uninit(),
			c.audioContext.Uninit(),
		)
		c.audioContext.Free()
	})
	return closeErr
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
