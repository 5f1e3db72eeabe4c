package orchestration

import (
	"context"
	"log/slog"

	"github.com/tomazic/vela-core/core/audio"
)

// capture wraps the audio input client used by the control loop. Transient
// device errors (busy, timeout) drop the window and keep listening.
type capture struct {
	client AudioCapture
}

func newCapture(client AudioCapture) *capture {
	return &capture{client: client}
}

func (c *capture) set(client AudioCapture) {
	if c != nil {
		c.client = client
	}
}

func (c *capture) isConfigured() bool {
	return c != nil && c.client != nil
}

// ReadWindow blocks until one fixed-duration window is captured. ok is false
// when no window is available (unconfigured input, cancelled context, or a
// transient device error).
func (c *capture) ReadWindow(ctx context.Context) (audio.Window, bool) {
	if !c.isConfigured() {
		return audio.Window{}, false
	}

	window, err := c.client.ReadWindow(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("capture window dropped", slog.Any("error", err))
		}
		return audio.Window{}, false
	}
	if len(window.Samples) == 0 || window.SampleRate <= 0 {
		return audio.Window{}, false
	}

	return window, true
}

// drain discards windows the input client buffered while playback was
// audible, when the client supports it. Device clients with a window queue
// would otherwise hand the assistant's own echo back as user speech.
func (c *capture) drain() {
	if client, ok := c.client.(interface{ Drain() }); ok {
		client.Drain()
	}
}

// encoding reports the client's capture encoding when it exposes one.
func (c *capture) encoding() (audio.EncodingInfo, bool) {
	client, ok := c.client.(interface{ EncodingInfo() audio.EncodingInfo })
	if !ok {
		return audio.EncodingInfo{}, false
	}
	info := client.EncodingInfo()
	return info, !info.IsZero()
}

func (c *capture) close() error {
	if !c.isConfigured() {
		return nil
	}
	return c.client.Close()
}
