package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/tomazic/vela-core/core/audio"
)

// windowQueueDepth bounds how many full capture windows can wait for a
// reader. The device callback drops the oldest window when the queue is
// full; stale audio is worthless for wake detection.
const windowQueueDepth = 4

type captureClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	pending []float32
	windows chan audio.Window

	mu sync.Mutex
}

func (c *captureClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(audio.DefaultSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Capture)
	c.config.SampleRate = sampleRate
	c.config.Capture.Format = format
	c.config.Capture.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PerformanceProfile = malgo.LowLatency
	c.config.PeriodSizeInFrames = 480
	c.config.Periods = 3

	c.audioContext = audioContext
	c.windows = make(chan audio.Window, windowQueueDepth)

	var err error
	c.device, err = malgo.InitDevice(c.audioContext.Context, c.config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			c.accumulate(audio.BytesToFloat32(pInput[:n]))
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return nil
}

// accumulate gathers device callback frames into fixed-length windows.
// Runs on the device thread, so it must not block.
func (c *captureClient) accumulate(samples []float32) {
	c.pending = append(c.pending, samples...)
	for len(c.pending) >= audio.DefaultWindowSamples {
		window := audio.Window{
			Samples:    append([]float32(nil), c.pending[:audio.DefaultWindowSamples]...),
			SampleRate: audio.DefaultSampleRate,
		}
		c.pending = c.pending[audio.DefaultWindowSamples:]

		select {
		case c.windows <- window:
		default:
			// Reader is behind; drop the oldest window to keep audio fresh.
			select {
			case <-c.windows:
			default:
			}
			select {
			case c.windows <- window:
			default:
			}
		}
	}
}

// ReadWindow blocks until a full window is available.
func (c *captureClient) ReadWindow(ctx context.Context) (audio.Window, error) {
	if c.device == nil {
		return audio.Window{}, fmt.Errorf("device not initialized")
	}

	select {
	case <-ctx.Done():
		return audio.Window{}, ctx.Err()
	case window := <-c.windows:
		return window, nil
	}
}

// Drain discards every buffered window. The orchestrator calls this after
// its own playback finishes so echo recorded meanwhile is never read back
// as user speech.
func (c *captureClient) Drain() {
	for {
		select {
		case <-c.windows:
		default:
			return
		}
	}
}

func (c *captureClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	return nil
}

func (c *captureClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return nil
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}

	return nil
}

func (c *captureClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	return nil
}
