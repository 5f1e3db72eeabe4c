package orchestration

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tomazic/vela-core/core/audio"
)

// audioPlayer wraps a playback client with the two behaviours every playback
// needs: a Playing flag that other goroutines may read (single writer: the
// playback worker), and the fixed post-playback decay delay that lets room
// acoustic energy dissipate before the microphone is trusted again.
type audioPlayer struct {
	client     PlaybackClient
	decayDelay time.Duration

	playing atomic.Bool
}

func newAudioPlayer(client PlaybackClient, decayDelay time.Duration) *audioPlayer {
	return &audioPlayer{client: client, decayDelay: decayDelay}
}

func (p *audioPlayer) set(client PlaybackClient) {
	if p != nil {
		p.client = client
	}
}

func (p *audioPlayer) isConfigured() bool {
	return p != nil && p.client != nil
}

// Playing reports whether audio output is audible or decaying.
func (p *audioPlayer) Playing() bool {
	return p != nil && p.playing.Load()
}

// Play plays one concatenated buffer to completion and holds the Playing
// flag through the decay delay. Playback failures are logged and treated as
// no-ops for state purposes.
func (p *audioPlayer) Play(ctx context.Context, samples []float32, sampleRate int) {
	if !p.isConfigured() || len(samples) == 0 {
		return
	}

	p.playing.Store(true)
	defer p.playing.Store(false)

	ctx, span := tracer.Start(ctx, "play audio")
	defer span.End()

	if err := p.client.Play(ctx, samples, sampleRate); err != nil {
		logger.Warn("playback failed",
			slog.Any("error", err),
			slog.Duration("duration", audio.Duration(len(samples), sampleRate)),
		)
	}

	// Decay guard band: fixed, not adaptive to room acoustics.
	select {
	case <-ctx.Done():
	case <-time.After(p.decayDelay):
	}
}

func (p *audioPlayer) close() error {
	if !p.isConfigured() {
		return nil
	}
	return p.client.Close()
}
