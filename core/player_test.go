package orchestration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomazic/vela-core/core/audio"
)

func TestPlayingStaysTrueThroughDecayDelay(t *testing.T) {
	client := &stubPlayback{}
	p := newAudioPlayer(client, 200*time.Millisecond)

	done := make(chan struct{})
	go func() {
		p.Play(context.Background(), []float32{0.1, 0.2}, audio.DefaultSampleRate)
		close(done)
	}()

	// Playback itself is instant here, so a flag observed mid-call means the
	// decay delay is holding it.
	time.Sleep(50 * time.Millisecond)
	if !p.Playing() {
		t.Fatalf("expected playing flag to hold through the decay delay")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for playback to finish")
	}
	if p.Playing() {
		t.Fatalf("expected playing flag to clear after decay")
	}
}

func TestPlaybackFailureIsTreatedAsCompletion(t *testing.T) {
	client := &stubPlayback{err: errors.New("device gone")}
	p := newAudioPlayer(client, 0)

	p.Play(context.Background(), []float32{0.1}, audio.DefaultSampleRate)

	if p.Playing() {
		t.Fatalf("expected playing flag cleared after failed playback")
	}
	if client.playedCount() != 1 {
		t.Fatalf("expected one playback attempt, got %d", client.playedCount())
	}
}

func TestPlayIgnoresEmptyBuffers(t *testing.T) {
	client := &stubPlayback{}
	p := newAudioPlayer(client, time.Hour)

	p.Play(context.Background(), nil, audio.DefaultSampleRate)

	if client.playedCount() != 0 {
		t.Fatalf("expected empty buffer to be skipped")
	}
}

func TestCancelledContextSkipsDecayDelay(t *testing.T) {
	client := &stubPlayback{}
	p := newAudioPlayer(client, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		p.Play(ctx, []float32{0.1}, audio.DefaultSampleRate)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected cancelled context to cut the decay delay short")
	}
}
