package orchestration

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/tomazic/vela-core/core/audio"
	"github.com/tomazic/vela-core/core/events"
	"github.com/tomazic/vela-core/core/synthesis"
)

func newTestPipeline(answerClient Answerer, synthesisClient Synthesizer, playbackClient PlaybackClient) (*pipelineRuntime, chan events.Event) {
	signals := make(chan events.Event, 16)
	pipeline := newPipelineRuntime(
		newAnswerer(answerClient, "sorry"),
		newSynthesizer(synthesisClient, ""),
		newAudioPlayer(playbackClient, 0),
		signals,
	)
	return pipeline, signals
}

func awaitEvent(t *testing.T, signals chan events.Event, kind events.Kind) events.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-signals:
			if event.Kind() == kind {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", kind)
		}
	}
}

func TestDuplicateQuestionIsAnsweredOnce(t *testing.T) {
	answerClient := &stubAnswerer{answer: "it is noon"}
	pipeline, signals := newTestPipeline(answerClient, &stubSynthesizer{}, &stubPlayback{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipeline.start(ctx)
	defer pipeline.close()

	pipeline.submitAnswer("what time is it")
	awaitEvent(t, signals, events.KindAnswerGenerated)

	pipeline.submitAnswer("what time is it")
	awaitEvent(t, signals, events.KindAnswerDropped)

	if got := answerClient.calls.Load(); got != 1 {
		t.Fatalf("expected the duplicate question to be answered once, got %d calls", got)
	}
}

func TestSynthesisFeedsSingleBufferToPlayback(t *testing.T) {
	playbackClient := &stubPlayback{}
	synthesisClient := &stubSynthesizer{
		chunks:     [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		sampleRate: audio.DefaultSampleRate,
	}
	pipeline, signals := newTestPipeline(&stubAnswerer{}, synthesisClient, playbackClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipeline.start(ctx)
	defer pipeline.close()

	pipeline.submitSynthesis("hello there")

	synthesized := awaitEvent(t, signals, events.KindSpeechSynthesized).(events.SpeechSynthesized)
	if synthesized.ChunkCount != 2 {
		t.Fatalf("expected 2 chunks reported, got %d", synthesized.ChunkCount)
	}

	awaitEvent(t, signals, events.KindPlaybackFinished)

	playbackClient.mu.Lock()
	defer playbackClient.mu.Unlock()
	if len(playbackClient.played) != 1 {
		t.Fatalf("expected one playback call, got %d", len(playbackClient.played))
	}
	if len(playbackClient.played[0]) != 4 {
		t.Fatalf("expected all chunks in one buffer, got %d samples", len(playbackClient.played[0]))
	}
}

func TestSynthesisFailureEmitsEventWithoutPlayback(t *testing.T) {
	playbackClient := &stubPlayback{}
	pipeline, signals := newTestPipeline(&stubAnswerer{}, &stubSynthesizer{err: errors.New("no audio")}, playbackClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipeline.start(ctx)
	defer pipeline.close()

	pipeline.submitSynthesis("hello there")
	awaitEvent(t, signals, events.KindSynthesisFailed)

	if playbackClient.playedCount() != 0 {
		t.Fatalf("expected no playback after synthesis failure")
	}
}

// lengthSynthesizer yields one chunk whose sample count equals the input
// text length, so played buffers identify which submission produced them.
type lengthSynthesizer struct{}

func (lengthSynthesizer) Synthesize(_ context.Context, text string, _ ...synthesis.Option) (iter.Seq2[synthesis.Chunk, error], error) {
	samples := make([]float32, len(text))
	return func(yield func(synthesis.Chunk, error) bool) {
		yield(synthesis.Chunk{Samples: samples, SampleRate: audio.DefaultSampleRate}, nil)
	}, nil
}

func TestNewerAudioSupersedesPendingPlayback(t *testing.T) {
	playbackClient := &stubPlayback{delay: 300 * time.Millisecond}
	pipeline, signals := newTestPipeline(&stubAnswerer{}, lengthSynthesizer{}, playbackClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipeline.start(ctx)

	pipeline.submitSynthesis("a")
	awaitEvent(t, signals, events.KindPlaybackStarted)

	// Both land while the first buffer is still playing; the newest replaces
	// the pending one in the mailbox before the playback worker gets to it.
	pipeline.submitSynthesis("bb")
	pipeline.submitSynthesis("ccc")
	awaitEvent(t, signals, events.KindSpeechSynthesized)
	awaitEvent(t, signals, events.KindSpeechSynthesized)

	awaitEvent(t, signals, events.KindPlaybackFinished)
	awaitEvent(t, signals, events.KindPlaybackFinished)
	pipeline.close()

	playbackClient.mu.Lock()
	defer playbackClient.mu.Unlock()
	if got := len(playbackClient.played); got != 2 {
		t.Fatalf("expected two playbacks out of three submissions, got %d", got)
	}
	if got := len(playbackClient.played[0]); got != 1 {
		t.Fatalf("expected the first submission to play first, got %d samples", got)
	}
	if got := len(playbackClient.played[1]); got != 3 {
		t.Fatalf("expected the newest submission to supersede the pending one, got %d samples", got)
	}
}
