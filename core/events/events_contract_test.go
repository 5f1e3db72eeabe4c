package events

import (
	"errors"
	"testing"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "wake detected", event: NewWakeDetected("hey vela"), expected: KindWakeDetected},
		{name: "state changed", event: NewStateChanged("wake_idle", "greeting_speaking"), expected: KindStateChanged},
		{name: "turn ended", event: NewTurnEnded("what time is it", EndReasonMeaningfulSilence), expected: KindTurnEnded},
		{name: "utterance captured", event: NewUtteranceCaptured("hello", 0.2), expected: KindUtteranceCaptured},
		{name: "answer generated", event: NewAnswerGenerated("q", "a"), expected: KindAnswerGenerated},
		{name: "answer dropped", event: NewAnswerDropped("q"), expected: KindAnswerDropped},
		{name: "speech synthesized", event: NewSpeechSynthesized(3), expected: KindSpeechSynthesized},
		{name: "synthesis failed", event: NewSynthesisFailed(errors.New("boom")), expected: KindSynthesisFailed},
		{name: "playback started", event: NewPlaybackStarted("id"), expected: KindPlaybackStarted},
		{name: "playback finished", event: NewPlaybackFinished("id"), expected: KindPlaybackFinished},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestEventsCarryTimestamps(t *testing.T) {
	event := NewTurnEnded("", EndReasonEmptySilence)
	if event.Timestamp().IsZero() {
		t.Fatalf("expected a non-zero timestamp")
	}
}
