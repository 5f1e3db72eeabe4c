package orchestration

import (
	"fmt"
	"testing"
	"time"
)

func TestSessionBoundsUtteranceMemory(t *testing.T) {
	session := newConversationSession(3)

	for i := range 5 {
		session.append(Utterance{Text: fmt.Sprintf("utterance %d", i), Timestamp: time.Now()})
	}

	if got := len(session.utterances); got != 3 {
		t.Fatalf("expected memory bounded to 3 utterances, got %d", got)
	}
	if session.utterances[0].Text != "utterance 2" {
		t.Fatalf("expected oldest utterances to be discarded, got %q first", session.utterances[0].Text)
	}
}

func TestQuestionJoinsUtterancesInOrder(t *testing.T) {
	session := newConversationSession(0)
	session.append(Utterance{Text: "what is", Timestamp: time.Now()})
	session.append(Utterance{Text: "the tallest mountain", Timestamp: time.Now()})

	if got := session.question(); got != "what is the tallest mountain" {
		t.Fatalf("unexpected question %q", got)
	}
}

func TestRecentTextCoversOnlyLastUtterances(t *testing.T) {
	session := newConversationSession(0)
	session.append(Utterance{Text: "one", Timestamp: time.Now()})
	session.append(Utterance{Text: "two", Timestamp: time.Now()})
	session.append(Utterance{Text: "three", Timestamp: time.Now()})

	if got := session.recentText(2); got != "two three" {
		t.Fatalf("expected the last two utterances, got %q", got)
	}
	if got := session.recentText(5); got != "one two three" {
		t.Fatalf("expected all utterances when asking for more than stored, got %q", got)
	}
}

func TestMarkSpeechResetsSilenceCount(t *testing.T) {
	session := newConversationSession(0)

	session.markSilence()
	session.markSilence()
	session.markSpeech(time.Now())

	if session.silenceCount != 0 {
		t.Fatalf("expected speech to reset silence count, got %d", session.silenceCount)
	}
}

func TestSnapshotIsDetachedFromLiveSession(t *testing.T) {
	session := newConversationSession(0)
	session.append(Utterance{Text: "original", Timestamp: time.Now()})

	snapshot := session.Snapshot()
	session.utterances[0].Text = "mutated"

	if len(snapshot.Utterances) != 1 || snapshot.Utterances[0].Text != "original" {
		t.Fatalf("expected snapshot to be detached from live utterances")
	}
	if snapshot.ID != session.ID {
		t.Fatalf("expected snapshot to carry the session id")
	}
}

func TestNilSessionSnapshotIsZero(t *testing.T) {
	var session *ConversationSession

	snapshot := session.Snapshot()
	if snapshot.ID != "" || len(snapshot.Utterances) != 0 {
		t.Fatalf("expected zero snapshot from nil session")
	}
}
