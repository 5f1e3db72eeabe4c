package orchestration

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// Utterance is one recognized piece of user speech. Immutable once appended
// to a session.
type Utterance struct {
	Text      string
	PeakLevel float32
	Timestamp time.Time
}

// ConversationSession is the per-turn conversational memory. It is created on
// wake detection, cleared on return to idle, and owned exclusively by the
// control loop; nothing else ever writes it.
type ConversationSession struct {
	ID string

	utterances    []Utterance
	maxUtterances int

	silenceCount         int
	hasMeaningfulContent bool
	lastSpeechTime       time.Time
}

func newConversationSession(maxUtterances int) *ConversationSession {
	if maxUtterances <= 0 {
		maxUtterances = defaultMaxUtterances
	}
	return &ConversationSession{
		ID:            uuid.NewString(),
		maxUtterances: maxUtterances,
	}
}

// reset drops accumulated utterances and counters but keeps the session ID.
// Used when conversation listening (re)starts after the greeting.
func (s *ConversationSession) reset() {
	s.utterances = nil
	s.silenceCount = 0
	s.hasMeaningfulContent = false
	s.lastSpeechTime = time.Time{}
}

// markSpeech records that a speech window arrived.
func (s *ConversationSession) markSpeech(at time.Time) {
	s.silenceCount = 0
	s.lastSpeechTime = at
}

// markSilence records a silence window and returns the new count.
func (s *ConversationSession) markSilence() int {
	s.silenceCount++
	return s.silenceCount
}

// append stores a recognized utterance, discarding the oldest one once the
// bound is reached.
func (s *ConversationSession) append(utterance Utterance) {
	s.utterances = append(s.utterances, utterance)
	if len(s.utterances) > s.maxUtterances {
		s.utterances = s.utterances[len(s.utterances)-s.maxUtterances:]
	}
}

// question joins all collected utterances in insertion order.
func (s *ConversationSession) question() string {
	parts := make([]string, 0, len(s.utterances))
	for _, utterance := range s.utterances {
		parts = append(parts, utterance.Text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// recentText joins the last n utterances, oldest first.
func (s *ConversationSession) recentText(n int) string {
	if n > len(s.utterances) {
		n = len(s.utterances)
	}
	parts := make([]string, 0, n)
	for _, utterance := range s.utterances[len(s.utterances)-n:] {
		parts = append(parts, utterance.Text)
	}
	return strings.Join(parts, " ")
}

// SessionSnapshot is a point-in-time copy of a session, safe to hand to
// observers outside the control loop.
type SessionSnapshot struct {
	ID                   string
	Utterances           []Utterance
	SilenceCount         int
	HasMeaningfulContent bool
	LastSpeechTime       time.Time
}

// Snapshot deep-copies the session state.
func (s *ConversationSession) Snapshot() SessionSnapshot {
	if s == nil {
		return SessionSnapshot{}
	}

	snapshot := SessionSnapshot{
		ID:                   s.ID,
		SilenceCount:         s.silenceCount,
		HasMeaningfulContent: s.hasMeaningfulContent,
		LastSpeechTime:       s.lastSpeechTime,
	}
	// copier keeps the snapshot detached from the live utterance slice.
	_ = copier.CopyWithOption(&snapshot.Utterances, &s.utterances, copier.Option{DeepCopy: true})
	return snapshot
}
