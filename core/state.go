package orchestration

import "sync/atomic"

// TurnState is the single conversational turn state. Exactly one state is
// active at any time, which makes the classic wake/conversation flag pairs
// (listening-for-wake vs. in-conversation, speaking vs. idle) derived values
// rather than independently writable booleans.
type TurnState int32

const (
	// StateWakeIdle listens for the wake phrase only.
	StateWakeIdle TurnState = iota
	// StateGreetingSpeaking plays the greeting after a wake match.
	StateGreetingSpeaking
	// StateConversationListening accumulates the user's question.
	StateConversationListening
	// StateAnswerProcessing waits for the answer gateway.
	StateAnswerProcessing
	// StateAnswerSpeaking plays the synthesized answer.
	StateAnswerSpeaking
)

func (s TurnState) String() string {
	switch s {
	case StateWakeIdle:
		return "wake_idle"
	case StateGreetingSpeaking:
		return "greeting_speaking"
	case StateConversationListening:
		return "conversation_listening"
	case StateAnswerProcessing:
		return "answer_processing"
	case StateAnswerSpeaking:
		return "answer_speaking"
	}
	return "unknown"
}

// IsListeningForWake reports whether the state captures microphone audio for
// wake detection.
func (s TurnState) IsListeningForWake() bool { return s == StateWakeIdle }

// IsInConversation reports whether the state captures microphone audio for
// question accumulation.
func (s TurnState) IsInConversation() bool { return s == StateConversationListening }

// IsSpeaking reports whether system speech for this state is queued for
// synthesis or audible. Capture is suppressed while true.
func (s TurnState) IsSpeaking() bool {
	return s == StateGreetingSpeaking || s == StateAnswerSpeaking
}

// stateMachine holds the current turn state. Only the control loop
// transitions it; workers request transitions by sending events. Reads may
// come from any goroutine, hence the atomic storage.
type stateMachine struct {
	current atomic.Int32
}

func newStateMachine() *stateMachine {
	machine := &stateMachine{}
	machine.current.Store(int32(StateWakeIdle))
	return machine
}

func (m *stateMachine) state() TurnState {
	return TurnState(m.current.Load())
}

// transition moves the machine to the requested state and reports whether the
// edge is part of the turn cycle. Invalid requests leave the state unchanged.
func (m *stateMachine) transition(to TurnState) (from TurnState, ok bool) {
	from = m.state()
	if !validTransition(from, to) {
		return from, false
	}

	m.current.Store(int32(to))
	return from, true
}

func validTransition(from, to TurnState) bool {
	switch from {
	case StateWakeIdle:
		return to == StateGreetingSpeaking
	case StateGreetingSpeaking:
		// A failed greeting synthesis skips conversation entirely.
		return to == StateConversationListening || to == StateWakeIdle
	case StateConversationListening:
		return to == StateAnswerProcessing || to == StateWakeIdle
	case StateAnswerProcessing:
		return to == StateAnswerSpeaking || to == StateWakeIdle
	case StateAnswerSpeaking:
		return to == StateWakeIdle
	}
	return false
}
