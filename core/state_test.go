package orchestration

import "testing"

func TestTurnCycleTransitions(t *testing.T) {
	machine := newStateMachine()

	steps := []TurnState{
		StateGreetingSpeaking,
		StateConversationListening,
		StateAnswerProcessing,
		StateAnswerSpeaking,
		StateWakeIdle,
	}
	for _, to := range steps {
		if _, ok := machine.transition(to); !ok {
			t.Fatalf("expected transition to %s from %s to be valid", to, machine.state())
		}
	}
	if machine.state() != StateWakeIdle {
		t.Fatalf("expected full cycle to return to wake idle, got %s", machine.state())
	}
}

func TestInvalidTransitionLeavesStateUnchanged(t *testing.T) {
	machine := newStateMachine()

	if _, ok := machine.transition(StateAnswerSpeaking); ok {
		t.Fatalf("expected wake idle to refuse jumping straight to answer speaking")
	}
	if machine.state() != StateWakeIdle {
		t.Fatalf("expected refused transition to leave state unchanged, got %s", machine.state())
	}
}

func TestEveryStateAbortsToWakeIdleExceptIdleItself(t *testing.T) {
	for _, from := range []TurnState{
		StateGreetingSpeaking,
		StateConversationListening,
		StateAnswerProcessing,
		StateAnswerSpeaking,
	} {
		if !validTransition(from, StateWakeIdle) {
			t.Errorf("expected %s to be able to abort to wake idle", from)
		}
	}
	if validTransition(StateWakeIdle, StateWakeIdle) {
		t.Errorf("expected self transition on wake idle to be invalid")
	}
}

func TestListeningPredicatesAreMutuallyExclusive(t *testing.T) {
	for _, state := range []TurnState{
		StateWakeIdle,
		StateGreetingSpeaking,
		StateConversationListening,
		StateAnswerProcessing,
		StateAnswerSpeaking,
	} {
		if state.IsListeningForWake() && state.IsInConversation() {
			t.Errorf("state %s is both listening for wake and in conversation", state)
		}
		if state.IsSpeaking() && (state.IsListeningForWake() || state.IsInConversation()) {
			t.Errorf("state %s is speaking while also listening", state)
		}
	}
}
