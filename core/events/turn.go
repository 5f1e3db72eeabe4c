package events

// KindWakeDetected identifies a recognized wake phrase.
const KindWakeDetected Kind = "turn.wake_detected"

// WakeDetected marks the transition out of idle listening. Transcript is the
// recognized text that contained the wake phrase.
type WakeDetected struct {
	Base
	Transcript string
}

// NewWakeDetected creates a wake detected event.
func NewWakeDetected(transcript string) WakeDetected {
	return WakeDetected{Base: NewBase(KindWakeDetected), Transcript: transcript}
}

// KindStateChanged identifies a turn state transition.
const KindStateChanged Kind = "turn.state_changed"

// StateChanged reports a completed turn state transition. From and To are the
// string forms of the turn states.
type StateChanged struct {
	Base
	From string
	To   string
}

// NewStateChanged creates a state changed event.
func NewStateChanged(from, to string) StateChanged {
	return StateChanged{Base: NewBase(KindStateChanged), From: from, To: to}
}

// KindTurnEnded identifies the end-of-turn decision.
const KindTurnEnded Kind = "turn.ended"

// EndReason names the end-of-turn policy rule that fired.
type EndReason string

const (
	EndReasonMeaningfulSilence EndReason = "meaningful_silence"
	EndReasonEmptySilence      EndReason = "empty_silence"
	EndReasonEndPhrase         EndReason = "end_phrase"
	EndReasonTimeout           EndReason = "timeout"
)

// TurnEnded reports that conversation listening finished. Question is the
// concatenated utterance text; it is empty when nothing was recognized.
type TurnEnded struct {
	Base
	Question string
	Reason   EndReason
}

// NewTurnEnded creates a turn ended event.
func NewTurnEnded(question string, reason EndReason) TurnEnded {
	return TurnEnded{Base: NewBase(KindTurnEnded), Question: question, Reason: reason}
}
