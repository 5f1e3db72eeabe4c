package events

// KindUtteranceCaptured identifies a recognized utterance within a turn.
const KindUtteranceCaptured Kind = "user.utterance_captured"

// UtteranceCaptured carries one recognized utterance and the peak amplitude
// of the audio it was recognized from.
type UtteranceCaptured struct {
	Base
	Text      string
	PeakLevel float32
}

// NewUtteranceCaptured creates an utterance captured event.
func NewUtteranceCaptured(text string, peakLevel float32) UtteranceCaptured {
	return UtteranceCaptured{Base: NewBase(KindUtteranceCaptured), Text: text, PeakLevel: peakLevel}
}
