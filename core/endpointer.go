package orchestration

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tomazic/vela-core/core/audio"
	"github.com/tomazic/vela-core/core/events"
)

// endpointerConfig tunes the energy/silence turn-ending heuristic.
type endpointerConfig struct {
	// speechThreshold is the peak amplitude (fraction of full scale) above
	// which a capture window counts as speech.
	speechThreshold float32
	// minSpeechWindows is how many accumulated speech windows a silence
	// window needs before the buffer is flushed to recognition.
	minSpeechWindows int
	// meaningfulSilenceWindows ends the turn once meaningful content exists
	// (fast path).
	meaningfulSilenceWindows int
	// emptySilenceWindows ends the turn when nothing meaningful was heard.
	emptySilenceWindows int
	// conversationTimeout is the absolute cap on silence since the last
	// speech window.
	conversationTimeout time.Duration
	// questionMarkers make an utterance meaningful regardless of length.
	questionMarkers []string
	// endPhrases end the turn when found in the last two utterances.
	endPhrases []string
	// minMeaningfulRunes makes any utterance of at least this trimmed length
	// meaningful.
	minMeaningfulRunes int
}

// endpointer accumulates speech windows between silences and decides when a
// conversational turn has ended. Owned by the control loop.
type endpointer struct {
	config  endpointerConfig
	pending []audio.Window
}

func newEndpointer(config endpointerConfig) *endpointer {
	return &endpointer{config: config}
}

func (e *endpointer) reset() {
	e.pending = nil
}

// isSpeech classifies a capture window by peak amplitude.
func (e *endpointer) isSpeech(window audio.Window) bool {
	return window.Peak() > e.config.speechThreshold
}

// push accumulates a speech window for later recognition.
func (e *endpointer) push(window audio.Window) {
	e.pending = append(e.pending, window)
}

func (e *endpointer) pendingWindows() int {
	return len(e.pending)
}

// flush concatenates and clears the accumulated windows if a silence window
// should trigger recognition (at least minSpeechWindows accumulated).
func (e *endpointer) flush() (samples []float32, sampleRate int, peak float32, ok bool) {
	if len(e.pending) < e.config.minSpeechWindows {
		return nil, 0, 0, false
	}
	return e.flushAll()
}

// flushAll concatenates and clears whatever is buffered, regardless of how
// little it is. Used when the turn ends so no captured audio is lost.
func (e *endpointer) flushAll() (samples []float32, sampleRate int, peak float32, ok bool) {
	if len(e.pending) == 0 {
		return nil, 0, 0, false
	}

	total := 0
	for _, window := range e.pending {
		total += len(window.Samples)
	}
	samples = make([]float32, 0, total)
	for _, window := range e.pending {
		samples = append(samples, window.Samples...)
	}
	sampleRate = e.pending[0].SampleRate
	peak = audio.Peak(samples)
	e.pending = nil
	return samples, sampleRate, peak, true
}

// meaningful reports whether recognized text looks like a complete question
// or statement: it contains an interrogative marker, or it is simply long
// enough to carry content.
func (e *endpointer) meaningful(text string) bool {
	folded := strings.ToLower(text)
	for _, marker := range e.config.questionMarkers {
		if strings.Contains(folded, strings.ToLower(marker)) {
			return true
		}
	}
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= e.config.minMeaningfulRunes
}

// endDecision evaluates the end-of-turn policy after a silence window.
// Rules are checked in priority order; the first match wins.
func (e *endpointer) endDecision(session *ConversationSession, now time.Time) (events.EndReason, bool) {
	if session.hasMeaningfulContent && session.silenceCount >= e.config.meaningfulSilenceWindows {
		return events.EndReasonMeaningfulSilence, true
	}

	if !session.hasMeaningfulContent && session.silenceCount >= e.config.emptySilenceWindows {
		return events.EndReasonEmptySilence, true
	}

	if recent := session.recentText(2); recent != "" {
		folded := strings.ToLower(recent)
		for _, phrase := range e.config.endPhrases {
			if strings.Contains(folded, strings.ToLower(phrase)) {
				return events.EndReasonEndPhrase, true
			}
		}
	}

	if !session.lastSpeechTime.IsZero() && now.Sub(session.lastSpeechTime) > e.config.conversationTimeout {
		return events.EndReasonTimeout, true
	}

	return "", false
}
