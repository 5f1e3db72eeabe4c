package events

// KindAnswerGenerated identifies a completed answer gateway call.
const KindAnswerGenerated Kind = "assistant.answer_generated"

// AnswerGenerated reports the answer text produced for a question. Answer is
// never empty; gateway failures degrade to a fixed apology before this event
// is emitted.
type AnswerGenerated struct {
	Base
	Question string
	Answer   string
}

// NewAnswerGenerated creates an answer generated event.
func NewAnswerGenerated(question, answer string) AnswerGenerated {
	return AnswerGenerated{Base: NewBase(KindAnswerGenerated), Question: question, Answer: answer}
}

// KindAnswerDropped identifies a deduplicated answer task.
const KindAnswerDropped Kind = "assistant.answer_dropped"

// AnswerDropped reports that a question identical to the immediately
// preceding processed one was discarded by the idempotence guard.
type AnswerDropped struct {
	Base
	Question string
}

// NewAnswerDropped creates an answer dropped event.
func NewAnswerDropped(question string) AnswerDropped {
	return AnswerDropped{Base: NewBase(KindAnswerDropped), Question: question}
}

// KindSpeechSynthesized identifies a completed synthesis gateway call.
const KindSpeechSynthesized Kind = "assistant.speech_synthesized"

// SpeechSynthesized reports that synthesis produced a single concatenated
// playback buffer out of ChunkCount gateway chunks.
type SpeechSynthesized struct {
	Base
	ChunkCount int
}

// NewSpeechSynthesized creates a speech synthesized event.
func NewSpeechSynthesized(chunkCount int) SpeechSynthesized {
	return SpeechSynthesized{Base: NewBase(KindSpeechSynthesized), ChunkCount: chunkCount}
}

// KindSynthesisFailed identifies a synthesis gateway failure.
const KindSynthesisFailed Kind = "assistant.synthesis_failed"

// SynthesisFailed reports that no audio could be produced for a turn; the
// turn ends without playback.
type SynthesisFailed struct {
	Base
	Err error
}

// NewSynthesisFailed creates a synthesis failed event.
func NewSynthesisFailed(err error) SynthesisFailed {
	return SynthesisFailed{Base: NewBase(KindSynthesisFailed), Err: err}
}

// KindPlaybackStarted identifies the start of physical audio output.
const KindPlaybackStarted Kind = "assistant.playback_started"

// PlaybackStarted reports that the playback worker began playing a buffer.
type PlaybackStarted struct {
	Base
	TaskID string
}

// NewPlaybackStarted creates a playback started event.
func NewPlaybackStarted(taskID string) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), TaskID: taskID}
}

// KindPlaybackFinished identifies the end of audio output, decay included.
const KindPlaybackFinished Kind = "assistant.playback_finished"

// PlaybackFinished reports that a playback task ran to completion and the
// post-playback decay delay elapsed. It fires for failed playback too, since
// failures are no-ops for state purposes.
type PlaybackFinished struct {
	Base
	TaskID string
}

// NewPlaybackFinished creates a playback finished event.
func NewPlaybackFinished(taskID string) PlaybackFinished {
	return PlaybackFinished{Base: NewBase(KindPlaybackFinished), TaskID: taskID}
}
