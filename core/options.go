package orchestration

import (
	"context"
	"iter"
	"time"

	"github.com/tomazic/vela-core/core/audio"
	"github.com/tomazic/vela-core/core/events"
	"github.com/tomazic/vela-core/core/synthesis"
)

const (
	defaultWakePhrase = "hey vela"
	defaultGreeting   = "Hi! What can I help you with?"
	defaultApology    = "Sorry, I could not come up with an answer. Please try asking again."

	// defaultSpeechThreshold is the peak amplitude separating speech windows
	// from silence windows during conversation listening.
	defaultSpeechThreshold float32 = 0.03

	// defaultMinSpeechWindows is how much accumulated speech a silence window
	// needs before the buffer is worth sending to recognition.
	defaultMinSpeechWindows = 2

	// Consecutive silence windows that end the turn, depending on whether
	// meaningful content was already recognized.
	defaultMeaningfulSilenceWindows = 1
	defaultEmptySilenceWindows      = 2

	// defaultConversationTimeout caps how long a turn stays open without any
	// speech window at all.
	defaultConversationTimeout = 8 * time.Second

	// defaultDecayDelay keeps the microphone distrusted after playback ends,
	// long enough for room echo of the assistant's own voice to die down.
	defaultDecayDelay = 2 * time.Second

	defaultMinMeaningfulRunes = 3
	defaultMaxUtterances      = 20
)

func defaultQuestionMarkers() []string {
	return []string{
		"what", "who", "when", "where", "why", "how",
		"which", "can you", "could you", "do you", "is it", "are you", "?",
	}
}

func defaultEndPhrases() []string {
	return []string{
		"thank you", "thanks", "goodbye", "bye bye",
		"that's all", "that is all", "never mind", "we're done",
	}
}

type OrchestratorOption func(*Orchestrator)

// Recognizer turns a PCM buffer into text. The buffer is already normalized
// by the orchestrator; implementations only transcribe.
type Recognizer interface {
	Transcribe(ctx context.Context, sampleRate int, pcm []float32) (string, error)
}

func WithRecognitionClient(client Recognizer) OrchestratorOption {
	return func(o *Orchestrator) { o.recognizer.set(client) }
}

// Answerer produces the assistant's answer to a finished question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

func WithAnswerClient(client Answerer) OrchestratorOption {
	return func(o *Orchestrator) { o.answerer.set(client) }
}

// Synthesizer converts text to speech as a finite ordered chunk sequence.
// The sequence is fully drained before any audio plays.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...synthesis.Option) (iter.Seq2[synthesis.Chunk, error], error)
}

func WithSynthesisClient(client Synthesizer) OrchestratorOption {
	return func(o *Orchestrator) { o.synthesizer.set(client) }
}

// AudioCapture delivers fixed-duration microphone windows. ReadWindow blocks
// until a full window is available or the context is cancelled.
type AudioCapture interface {
	ReadWindow(ctx context.Context) (audio.Window, error)
	Close() error
}

func WithAudioCapture(client AudioCapture) OrchestratorOption {
	return func(o *Orchestrator) { o.capture.set(client) }
}

// PlaybackClient plays one contiguous PCM buffer to completion.
type PlaybackClient interface {
	Play(ctx context.Context, samples []float32, sampleRate int) error
	Close() error
}

func WithPlaybackClient(client PlaybackClient) OrchestratorOption {
	return func(o *Orchestrator) { o.player.set(client) }
}

// WithWakePhrase overrides the phrase that opens a conversation. Matching is
// case-insensitive substring over the wake-window transcript.
func WithWakePhrase(phrase string) OrchestratorOption {
	return func(o *Orchestrator) {
		if phrase != "" {
			o.config.wakePhrase = phrase
		}
	}
}

// WithGreeting overrides what the assistant says right after waking. An empty
// greeting skips straight to conversation listening.
func WithGreeting(greeting string) OrchestratorOption {
	return func(o *Orchestrator) { o.config.greeting = greeting }
}

// WithApology overrides the fallback spoken when answer generation fails.
func WithApology(apology string) OrchestratorOption {
	return func(o *Orchestrator) {
		if apology != "" {
			o.config.apology = apology
		}
	}
}

func WithSpeechThreshold(threshold float32) OrchestratorOption {
	return func(o *Orchestrator) {
		if threshold > 0 {
			o.config.speechThreshold = threshold
		}
	}
}

func WithConversationTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.config.conversationTimeout = timeout
		}
	}
}

// WithDecayDelay overrides how long the microphone stays distrusted after
// playback finishes.
func WithDecayDelay(delay time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if delay >= 0 {
			o.config.decayDelay = delay
		}
	}
}

// WithQuestionMarkers replaces the marker list that makes short utterances
// count as meaningful.
func WithQuestionMarkers(markers ...string) OrchestratorOption {
	return func(o *Orchestrator) { o.config.questionMarkers = markers }
}

// WithEndPhrases replaces the phrase list that ends a turn explicitly.
func WithEndPhrases(phrases ...string) OrchestratorOption {
	return func(o *Orchestrator) { o.config.endPhrases = phrases }
}

// WithLanguageHint forwards a language hint to the synthesis gateway.
func WithLanguageHint(languageHint string) OrchestratorOption {
	return func(o *Orchestrator) { o.config.languageHint = languageHint }
}

// WithMaxUtterances bounds per-turn conversational memory.
func WithMaxUtterances(max int) OrchestratorOption {
	return func(o *Orchestrator) {
		if max > 0 {
			o.config.maxUtterances = max
		}
	}
}

// orchestratorConfig collects the tunables shared by the control loop, the
// endpointer, and the pipeline workers. Fixed once Listen starts.
type orchestratorConfig struct {
	wakePhrase string
	greeting   string
	apology    string

	speechThreshold          float32
	minSpeechWindows         int
	meaningfulSilenceWindows int
	emptySilenceWindows      int
	conversationTimeout      time.Duration
	decayDelay               time.Duration
	questionMarkers          []string
	endPhrases               []string
	minMeaningfulRunes       int
	maxUtterances            int

	languageHint string
}

func defaultOrchestratorConfig() orchestratorConfig {
	return orchestratorConfig{
		wakePhrase:               defaultWakePhrase,
		greeting:                 defaultGreeting,
		apology:                  defaultApology,
		speechThreshold:          defaultSpeechThreshold,
		minSpeechWindows:         defaultMinSpeechWindows,
		meaningfulSilenceWindows: defaultMeaningfulSilenceWindows,
		emptySilenceWindows:      defaultEmptySilenceWindows,
		conversationTimeout:      defaultConversationTimeout,
		decayDelay:               defaultDecayDelay,
		questionMarkers:          defaultQuestionMarkers(),
		endPhrases:               defaultEndPhrases(),
		minMeaningfulRunes:       defaultMinMeaningfulRunes,
		maxUtterances:            defaultMaxUtterances,
	}
}

func (c orchestratorConfig) endpointerConfig() endpointerConfig {
	return endpointerConfig{
		speechThreshold:          c.speechThreshold,
		minSpeechWindows:         c.minSpeechWindows,
		meaningfulSilenceWindows: c.meaningfulSilenceWindows,
		emptySilenceWindows:      c.emptySilenceWindows,
		conversationTimeout:      c.conversationTimeout,
		questionMarkers:          c.questionMarkers,
		endPhrases:               c.endPhrases,
		minMeaningfulRunes:       c.minMeaningfulRunes,
	}
}

type ListenOptions struct {
	onStateChanged func(from, to TurnState)
	onWake         func(transcript string)
	onUtterance    func(utterance Utterance)
	onTurnEnded    func(question string, reason events.EndReason)
	onAnswer       func(question, answer string)
	onPlayback     func(playing bool)
	onEvent        func(event events.Event)
}

type ListenOption func(*ListenOptions)

// WithStateChangedCallback registers a callback for turn-state transitions.
// It runs inline on the control loop and should not block.
func WithStateChangedCallback(callback func(from, to TurnState)) ListenOption {
	return func(o *ListenOptions) {
		o.onStateChanged = callback
	}
}

// WithWakeCallback registers a callback for wake-phrase detections, receiving
// the transcript the phrase was found in.
func WithWakeCallback(callback func(transcript string)) ListenOption {
	return func(o *ListenOptions) {
		o.onWake = callback
	}
}

// WithUtteranceCallback registers a callback for each recognized utterance
// appended to the conversation.
func WithUtteranceCallback(callback func(utterance Utterance)) ListenOption {
	return func(o *ListenOptions) {
		o.onUtterance = callback
	}
}

// WithTurnEndedCallback registers a callback for end-of-turn decisions,
// receiving the assembled question and which rule ended the turn.
func WithTurnEndedCallback(callback func(question string, reason events.EndReason)) ListenOption {
	return func(o *ListenOptions) {
		o.onTurnEnded = callback
	}
}

// WithAnswerCallback registers a callback for generated answers.
func WithAnswerCallback(callback func(question, answer string)) ListenOption {
	return func(o *ListenOptions) {
		o.onAnswer = callback
	}
}

// WithPlaybackCallback registers a callback for playback start and finish.
func WithPlaybackCallback(callback func(playing bool)) ListenOption {
	return func(o *ListenOptions) {
		o.onPlayback = callback
	}
}

// WithEventCallback registers a callback for every event the orchestrator
// emits, in emission order. Useful for logging and replay.
func WithEventCallback(callback func(event events.Event)) ListenOption {
	return func(o *ListenOptions) {
		o.onEvent = callback
	}
}
