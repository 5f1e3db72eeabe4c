// Package orchestration coordinates a wake-phrase voice assistant turn:
// capturing microphone audio, detecting the wake phrase, accumulating the
// user's question, generating an answer, and speaking it back.
//
// All turn state lives in a single control loop; the answer, synthesis, and
// playback stages run as workers that communicate with the loop exclusively
// through events. Gateways (recognition, answers, synthesis, audio devices)
// are wired in through [OrchestratorOption] values.
package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomazic/vela-core/core/events"
)

// signalPollInterval bounds how long the control loop blocks on worker
// events before re-checking for shutdown.
const signalPollInterval = 100 * time.Millisecond

type Orchestrator struct {
	machine *stateMachine

	sessionMu  sync.Mutex
	session    *ConversationSession
	endpointer *endpointer

	capture     *capture
	recognizer  *recognizer
	answerer    *answerer
	synthesizer *synthesizer
	player      *audioPlayer

	pipeline *pipelineRuntime
	signals  chan events.Event

	config        orchestratorConfig
	listenOptions ListenOptions

	started   atomic.Bool
	closeOnce sync.Once
	closeCh   chan struct{}
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		machine:     newStateMachine(),
		capture:     newCapture(nil),
		recognizer:  newRecognizer(nil),
		answerer:    newAnswerer(nil, ""),
		synthesizer: newSynthesizer(nil, ""),
		player:      newAudioPlayer(nil, 0),
		signals:     make(chan events.Event, 16),
		config:      defaultOrchestratorConfig(),
		closeCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(o)
	}

	o.answerer.apology = o.config.apology
	o.synthesizer.languageHint = o.config.languageHint
	o.player.decayDelay = o.config.decayDelay
	o.endpointer = newEndpointer(o.config.endpointerConfig())
	o.pipeline = newPipelineRuntime(o.answerer, o.synthesizer, o.player, o.signals)

	return o
}

// Listen runs the capture/turn control loop until ctx is cancelled or Close
// is called. It blocks; run it on its own goroutine if the caller needs to
// keep working.
//
// Contract: call Listen at most once per orchestrator instance.
func (o *Orchestrator) Listen(ctx context.Context, opts ...ListenOption) error {
	if !o.started.CompareAndSwap(false, true) {
		return fmt.Errorf("orchestrator is already listening")
	}
	if !o.capture.isConfigured() {
		return fmt.Errorf("no audio capture configured")
	}
	if !o.recognizer.isConfigured() {
		return fmt.Errorf("no recognition gateway configured")
	}

	o.listenOptions = ListenOptions{}
	for _, opt := range opts {
		opt(&o.listenOptions)
	}

	ctx, span := tracer.Start(ctx, "listen")
	defer span.End()

	o.pipeline.start(ctx)
	defer close(withContextCancelHook(ctx, func() { o.Close() }))

	if info, ok := o.capture.encoding(); ok {
		logger.Debug("capture encoding",
			slog.String("format", info.Format.Name()),
			slog.Int("sampleRate", info.SampleRate),
		)
	}
	logger.Info("listening for wake phrase", slog.String("wakePhrase", o.config.wakePhrase))

	for {
		select {
		case <-o.closeCh:
			return nil
		default:
		}

		o.drainSignals()

		switch o.machine.state() {
		case StateWakeIdle:
			o.wakeStep(ctx)
		case StateConversationListening:
			o.conversationStep(ctx)
		default:
			// Speaking or waiting on a gateway; nothing to capture, so block
			// on worker events instead of spinning.
			o.awaitSignal()
		}
	}
}

// Close stops the control loop and the stage workers and releases the audio
// devices. Safe to call more than once and from any goroutine.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		close(o.closeCh)
		o.pipeline.close()

		if err := o.capture.close(); err != nil {
			logger.Warn("failed to close audio capture", slog.Any("error", err))
		}
		if err := o.player.close(); err != nil {
			logger.Warn("failed to close playback client", slog.Any("error", err))
		}
	})
}

// State returns the current turn state.
func (o *Orchestrator) State() TurnState {
	return o.machine.state()
}

// Session returns a snapshot of the current conversation, or a zero snapshot
// outside a conversation.
func (o *Orchestrator) Session() SessionSnapshot {
	o.sessionMu.Lock()
	defer o.sessionMu.Unlock()
	return o.session.Snapshot()
}

func (o *Orchestrator) IsListeningForWake() bool { return o.State().IsListeningForWake() }
func (o *Orchestrator) IsInConversation() bool   { return o.State().IsInConversation() }
func (o *Orchestrator) IsSpeaking() bool         { return o.State().IsSpeaking() }

// IsAudioPlaying reports whether audio output is audible or decaying. It can
// lag IsSpeaking: the state turns speaking as soon as synthesis is queued.
func (o *Orchestrator) IsAudioPlaying() bool { return o.player.Playing() }

// wakeStep captures one window and checks its transcript for the wake phrase.
// Windows captured while the assistant's own audio is audible are discarded,
// so playback can never wake the assistant.
func (o *Orchestrator) wakeStep(ctx context.Context) {
	window, ok := o.capture.ReadWindow(ctx)
	if !ok {
		return
	}
	if o.player.Playing() {
		return
	}
	if !o.endpointer.isSpeech(window) {
		return
	}

	transcript := o.recognizer.Recognize(ctx, window.SampleRate, window.Samples)
	if transcript == "" {
		return
	}
	if !containsFold(transcript, o.config.wakePhrase) {
		return
	}

	logger.Info("wake phrase detected", slog.String("transcript", transcript))
	o.notify(events.NewWakeDetected(transcript))
	if o.listenOptions.onWake != nil {
		o.listenOptions.onWake(transcript)
	}

	o.sessionMu.Lock()
	o.session = newConversationSession(o.config.maxUtterances)
	o.sessionMu.Unlock()
	o.endpointer.reset()

	if !o.setState(StateGreetingSpeaking) {
		return
	}
	if o.config.greeting == "" {
		o.setState(StateConversationListening)
		return
	}
	if !o.pipeline.submitSynthesis(o.config.greeting) {
		o.dropSession()
		o.setState(StateWakeIdle)
	}
}

// conversationStep captures one window and feeds the endpointing heuristic:
// speech windows accumulate, silence windows trigger recognition of the
// accumulated buffer and the end-of-turn decision.
func (o *Orchestrator) conversationStep(ctx context.Context) {
	window, ok := o.capture.ReadWindow(ctx)
	if !ok {
		return
	}
	if o.player.Playing() {
		return
	}

	now := time.Now()

	o.sessionMu.Lock()
	defer o.sessionMu.Unlock()

	if o.endpointer.isSpeech(window) {
		o.endpointer.push(window)
		o.session.markSpeech(now)
		return
	}

	if samples, sampleRate, peak, flushed := o.endpointer.flush(); flushed {
		o.recognizeUtterance(ctx, samples, sampleRate, peak)
	}

	o.session.markSilence()
	if reason, ended := o.endpointer.endDecision(o.session, now); ended {
		o.endTurn(ctx, reason)
	}
}

// recognizeUtterance transcribes a flushed buffer and appends the result to
// the session. Empty transcripts are indistinguishable from silence.
// Caller holds sessionMu.
func (o *Orchestrator) recognizeUtterance(ctx context.Context, samples []float32, sampleRate int, peak float32) {
	text := o.recognizer.Recognize(ctx, sampleRate, samples)
	if text == "" {
		return
	}

	utterance := Utterance{Text: text, PeakLevel: peak, Timestamp: time.Now()}
	o.session.append(utterance)
	if o.endpointer.meaningful(text) {
		o.session.hasMeaningfulContent = true
	}

	logger.Info("utterance captured", slog.String("text", text))
	o.notify(events.NewUtteranceCaptured(text, peak))
	if o.listenOptions.onUtterance != nil {
		o.listenOptions.onUtterance(utterance)
	}
}

// endTurn closes conversation listening: any remaining buffered audio is
// recognized so trailing speech is not lost, then the assembled question is
// handed to the answer worker. An empty question returns straight to idle.
// Caller holds sessionMu.
func (o *Orchestrator) endTurn(ctx context.Context, reason events.EndReason) {
	if samples, sampleRate, peak, flushed := o.endpointer.flushAll(); flushed {
		o.recognizeUtterance(ctx, samples, sampleRate, peak)
	}

	question := o.session.question()

	logger.Info("turn ended",
		slog.String("reason", string(reason)),
		slog.String("question", question),
	)
	o.notify(events.NewTurnEnded(question, reason))
	if o.listenOptions.onTurnEnded != nil {
		o.listenOptions.onTurnEnded(question, reason)
	}

	if question == "" {
		o.session = nil
		o.setState(StateWakeIdle)
		return
	}

	if !o.setState(StateAnswerProcessing) {
		return
	}
	if !o.pipeline.submitAnswer(question) {
		o.session = nil
		o.setState(StateWakeIdle)
	}
}

// drainSignals handles all pending worker events without blocking.
func (o *Orchestrator) drainSignals() {
	for {
		select {
		case event := <-o.signals:
			o.handleSignal(event)
		default:
			return
		}
	}
}

// awaitSignal blocks for one worker event, waking periodically to let the
// loop re-check for shutdown.
func (o *Orchestrator) awaitSignal() {
	select {
	case <-o.closeCh:
	case event := <-o.signals:
		o.handleSignal(event)
	case <-time.After(signalPollInterval):
	}
}

// handleSignal applies a worker event to the turn state. This is the only
// place worker progress changes state, which keeps the loop the single
// writer.
func (o *Orchestrator) handleSignal(event events.Event) {
	o.notify(event)

	switch event := event.(type) {
	case events.AnswerGenerated:
		if o.machine.state() != StateAnswerProcessing {
			return
		}
		if o.listenOptions.onAnswer != nil {
			o.listenOptions.onAnswer(event.Question, event.Answer)
		}
		if !o.setState(StateAnswerSpeaking) {
			return
		}
		if !o.pipeline.submitSynthesis(event.Answer) {
			o.dropSession()
			o.setState(StateWakeIdle)
		}

	case events.AnswerDropped:
		// The idempotence guard swallowed the question; resolve the turn
		// instead of waiting for an answer that will never come.
		if o.machine.state() == StateAnswerProcessing {
			o.dropSession()
			o.setState(StateWakeIdle)
		}

	case events.SynthesisFailed:
		// No audio to play; the turn ends silently.
		o.dropSession()
		o.setState(StateWakeIdle)

	case events.PlaybackStarted:
		if o.listenOptions.onPlayback != nil {
			o.listenOptions.onPlayback(true)
		}

	case events.PlaybackFinished:
		if o.listenOptions.onPlayback != nil {
			o.listenOptions.onPlayback(false)
		}
		// Windows buffered while the assistant was audible are its own echo.
		o.capture.drain()
		switch o.machine.state() {
		case StateGreetingSpeaking:
			o.sessionMu.Lock()
			if o.session != nil {
				o.session.reset()
			}
			o.sessionMu.Unlock()
			o.endpointer.reset()
			o.setState(StateConversationListening)
		case StateAnswerSpeaking:
			o.dropSession()
			o.setState(StateWakeIdle)
		}
	}
}

// setState transitions the turn state machine, reporting the change through
// the event callback. Invalid transitions are logged and refused.
func (o *Orchestrator) setState(to TurnState) bool {
	from, ok := o.machine.transition(to)
	if !ok {
		logger.Warn("refusing invalid state transition",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
		return false
	}

	o.notify(events.NewStateChanged(from.String(), to.String()))
	if o.listenOptions.onStateChanged != nil {
		o.listenOptions.onStateChanged(from, to)
	}
	return true
}

// dropSession clears the finished conversation so Session observers see
// nothing while the orchestrator is idle.
func (o *Orchestrator) dropSession() {
	o.sessionMu.Lock()
	o.session = nil
	o.sessionMu.Unlock()
}

// notify forwards an event to the catch-all event callback.
func (o *Orchestrator) notify(event events.Event) {
	if o.listenOptions.onEvent != nil {
		o.listenOptions.onEvent(event)
	}
}
