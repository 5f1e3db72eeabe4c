package orchestration

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tomazic/vela-core/core/events"
)

// pipelineQueueDepth bounds the answer and synthesis queues. Turns arrive at
// human speaking pace, so a small bound only matters when a gateway wedges;
// then submissions drop instead of stalling the control loop.
const pipelineQueueDepth = 4

type answerTask struct {
	question string
}

type synthesisTask struct {
	text string
}

type playbackTask struct {
	id         string
	samples    []float32
	sampleRate int
}

// pipelineRuntime runs the three stage workers: answer generation, speech
// synthesis, and playback. Stages hand off through bounded queues (playback
// through a superseding single-slot mailbox) and report progress exclusively
// as events on the orchestrator's signal channel; they never touch turn state
// themselves.
type pipelineRuntime struct {
	answerer    *answerer
	synthesizer *synthesizer
	player      *audioPlayer

	answerQueue    chan answerTask
	synthesisQueue chan synthesisTask
	mailbox        *playbackMailbox

	signals chan<- events.Event
	closeCh chan struct{}
	wg      sync.WaitGroup
}

func newPipelineRuntime(answerer *answerer, synthesizer *synthesizer, player *audioPlayer, signals chan<- events.Event) *pipelineRuntime {
	return &pipelineRuntime{
		answerer:       answerer,
		synthesizer:    synthesizer,
		player:         player,
		answerQueue:    make(chan answerTask, pipelineQueueDepth),
		synthesisQueue: make(chan synthesisTask, pipelineQueueDepth),
		mailbox:        newPlaybackMailbox(),
		signals:        signals,
		closeCh:        make(chan struct{}),
	}
}

func (p *pipelineRuntime) start(ctx context.Context) {
	p.wg.Add(3)
	go p.answerWorker(ctx)
	go p.synthesisWorker(ctx)
	go p.playbackWorker(ctx)
}

// close stops all workers and waits for them. In-flight playback finishes its
// decay delay only if the context is still alive.
func (p *pipelineRuntime) close() {
	select {
	case <-p.closeCh:
	default:
		close(p.closeCh)
	}
	p.wg.Wait()
}

// submitAnswer queues a question for answer generation. A full queue drops
// the submission rather than blocking the control loop.
func (p *pipelineRuntime) submitAnswer(question string) bool {
	select {
	case p.answerQueue <- answerTask{question: question}:
		return true
	default:
		logger.Warn("answer queue full, dropping question", slog.String("question", question))
		return false
	}
}

// submitSynthesis queues text for synthesis.
func (p *pipelineRuntime) submitSynthesis(text string) bool {
	select {
	case p.synthesisQueue <- synthesisTask{text: text}:
		return true
	default:
		logger.Warn("synthesis queue full, dropping text")
		return false
	}
}

// emit delivers an event to the control loop, giving up only on shutdown.
func (p *pipelineRuntime) emit(event events.Event) {
	select {
	case p.signals <- event:
	case <-p.closeCh:
	}
}

// answerWorker turns finished questions into answers. Identical consecutive
// questions are answered once; duplicates (usually the assistant hearing its
// own playback) are reported as dropped so the turn can still resolve.
func (p *pipelineRuntime) answerWorker(ctx context.Context) {
	defer p.wg.Done()

	var lastQuestion string
	for {
		select {
		case <-p.closeCh:
			return
		case task := <-p.answerQueue:
			if task.question == lastQuestion {
				logger.Info("dropping duplicate question", slog.String("question", task.question))
				p.emit(events.NewAnswerDropped(task.question))
				continue
			}
			lastQuestion = task.question

			answer := p.answerer.Answer(ctx, task.question)
			p.emit(events.NewAnswerGenerated(task.question, answer))
		}
	}
}

// synthesisWorker converts answer text into one contiguous audio buffer and
// parks it in the playback mailbox, superseding any buffer still waiting.
func (p *pipelineRuntime) synthesisWorker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-p.closeCh:
			return
		case task := <-p.synthesisQueue:
			samples, sampleRate, chunkCount, err := p.synthesizer.Synthesize(ctx, task.text)
			if err != nil {
				logger.Warn("synthesis failed", slog.Any("error", err))
				p.emit(events.NewSynthesisFailed(err))
				continue
			}

			superseded := p.mailbox.Put(playbackTask{
				id:         uuid.NewString(),
				samples:    samples,
				sampleRate: sampleRate,
			})
			if superseded {
				logger.Info("pending playback superseded by newer audio")
			}
			p.emit(events.NewSpeechSynthesized(chunkCount))
		}
	}
}

// playbackWorker plays mailbox buffers one at a time. Play blocks through the
// decay delay, so PlaybackFinished also marks the end of the echo guard band.
func (p *pipelineRuntime) playbackWorker(ctx context.Context) {
	defer p.wg.Done()

	for {
		task, ok := p.mailbox.Take(p.closeCh)
		if !ok {
			return
		}

		p.emit(events.NewPlaybackStarted(task.id))
		p.player.Play(ctx, task.samples, task.sampleRate)
		p.emit(events.NewPlaybackFinished(task.id))
	}
}
