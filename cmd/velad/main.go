package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	orchestration "github.com/tomazic/vela-core/core"
	"github.com/tomazic/vela-core/core/answers/openai"
	"github.com/tomazic/vela-core/core/audio/aplay"
	"github.com/tomazic/vela-core/core/audio/miniaudio"
	"github.com/tomazic/vela-core/core/audio/portaudio"
	"github.com/tomazic/vela-core/core/events"
	dgspeak "github.com/tomazic/vela-core/core/recognition/deepgram"
	"github.com/tomazic/vela-core/core/recognition/whisper"
	dgsynth "github.com/tomazic/vela-core/core/synthesis/deepgram"
	"github.com/tomazic/vela-core/internal/notify"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	wakePhrase := cli.StringP("wake", "w", "hey vela", "Wake phrase")
	recognition := cli.StringP("recognition", "r", "deepgram", "Recognition backend: deepgram or whisper")
	whisperModel := cli.StringP("whisper-model", "m", "models/ggml-base.en.bin", "Whisper model path (whisper backend)")
	audioBackend := cli.StringP("audio", "a", "miniaudio", "Audio backend: miniaudio, portaudio, or aplay")
	decay := cli.DurationP("decay", "d", 2*time.Second, "Post-playback decay delay")
	earcon := cli.BoolP("earcon", "b", true, "Play a chirp on wake detection")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []orchestration.OrchestratorOption{
		orchestration.WithWakePhrase(*wakePhrase),
		orchestration.WithDecayDelay(*decay),
	}

	switch *recognition {
	case "whisper":
		client, err := whisper.NewTranscriptionClient(*whisperModel)
		if err != nil {
			log.Error("Failed to init whisper", "err", err)
			os.Exit(1)
		}
		defer client.Close()
		opts = append(opts, orchestration.WithRecognitionClient(client))
	case "deepgram":
		client, err := dgspeak.NewTranscriptionClient()
		if err != nil {
			log.Error("Failed to init deepgram recognition", "err", err)
			os.Exit(1)
		}
		opts = append(opts, orchestration.WithRecognitionClient(client))
	default:
		log.Error("Unknown recognition backend", "backend", *recognition)
		os.Exit(1)
	}

	answers, err := openai.NewAnswerClient()
	if err != nil {
		log.Error("Failed to init answer client", "err", err)
		os.Exit(1)
	}
	opts = append(opts, orchestration.WithAnswerClient(answers))

	synth, err := dgsynth.NewSynthesisClient()
	if err != nil {
		log.Error("Failed to init synthesis client", "err", err)
		os.Exit(1)
	}
	opts = append(opts, orchestration.WithSynthesisClient(synth))

	switch *audioBackend {
	case "miniaudio":
		client, err := miniaudio.NewClient()
		if err != nil {
			log.Error("Failed to init miniaudio", "err", err)
			os.Exit(1)
		}
		opts = append(opts,
			orchestration.WithAudioCapture(client),
			orchestration.WithPlaybackClient(client),
		)
	case "portaudio":
		// Capture through PortAudio, playback through a system player.
		capture, err := portaudio.NewClient()
		if err != nil {
			log.Error("Failed to init portaudio", "err", err)
			os.Exit(1)
		}
		player, err := aplay.NewClient()
		if err != nil {
			log.Error("Failed to init system player", "err", err)
			os.Exit(1)
		}
		opts = append(opts,
			orchestration.WithAudioCapture(capture),
			orchestration.WithPlaybackClient(player),
		)
	case "aplay":
		capture, err := miniaudio.NewClient()
		if err != nil {
			log.Error("Failed to init miniaudio capture", "err", err)
			os.Exit(1)
		}
		player, err := aplay.NewClient()
		if err != nil {
			log.Error("Failed to init system player", "err", err)
			os.Exit(1)
		}
		opts = append(opts,
			orchestration.WithAudioCapture(capture),
			orchestration.WithPlaybackClient(player),
		)
	default:
		log.Error("Unknown audio backend", "backend", *audioBackend)
		os.Exit(1)
	}

	orchestrator := orchestration.NewOrchestrator(opts...)
	defer orchestrator.Close()

	log.Info("Boot up - successful", "wake", *wakePhrase)

	listenOpts := []orchestration.ListenOption{
		orchestration.WithWakeCallback(func(transcript string) {
			log.Info("Wake detected", "transcript", transcript)
			if *earcon {
				go func() {
					if err := notify.Wake(); err != nil {
						log.Warn("Failed to play earcon", "err", err)
					}
				}()
			}
		}),
		orchestration.WithUtteranceCallback(func(utterance orchestration.Utterance) {
			log.Info("Heard", "text", utterance.Text, "peak", utterance.PeakLevel)
		}),
		orchestration.WithTurnEndedCallback(func(question string, reason events.EndReason) {
			log.Info("Turn ended", "question", question, "reason", reason)
		}),
		orchestration.WithAnswerCallback(func(question, answer string) {
			log.Info("Answering", "answer", answer)
		}),
		orchestration.WithStateChangedCallback(func(from, to orchestration.TurnState) {
			log.Debug("State changed", "from", from, "to", to)
		}),
	}

	if err := orchestrator.Listen(ctx, listenOpts...); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Listen failed", "err", err)
		os.Exit(1)
	}

	log.Info("Shutting down")
}
