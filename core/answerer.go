package orchestration

import (
	"context"
	"log/slog"
	"strings"
)

// answerer wraps the answer gateway so a turn always gets some text to speak.
// Gateway errors, panics, and empty answers all degrade to the configured
// apology string; the call site never sees a failure.
type answerer struct {
	client  Answerer
	apology string
}

func newAnswerer(client Answerer, apology string) *answerer {
	return &answerer{client: client, apology: apology}
}

func (a *answerer) set(client Answerer) {
	if a != nil {
		a.client = client
	}
}

func (a *answerer) isConfigured() bool {
	return a != nil && a.client != nil
}

// Answer returns the gateway's answer for the question, or the apology.
func (a *answerer) Answer(ctx context.Context, question string) (answer string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("answer gateway panicked", slog.Any("panic", recovered))
			answer = a.apology
		}
	}()

	if !a.isConfigured() {
		return a.apology
	}

	ctx, span := tracer.Start(ctx, "generate answer")
	defer span.End()

	answer, err := a.client.Answer(ctx, question)
	if err != nil {
		logger.Warn("answer gateway failed", slog.Any("error", err))
		return a.apology
	}
	if strings.TrimSpace(answer) == "" {
		return a.apology
	}

	return answer
}
