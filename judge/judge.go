// Package judge scores subjective criteria by asking a language model to act as an evaluator.
//
// The package owns the prompt template and the reply parser. The model transport is
// supplied by the host through [Client].
package judge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spboyer/agentra/models"
)

// NeutralScore is the value used whenever the judge cannot produce a verdict.
const NeutralScore = 0.5

// Client sends a prompt to a model and returns its free-text reply.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a plain function to [Client].
type ClientFunc func(ctx context.Context, prompt string) (string, error)

func (f ClientFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Judge turns model replies into bounded scores.
type Judge struct {
	client Client
}

// New creates a Judge that calls client.
func New(client Client) *Judge {
	return &Judge{client: client}
}

// Evaluate scores output against criteria. It never fails: a transport error produces a
// neutral score whose reason and details describe the failure.
func (j *Judge) Evaluate(ctx context.Context, criteria, input, output, systemContext string) models.Score {
	prompt := BuildPrompt(criteria, input, output, systemContext)

	reply, err := j.complete(ctx, prompt)
	if err != nil {
		slog.Debug("Judge evaluation failed", "criteria", criteria, "error", err)

		return models.NewScore(NeutralScore, fmt.Sprintf("Judge evaluation failed: %s", err), map[string]any{
			"error": err.Error(),
		})
	}

	return ParseResponse(reply)
}

func (j *Judge) complete(ctx context.Context, prompt string) (reply string, err error) {
	if j == nil || j.client == nil {
		return "", ErrNoClient
	}

	// a panicking transport degrades like any other transport error
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("judge client panicked: %v", p)
		}
	}()

	return j.client.Complete(ctx, prompt)
}
