package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	copilot "github.com/github/copilot-sdk/go"
)

// CopilotClient sends judge prompts through the GitHub Copilot SDK. Each prompt gets its
// own session so judgments never see each other's conversation.
type CopilotClient struct {
	model  string
	client copilotClient

	startOnce sync.Once
	startErr  error
}

// CopilotClientOptions customizes a [CopilotClient].
type CopilotClientOptions struct {
	NewCopilotClient func(clientOptions *copilot.ClientOptions) copilotClient
}

// NewCopilotClient creates a client for model. A blank model lets the Copilot CLI pick
// its own default.
func NewCopilotClient(model string, options *CopilotClientOptions) *CopilotClient {
	copilotOptions := &copilot.ClientOptions{
		LogLevel:  "error",
		AutoStart: copilot.Bool(false),
	}

	var client copilotClient
	if options == nil || options.NewCopilotClient == nil {
		client = newCopilotClient(copilotOptions)
	} else {
		client = options.NewCopilotClient(copilotOptions)
	}

	return &CopilotClient{
		model:  model,
		client: client,
	}
}

// Complete implements [Client].
func (c *CopilotClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.startOnce.Do(func() {
		// the SDK's autostart is not safe to trigger from several goroutines at once
		c.startErr = c.client.Start(ctx)
	})

	if c.startErr != nil {
		return "", fmt.Errorf("copilot failed to start: %w", c.startErr)
	}

	session, err := c.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               c.model,
		OnPermissionRequest: denyAllTools,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	resp, err := session.SendAndWait(ctx, copilot.MessageOptions{
		Prompt: SystemPrompt + "\n\n" + prompt,
	})
	if err != nil {
		return "", fmt.Errorf("copilot judge request failed: %w", err)
	}

	if resp != nil {
		logReply(ctx, resp)
	}

	if resp == nil || resp.Data.Content == nil {
		return "", errors.New("copilot judge returned no content")
	}

	return *resp.Data.Content, nil
}

// Close stops the underlying Copilot client.
func (c *CopilotClient) Close() error {
	if err := c.client.Stop(); err != nil {
		slog.Info("failed to stop client", "error", err)
		return err
	}
	return nil
}

// denyAllTools keeps the judge from acting on anything it reads in the prompt.
func denyAllTools(request copilot.PermissionRequest, invocation copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	return copilot.PermissionRequestResult{Kind: "denied-interactively-by-user"}, nil
}

// logReply writes the judge's reply event at debug level.
func logReply(ctx context.Context, event *copilot.SessionEvent) {
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}

	attrs := []any{
		"type", event.Type,
	}

	attrs = addIf(attrs, "content", event.Data.Content)
	attrs = addIf(attrs, "toolName", event.Data.ToolName)
	attrs = addIf(attrs, "toolCallID", event.Data.ToolCallID)
	attrs = addIf(attrs, "reasoningText", event.Data.ReasoningText)

	slog.DebugContext(ctx, "Judge reply received", attrs...)
}

func addIf[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name, *v)
	}

	return attrs
}
