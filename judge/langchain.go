package judge

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	judgeTemperature = 0.3
	judgeMaxTokens   = 500
)

// LangChainClient sends judge prompts to any langchaingo model.
type LangChainClient struct {
	model llms.Model
}

// NewLangChainClient creates a client for the openai or anthropic provider. API keys come
// from OPENAI_API_KEY and ANTHROPIC_API_KEY.
func NewLangChainClient(provider, model string) (*LangChainClient, error) {
	var (
		m   llms.Model
		err error
	)

	switch provider {
	case ProviderOpenAI:
		opts := []openai.Option{}
		if model != "" {
			opts = append(opts, openai.WithModel(model))
		}
		m, err = openai.New(opts...)
	case ProviderAnthropic:
		opts := []anthropic.Option{}
		if model != "" {
			opts = append(opts, anthropic.WithModel(model))
		}
		m, err = anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("langchain judge does not support provider %q", provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s judge client: %w", provider, err)
	}

	return NewLangChainClientFromModel(m), nil
}

// NewLangChainClientFromModel wraps an already configured model.
func NewLangChainClientFromModel(m llms.Model) *LangChainClient {
	return &LangChainClient{model: m}
}

// Complete implements [Client].
func (c *LangChainClient) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(judgeTemperature),
		llms.WithMaxTokens(judgeMaxTokens))
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("judge model returned no choices")
	}

	return resp.Choices[0].Content, nil
}
