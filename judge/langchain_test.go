package judge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, opt := range options {
		opt(&m.opts)
	}
	return m.resp, m.err
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLangChainClientComplete(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "SCORE: 0.4\nREASON: vague"}},
	}}

	reply, err := NewLangChainClientFromModel(model).Complete(context.Background(), "judge this")
	require.NoError(t, err)
	require.Equal(t, "SCORE: 0.4\nREASON: vague", reply)

	require.Len(t, model.messages, 2)
	require.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	require.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	require.Equal(t, llms.TextContent{Text: "judge this"}, model.messages[1].Parts[0])
	require.Equal(t, 0.3, model.opts.Temperature)
	require.Equal(t, 500, model.opts.MaxTokens)
}

func TestLangChainClientComplete_Errors(t *testing.T) {
	_, err := NewLangChainClientFromModel(&fakeModel{err: errors.New("401")}).Complete(context.Background(), "p")
	require.EqualError(t, err, "401")

	_, err = NewLangChainClientFromModel(&fakeModel{resp: &llms.ContentResponse{}}).Complete(context.Background(), "p")
	require.EqualError(t, err, "judge model returned no choices")
}

func TestNewLangChainClient_UnknownProvider(t *testing.T) {
	_, err := NewLangChainClient("copilot", "")
	require.EqualError(t, err, `langchain judge does not support provider "copilot"`)
}
