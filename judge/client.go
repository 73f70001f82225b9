package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spboyer/agentra/internal/cache"
)

// ErrNoClient is returned when a judge has no transport configured.
var ErrNoClient = errors.New("no judge client configured")

// Provider names accepted by [NewClient].
const (
	ProviderAuto      = "auto"
	ProviderCopilot   = "copilot"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

// Default models, used when no model is configured.
const (
	DefaultOpenAIModel    = "gpt-4"
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"
)

// Settings selects and configures a judge transport.
type Settings struct {
	Provider string
	Model    string

	// Timeout bounds each call. Zero means no deadline.
	Timeout time.Duration

	// MaxRetries is the number of retries after a failed call.
	MaxRetries int
	RetryDelay time.Duration

	// CacheDir, when set, keeps replies on disk keyed by model and prompt.
	CacheDir string
}

// NewClient builds the transport described by s, wrapped with the configured retry and
// timeout behavior.
func NewClient(s Settings) (Client, error) {
	provider, model := resolveProvider(s.Provider, s.Model)
	slog.Debug("Creating judge client", "provider", provider, "model", model)

	var client Client

	switch provider {
	case ProviderNone:
		return ClientFunc(func(context.Context, string) (string, error) {
			return "", ErrNoClient
		}), nil
	case ProviderCopilot:
		client = NewCopilotClient(model, nil)
	case ProviderOpenAI, ProviderAnthropic:
		c, err := NewLangChainClient(provider, model)
		if err != nil {
			return nil, err
		}
		client = c
	default:
		return nil, fmt.Errorf("unknown judge provider %q", s.Provider)
	}

	if s.Timeout > 0 {
		client = WithTimeout(client, s.Timeout)
	}
	if s.MaxRetries > 0 {
		client = WithRetry(client, s.MaxRetries, s.RetryDelay)
	}
	if s.CacheDir != "" {
		client = WithCache(client, cache.New(s.CacheDir), model)
	}

	return client, nil
}

// resolveProvider fills in the provider and model. With the auto provider the model picks
// the provider (gpt* is OpenAI, claude* is Anthropic), and without a model the available
// API keys decide.
func resolveProvider(provider, model string) (string, string) {
	if provider == "" {
		provider = ProviderAuto
	}

	if provider == ProviderAuto {
		if model == "" {
			model = defaultModel()
		}

		if strings.HasPrefix(model, "claude") {
			provider = ProviderAnthropic
		} else {
			provider = ProviderOpenAI
		}
	}

	if model == "" {
		switch provider {
		case ProviderOpenAI:
			model = DefaultOpenAIModel
		case ProviderAnthropic:
			model = DefaultAnthropicModel
		}
	}

	return provider, model
}

func defaultModel() string {
	if os.Getenv("OPENAI_API_KEY") != "" {
		return DefaultOpenAIModel
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return DefaultAnthropicModel
	}
	return DefaultOpenAIModel
}

// WithRetry retries failed calls with exponential backoff, starting at delay.
// Context cancellation is not retried.
func WithRetry(client Client, maxRetries int, delay time.Duration) Client {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	return ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		backoff := retry.WithMaxRetries(uint64(maxRetries), retry.NewExponential(delay))

		var reply string
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			r, err := client.Complete(ctx, prompt)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				slog.Debug("Judge call failed, retrying", "error", err)
				return retry.RetryableError(err)
			}
			reply = r
			return nil
		})

		return reply, err
	})
}

// WithTimeout bounds every call to client by d.
func WithTimeout(client Client, d time.Duration) Client {
	return ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return client.Complete(ctx, prompt)
	})
}

// ReplyCache stores judge replies by key. The on-disk cache used for
// Settings.CacheDir satisfies it.
type ReplyCache interface {
	Get(key string) (string, bool)
	Put(key, model, reply string) error
}

// WithCache answers repeated prompts from c. Only successful replies are cached.
func WithCache(client Client, c ReplyCache, model string) Client {
	return ClientFunc(func(ctx context.Context, prompt string) (string, error) {
		key := cache.Key(model, prompt)
		if reply, ok := c.Get(key); ok {
			slog.Debug("Judge cache hit", "model", model)
			return reply, nil
		}

		reply, err := client.Complete(ctx, prompt)
		if err != nil {
			return "", err
		}

		if err := c.Put(key, model, reply); err != nil {
			slog.Warn("Failed to cache judge reply", "error", err)
		}
		return reply, nil
	})
}
