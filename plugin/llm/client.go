// Package llm is a minimal chat-completion client for OpenAI-compatible
// providers, used by the demo agent.
package llm

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/umbralith/userpulse/internal/profile"
)

// Config holds the chat client configuration.
type Config struct {
	Provider   string
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// Client performs chat completions against an OpenAI-compatible API.
type Client struct {
	client *openai.Client
	config *Config
}

// NewClient creates a chat client. Zero config values fall back to defaults.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	switch cfg.Provider {
	case "openai", "deepseek", "siliconflow":
		// All three speak the OpenAI chat API.
	default:
		return nil, errors.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// NewClientFromProfile creates a chat client from the profile's LLM fields.
func NewClientFromProfile(p *profile.Profile) (*Client, error) {
	return NewClient(&Config{
		Provider: p.LLMProvider,
		BaseURL:  p.LLMBaseURL,
		APIKey:   p.LLMAPIKey,
		Model:    p.LLMModel,
	})
}

// Chat performs a chat completion.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	var result string
	err := c.doWithRetry(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()

		llmMessages := make([]openai.ChatCompletionMessage, len(messages))
		for i, msg := range messages {
			llmMessages[i] = openai.ChatCompletionMessage{
				Role:    msg.Role,
				Content: msg.Content,
			}
		}

		resp, err := c.client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
			Model:    c.config.Model,
			Messages: llmMessages,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty chat response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to complete chat")
	}
	return result, nil
}

// doWithRetry executes a function with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if attempt < c.config.MaxRetries-1 {
				waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
				slog.Debug("chat request failed, retrying",
					"attempt", attempt+1,
					"wait_time", waitTime,
					"error", err)
				select {
				case <-time.After(waitTime):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}
