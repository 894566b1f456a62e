package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Client is the main AI entry point. It routes requests to the configured
// provider and handles prompt building and response parsing.
type Client struct {
	provider Provider
}

// ClientOpts configures provider selection and generation limits.
type ClientOpts struct {
	Provider    string // "openai" or "anthropic"
	Model       string
	MaxBullets  int
	MinWords    int
	MaxWords    int
	Temperature float64
	MaxTokens   int
}

// NewClient creates an AI client for the configured provider. It returns
// ErrNoCredentials when the provider's API key is absent from the
// environment.
func NewClient(opts ClientOpts) (*Client, error) {
	switch opts.Provider {
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, ErrNoCredentials
		}
		return &Client{provider: NewAnthropicProvider(key, opts.Model)}, nil
	case "openai", "":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, ErrNoCredentials
		}
		return &Client{provider: NewOpenAIProvider(key, opts.Model)}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", opts.Provider)
	}
}

// NewClientWithProvider wraps an existing provider, mainly for tests.
func NewClientWithProvider(p Provider) *Client {
	return &Client{provider: p}
}

// ProviderName reports which backend the client routes to.
func (c *Client) ProviderName() string {
	return c.provider.Name()
}

// SummarizeArticle asks the provider for bullet points about one article.
// Returns: parsed summary, tokens used, model name, error.
func (c *Client) SummarizeArticle(ctx context.Context, opts ClientOpts, title, description, body string) (*BulletSummary, int, string, error) {
	prompt := BuildBulletsPrompt(title, description, body, opts.MaxBullets, opts.MinWords, opts.MaxWords)

	resp, err := c.provider.Chat(ctx, ChatRequest{
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, 0, "", err
	}

	responseText := ExtractJSON(resp.Content)
	if responseText == "" {
		return nil, resp.TokensUsed, resp.Model, fmt.Errorf("empty response from %s", c.provider.Name())
	}

	var summary BulletSummary
	if err := json.Unmarshal([]byte(responseText), &summary); err != nil {
		return nil, resp.TokensUsed, resp.Model,
			fmt.Errorf("failed to parse summary JSON from %s: %w (response: %s)", c.provider.Name(), err, responseText)
	}

	if len(summary.Summary) > opts.MaxBullets {
		summary.Summary = summary.Summary[:opts.MaxBullets]
	}
	if summary.HookType == "" {
		summary.HookType = "LOCAL_IMPACT"
	}

	return &summary, resp.TokensUsed, resp.Model, nil
}
