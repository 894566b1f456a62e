package summarizer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/speedread/speedread/internal/ai"
	"github.com/speedread/speedread/internal/feed"
)

// Result is a finished summary for one article. Bullets always holds
// between one and the configured maximum, each clamped to the word limit.
type Result struct {
	Bullets    []string
	HookType   string
	Provider   string
	Model      string
	Fallback   bool
	TokensUsed int
}

// Summarizer turns feed entries into bullet summaries. When no AI client is
// available (missing credentials) every entry gets the deterministic
// fallback summary.
type Summarizer struct {
	client       *ai.Client
	opts         ai.ClientOpts
	sourceName   string
	requestDelay time.Duration
}

// New builds a summarizer. client may be nil to force fallback summaries.
func New(client *ai.Client, opts ai.ClientOpts, sourceName string, requestDelay time.Duration) *Summarizer {
	if opts.MaxBullets <= 0 {
		opts.MaxBullets = 3
	}
	return &Summarizer{
		client:       client,
		opts:         opts,
		sourceName:   sourceName,
		requestDelay: requestDelay,
	}
}

// Summarize produces bullets for one entry. AI failures degrade to the
// fallback summary rather than erroring, so a run never loses an article
// to a flaky API.
func (s *Summarizer) Summarize(ctx context.Context, entry feed.Entry, body string) Result {
	if s.client == nil {
		return s.fallback(entry)
	}

	summary, tokens, model, err := s.client.SummarizeArticle(ctx, s.opts, entry.Title, entry.Description, body)
	if err != nil {
		slog.Warn("AI summarization failed, using fallback",
			"article", entry.Title, "provider", s.client.ProviderName(), "error", err)
		res := s.fallback(entry)
		res.TokensUsed = tokens
		return res
	}

	bullets := s.clampBullets(summary.Summary)
	if len(bullets) == 0 {
		slog.Warn("AI returned no usable bullets, using fallback", "article", entry.Title)
		res := s.fallback(entry)
		res.TokensUsed = tokens
		return res
	}

	return Result{
		Bullets:    bullets,
		HookType:   summary.HookType,
		Provider:   s.client.ProviderName(),
		Model:      model,
		TokensUsed: tokens,
	}
}

// Delay sleeps between AI calls to stay under provider rate limits. It
// returns early when the context is cancelled.
func (s *Summarizer) Delay(ctx context.Context) {
	if s.client == nil || s.requestDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.requestDelay):
	}
}

// clampBullets drops empty bullets, trims each to the word limit, and caps
// the count at the configured maximum.
func (s *Summarizer) clampBullets(bullets []string) []string {
	out := make([]string, 0, s.opts.MaxBullets)
	for _, b := range bullets {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if s.opts.MaxWords > 0 {
			words := strings.Fields(b)
			if len(words) > s.opts.MaxWords {
				b = strings.Join(words[:s.opts.MaxWords], " ")
			}
		}
		out = append(out, b)
		if len(out) == s.opts.MaxBullets {
			break
		}
	}
	return out
}
