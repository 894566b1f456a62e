package models

import "time"

// Article is a single summarized feed entry. Once written to the store it is
// immutable; the articles table is append-only.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description,omitempty"`
	PublishedAt time.Time `json:"pubDate"`
	Bullets     []string  `json:"summary"`
	HookType    string    `json:"hookType"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	Fallback    bool      `json:"fallback,omitempty"`
	Trigrams    string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Run records one pipeline execution, successful or not.
type Run struct {
	ID            int64     `json:"id"`
	FeedSize      int       `json:"feed_size"`
	NewArticles   int       `json:"new_articles"`
	Skipped       int       `json:"skipped"`
	FallbackCount int       `json:"fallback_count"`
	TokensUsed    int       `json:"tokens_used"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Stats aggregates store-wide counters for the status endpoint.
type Stats struct {
	TotalArticles     int   `json:"total_articles"`
	FallbackArticles  int   `json:"fallback_articles"`
	TotalRuns         int   `json:"total_runs"`
	TotalTokensUsed   int   `json:"total_tokens_used"`
	DatabaseSizeBytes int64 `json:"database_size_bytes"`
}
