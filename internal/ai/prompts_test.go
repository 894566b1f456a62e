package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildBulletsPrompt(t *testing.T) {
	prompt := BuildBulletsPrompt("MBTA Red Line closure", "Two weeks of repairs.", "", 3, 10, 20)

	if !strings.Contains(prompt, "exactly 3 concise") {
		t.Error("prompt should request exactly 3 bullets")
	}
	if !strings.Contains(prompt, "10-20 words max") {
		t.Error("prompt should include the word limits")
	}
	if !strings.Contains(prompt, "MBTA Red Line closure") {
		t.Error("prompt should include article title")
	}
	if !strings.Contains(prompt, `"hookType": "LOCAL_IMPACT"`) {
		t.Error("prompt should show the expected JSON format")
	}
}

func TestBuildBulletsPromptTruncatesDescription(t *testing.T) {
	long := strings.Repeat("a", 2000)
	prompt := BuildBulletsPrompt("Title", long, "", 3, 10, 20)
	if strings.Contains(prompt, strings.Repeat("a", 501)) {
		t.Error("description should be truncated to 500 characters")
	}
}

func TestBuildBulletsPromptKeepsMultibyteRunesIntact(t *testing.T) {
	long := strings.Repeat("é", 600)
	prompt := BuildBulletsPrompt("Título", long, strings.Repeat("ñ", 4000), 3, 10, 20)
	if !utf8.ValidString(prompt) {
		t.Error("truncation must not split runes at the boundary")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "clean object",
			input: `{"summary": ["a"]}`,
			want:  `{"summary": ["a"]}`,
		},
		{
			name:  "markdown fenced",
			input: "```json\n{\"summary\": [\"a\"]}\n```",
			want:  `{"summary": ["a"]}`,
		},
		{
			name:  "surrounded by prose",
			input: `Here is the summary: {"summary": ["a"]} Hope that helps!`,
			want:  `{"summary": ["a"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.input); got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

type fakeProvider struct {
	response string
	err      error
}

func (f *fakeProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ChatResponse{Content: f.response, TokensUsed: 42, Model: "fake-model", Provider: "fake"}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func TestSummarizeArticleParsesResponse(t *testing.T) {
	client := NewClientWithProvider(&fakeProvider{
		response: "```json\n{\"summary\": [\"First fact here\", \"Second fact here\", \"Third fact here\", \"Extra bullet\"], \"hookType\": \"LOCAL_IMPACT\"}\n```",
	})

	opts := ClientOpts{MaxBullets: 3, MinWords: 10, MaxWords: 20, Temperature: 0.3, MaxTokens: 200}
	summary, tokens, model, err := client.SummarizeArticle(context.Background(), opts, "Title", "Desc", "")
	if err != nil {
		t.Fatalf("SummarizeArticle() error = %v", err)
	}
	if len(summary.Summary) != 3 {
		t.Errorf("bullets should be capped at 3, got %d", len(summary.Summary))
	}
	if summary.HookType != "LOCAL_IMPACT" {
		t.Errorf("HookType = %q, want LOCAL_IMPACT", summary.HookType)
	}
	if tokens != 42 {
		t.Errorf("tokens = %d, want 42", tokens)
	}
	if model != "fake-model" {
		t.Errorf("model = %q, want fake-model", model)
	}
}

func TestSummarizeArticleInvalidJSON(t *testing.T) {
	client := NewClientWithProvider(&fakeProvider{response: "I cannot summarize this article."})

	opts := ClientOpts{MaxBullets: 3, MinWords: 10, MaxWords: 20}
	_, _, _, err := client.SummarizeArticle(context.Background(), opts, "Title", "Desc", "")
	if err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestNewClientNoCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient(ClientOpts{Provider: "openai"})
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	if _, err := NewClient(ClientOpts{Provider: "gemini"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
