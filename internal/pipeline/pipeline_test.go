package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/speedread/speedread/internal/ai"
	"github.com/speedread/speedread/internal/config"
	"github.com/speedread/speedread/internal/feed"
	"github.com/speedread/speedread/internal/similarity"
	"github.com/speedread/speedread/internal/site"
	"github.com/speedread/speedread/internal/store"
	"github.com/speedread/speedread/internal/summarizer"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Boston.com</title>
<item>
  <title>MBTA announces Red Line closure</title>
  <link>https://www.boston.com/news/red-line</link>
  <description>Track repairs between Harvard and Alewife will shut down service.</description>
  <pubDate>Wed, 01 Oct 2025 12:00:00 +0000</pubDate>
</item>
<item>
  <title>City Council approves downtown bike lanes</title>
  <link>https://www.boston.com/news/bike-lanes</link>
  <description>New protected lanes will run along Boylston Street next spring.</description>
  <pubDate>Wed, 01 Oct 2025 11:00:00 +0000</pubDate>
</item>
</channel>
</rss>`

const emptyRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Boston.com</title></channel></rss>`

type fakeProvider struct{}

func (fakeProvider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	return &ai.ChatResponse{
		Content:    `{"summary": ["First concrete fact about the story", "Second specific detail with a number", "Third key impact on residents"], "hookType": "LOCAL_IMPACT"}`,
		TokensUsed: 150,
		Model:      "fake-model",
		Provider:   "fake",
	}, nil
}

func (fakeProvider) Name() string { return "fake" }

func newTestPipeline(t *testing.T, feedURL string) (*Pipeline, *store.Store, string) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Feed.URL = feedURL
	outputDir := t.TempDir()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	renderer, err := site.New(outputDir, cfg.Site.Title, cfg.Site.DisplayCount, cfg.History.MaxArticles)
	if err != nil {
		t.Fatal(err)
	}

	fetcher := feed.New(feedURL, cfg.Feed.MaxArticles, 5, "test-agent")
	checker := similarity.New(cfg.Similarity.Threshold, cfg.Similarity.NGramSize)
	summ := summarizer.New(ai.NewClientWithProvider(fakeProvider{}), ai.ClientOpts{
		MaxBullets: 3, MinWords: 10, MaxWords: 20,
	}, "Boston.com", 0)

	return New(cfg, fetcher, nil, summ, checker, st, renderer), st, outputDir
}

func TestRunProcessesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	p, st, outputDir := newTestPipeline(t, srv.URL)

	run, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if run.FeedSize != 2 {
		t.Errorf("FeedSize = %d, want 2", run.FeedSize)
	}
	if run.NewArticles != 2 {
		t.Errorf("NewArticles = %d, want 2", run.NewArticles)
	}
	if run.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", run.Skipped)
	}
	if run.TokensUsed != 300 {
		t.Errorf("TokensUsed = %d, want 300", run.TokensUsed)
	}

	n, err := st.CountArticles()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("stored articles = %d, want 2", n)
	}

	for _, name := range []string{"index.html", "news-data.json", "news-history.json"} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("missing site file %s", name)
		}
	}

	last, err := st.LastRun()
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.NewArticles != 2 {
		t.Errorf("LastRun = %+v", last)
	}
}

func TestRunSkipsProcessedArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	p, st, _ := newTestPipeline(t, srv.URL)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	run, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if run.NewArticles != 0 {
		t.Errorf("second run NewArticles = %d, want 0", run.NewArticles)
	}
	if run.Skipped != 2 {
		t.Errorf("second run Skipped = %d, want 2", run.Skipped)
	}

	n, _ := st.CountArticles()
	if n != 2 {
		t.Errorf("reruns must not shrink or grow the archive: count = %d", n)
	}
}

func TestRunEmptyFeedFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(emptyRSS))
	}))
	defer srv.Close()

	p, st, _ := newTestPipeline(t, srv.URL)

	run, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected error for empty feed")
	}
	if run.ErrorMessage == "" {
		t.Error("run should record the error message")
	}

	last, err := st.LastRun()
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.ErrorMessage == "" {
		t.Error("failed run should still be logged")
	}
}

func TestRunFetchFailureFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, _, _ := newTestPipeline(t, srv.URL)

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error when feed endpoint returns 503")
	}
}
