package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/speedread/speedread/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleArticle(id string) *models.Article {
	return &models.Article{
		ID:          id,
		Title:       "MBTA announces Red Line closure",
		Link:        "https://www.boston.com/news/" + id,
		Description: "Track repairs between Harvard and Alewife.",
		PublishedAt: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
		Bullets: []string{
			"MBTA closes Red Line between Harvard and Alewife for two weeks",
			"Shuttle buses replace trains during October track repairs",
			"Riders should expect twenty to thirty extra minutes per trip",
		},
		HookType: "LOCAL_IMPACT",
		Provider: "openai",
		Model:    "gpt-4o-mini",
		Trigrams: `["mbt","bta"]`,
	}
}

func TestInsertAndListArticles(t *testing.T) {
	s := newTestStore(t)

	if err := s.InsertArticle(sampleArticle("a1")); err != nil {
		t.Fatalf("InsertArticle() error = %v", err)
	}

	articles, err := s.ListRecent(10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}

	got := articles[0]
	if got.ID != "a1" {
		t.Errorf("ID = %q", got.ID)
	}
	if len(got.Bullets) != 3 {
		t.Errorf("expected 3 bullets, got %d", len(got.Bullets))
	}
	if got.Bullets[0] != "MBTA closes Red Line between Harvard and Alewife for two weeks" {
		t.Errorf("bullets not round-tripped: %q", got.Bullets[0])
	}
	if !got.PublishedAt.Equal(time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("PublishedAt = %v", got.PublishedAt)
	}
}

func TestHasArticle(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.HasArticle("a1")
	if err != nil {
		t.Fatalf("HasArticle() error = %v", err)
	}
	if ok {
		t.Error("HasArticle should be false before insert")
	}

	if err := s.InsertArticle(sampleArticle("a1")); err != nil {
		t.Fatal(err)
	}

	ok, err = s.HasArticle("a1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("HasArticle should be true after insert")
	}
}

func TestDuplicateInsertFails(t *testing.T) {
	s := newTestStore(t)

	if err := s.InsertArticle(sampleArticle("a1")); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertArticle(sampleArticle("a1")); err == nil {
		t.Error("duplicate ID insert should fail")
	}
}

func TestCountOnlyGrows(t *testing.T) {
	s := newTestStore(t)

	prev := 0
	for i, id := range []string{"a1", "a2", "a3"} {
		if err := s.InsertArticle(sampleArticle(id)); err != nil {
			t.Fatal(err)
		}
		n, err := s.CountArticles()
		if err != nil {
			t.Fatal(err)
		}
		if n != i+1 || n <= prev {
			t.Fatalf("count after insert %d = %d", i+1, n)
		}
		prev = n
	}
}

func TestRecentTrigrams(t *testing.T) {
	s := newTestStore(t)

	if err := s.InsertArticle(sampleArticle("a1")); err != nil {
		t.Fatal(err)
	}
	empty := sampleArticle("a2")
	empty.Trigrams = ""
	if err := s.InsertArticle(empty); err != nil {
		t.Fatal(err)
	}

	trigrams, err := s.RecentTrigrams(10)
	if err != nil {
		t.Fatalf("RecentTrigrams() error = %v", err)
	}
	if len(trigrams) != 1 {
		t.Fatalf("expected 1 trigram row, got %d", len(trigrams))
	}
	if trigrams[0].ID != "a1" {
		t.Errorf("trigram ID = %q", trigrams[0].ID)
	}
}

func TestLogAndLastRun(t *testing.T) {
	s := newTestStore(t)

	last, err := s.LastRun()
	if err != nil {
		t.Fatalf("LastRun() error = %v", err)
	}
	if last != nil {
		t.Fatal("LastRun should be nil before any run")
	}

	run := &models.Run{FeedSize: 15, NewArticles: 5, Skipped: 10, FallbackCount: 1, TokensUsed: 900}
	if err := s.LogRun(run); err != nil {
		t.Fatalf("LogRun() error = %v", err)
	}
	if run.ID == 0 {
		t.Error("LogRun should set run ID")
	}

	last, err = s.LastRun()
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.NewArticles != 5 || last.TokensUsed != 900 {
		t.Errorf("LastRun = %+v", last)
	}
	if last.ErrorMessage != "" {
		t.Errorf("ErrorMessage should be empty, got %q", last.ErrorMessage)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)

	if err := s.InsertArticle(sampleArticle("a1")); err != nil {
		t.Fatal(err)
	}
	fb := sampleArticle("a2")
	fb.Fallback = true
	fb.Provider = "fallback"
	if err := s.InsertArticle(fb); err != nil {
		t.Fatal(err)
	}
	if err := s.LogRun(&models.Run{FeedSize: 15, NewArticles: 2, TokensUsed: 300}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalArticles != 2 {
		t.Errorf("TotalArticles = %d", stats.TotalArticles)
	}
	if stats.FallbackArticles != 1 {
		t.Errorf("FallbackArticles = %d", stats.FallbackArticles)
	}
	if stats.TotalRuns != 1 {
		t.Errorf("TotalRuns = %d", stats.TotalRuns)
	}
	if stats.TotalTokensUsed != 300 {
		t.Errorf("TotalTokensUsed = %d", stats.TotalTokensUsed)
	}
	if stats.DatabaseSizeBytes <= 0 {
		t.Error("DatabaseSizeBytes should be positive")
	}
}
