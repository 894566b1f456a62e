package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/speedread/speedread/internal/config"
	"github.com/speedread/speedread/internal/feed"
	"github.com/speedread/speedread/internal/models"
	"github.com/speedread/speedread/internal/scraper"
	"github.com/speedread/speedread/internal/similarity"
	"github.com/speedread/speedread/internal/site"
	"github.com/speedread/speedread/internal/store"
	"github.com/speedread/speedread/internal/summarizer"
)

// ErrEmptyFeed is returned when the feed parses but contains no entries.
// Runs treat it as a failure so an upstream outage is visible.
var ErrEmptyFeed = errors.New("pipeline: feed returned no entries")

// Pipeline runs one full fetch-summarize-render cycle.
type Pipeline struct {
	cfg      config.Config
	fetcher  *feed.Fetcher
	scraper  *scraper.Scraper // nil when article scraping is disabled
	summ     *summarizer.Summarizer
	checker  *similarity.Checker
	store    *store.Store
	renderer *site.Renderer
}

func New(cfg config.Config, fetcher *feed.Fetcher, scr *scraper.Scraper, summ *summarizer.Summarizer, checker *similarity.Checker, st *store.Store, renderer *site.Renderer) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		scraper:  scr,
		summ:     summ,
		checker:  checker,
		store:    st,
		renderer: renderer,
	}
}

// Run executes one cycle and records its outcome in the runs table. The
// returned run carries counts even when an error occurred partway through.
func (p *Pipeline) Run(ctx context.Context) (*models.Run, error) {
	start := time.Now()
	run := &models.Run{}

	err := p.run(ctx, run)
	if err != nil {
		run.ErrorMessage = err.Error()
	}

	if logErr := p.store.LogRun(run); logErr != nil {
		slog.Error("Failed to log run", "error", logErr)
	}

	slog.Info("Run finished",
		"feed_size", run.FeedSize,
		"new", run.NewArticles,
		"skipped", run.Skipped,
		"fallbacks", run.FallbackCount,
		"tokens", run.TokensUsed,
		"duration", time.Since(start).Round(time.Millisecond),
		"error", run.ErrorMessage)

	return run, err
}

func (p *Pipeline) run(ctx context.Context, run *models.Run) error {
	entries, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}
	if len(entries) == 0 {
		return ErrEmptyFeed
	}
	run.FeedSize = len(entries)

	fresh, err := p.filterNew(ctx, entries, run)
	if err != nil {
		return err
	}

	bodies := p.scrapeBodies(ctx, fresh)

	var newArticles []models.Article
	for i, entry := range fresh {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := p.summ.Summarize(ctx, entry, bodies[entry.ID])
		run.TokensUsed += res.TokensUsed
		if res.Fallback {
			run.FallbackCount++
		}

		article := models.Article{
			ID:          entry.ID,
			Title:       entry.Title,
			Link:        entry.Link,
			Description: entry.Description,
			PublishedAt: entry.PublishedAt,
			Bullets:     res.Bullets,
			HookType:    res.HookType,
			Provider:    res.Provider,
			Model:       res.Model,
			Fallback:    res.Fallback,
			Trigrams:    p.checker.TrigramsToJSON(p.checker.Trigrams(entry.Title + " " + entry.Description)),
		}
		if err := p.store.InsertArticle(&article); err != nil {
			return fmt.Errorf("insert article %s: %w", entry.ID, err)
		}
		newArticles = append(newArticles, article)
		run.NewArticles++

		if i < len(fresh)-1 {
			p.summ.Delay(ctx)
		}
	}

	history, err := p.store.ListRecent(p.cfg.History.MaxArticles)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	if err := p.renderer.Render(newArticles, history, run.FeedSize); err != nil {
		return fmt.Errorf("render site: %w", err)
	}

	return nil
}

// filterNew drops entries already in the archive, either by ID or by
// near-duplicate text.
func (p *Pipeline) filterNew(ctx context.Context, entries []feed.Entry, run *models.Run) ([]feed.Entry, error) {
	trigrams, err := p.store.RecentTrigrams(p.cfg.Similarity.RecentWindow)
	if err != nil {
		return nil, fmt.Errorf("load trigrams: %w", err)
	}

	var fresh []feed.Entry
	for _, entry := range entries {
		has, err := p.store.HasArticle(entry.ID)
		if err != nil {
			return nil, fmt.Errorf("check article %s: %w", entry.ID, err)
		}
		if has {
			run.Skipped++
			continue
		}
		if p.checker.IsTooSimilar(entry.Title+" "+entry.Description, trigrams) {
			slog.Debug("Skipping near-duplicate entry", "title", entry.Title)
			run.Skipped++
			continue
		}
		fresh = append(fresh, entry)
	}
	return fresh, nil
}

// scrapeBodies fetches article pages for fresh entries. Scrape failures are
// logged and the entry falls back to its RSS description.
func (p *Pipeline) scrapeBodies(ctx context.Context, fresh []feed.Entry) map[string]string {
	bodies := make(map[string]string, len(fresh))
	if p.scraper == nil || len(fresh) == 0 {
		return bodies
	}

	for _, res := range p.scraper.ScrapeEntries(ctx, fresh) {
		if res.Error != nil {
			slog.Debug("Article scrape failed", "id", res.EntryID, "error", res.Error)
			continue
		}
		bodies[res.EntryID] = res.Body
	}
	return bodies
}
