package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/speedread/speedread/internal/feed"
)

// Scraper fetches article pages to enrich summarizer input beyond the RSS
// description. Failures are reported per entry and never abort a run.
type Scraper struct {
	userAgent      string
	requestTimeout time.Duration
	parallelLimit  int
	maxLength      int
}

// Result holds the outcome of scraping one entry.
type Result struct {
	EntryID string
	Body    string
	Error   error
}

func New(userAgent string, parallelLimit int) *Scraper {
	if parallelLimit <= 0 {
		parallelLimit = 5
	}
	return &Scraper{
		userAgent:      userAgent,
		requestTimeout: 30 * time.Second,
		parallelLimit:  parallelLimit,
		maxLength:      8000,
	}
}

// ScrapeArticle extracts readable text from a single article page.
func (s *Scraper) ScrapeArticle(ctx context.Context, link string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.requestTimeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	var content strings.Builder
	var mu sync.Mutex

	contentSelectors := []string{
		"article", "main", ".content", ".post",
		".article", ".entry-content", "#content",
	}
	for _, selector := range contentSelectors {
		c.OnHTML(selector, func(e *colly.HTMLElement) {
			mu.Lock()
			defer mu.Unlock()
			text := cleanText(e.Text)
			if len(text) > 100 {
				content.WriteString(text)
				content.WriteString("\n\n")
			}
		})
	}

	c.OnHTML("p", func(e *colly.HTMLElement) {
		mu.Lock()
		defer mu.Unlock()
		text := cleanText(e.Text)
		if len(text) > 50 && len(text) < 2000 {
			content.WriteString(text)
			content.WriteString("\n")
		}
	})

	var scrapeErr error
	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = fmt.Errorf("scrape error for %s: %w (status: %d)", link, err, r.StatusCode)
	})

	if err := c.Visit(link); err != nil {
		return "", fmt.Errorf("failed to visit %s: %w", link, err)
	}
	c.Wait()

	if scrapeErr != nil {
		return "", scrapeErr
	}

	body := content.String()
	if len(body) < 100 {
		return "", fmt.Errorf("insufficient content scraped from %s", link)
	}
	if len(body) > s.maxLength {
		body = body[:s.maxLength] + "..."
	}
	return body, nil
}

// ScrapeEntries scrapes multiple article pages concurrently.
func (s *Scraper) ScrapeEntries(ctx context.Context, entries []feed.Entry) []Result {
	var results []Result
	var mu sync.Mutex

	sem := make(chan struct{}, s.parallelLimit)
	var wg sync.WaitGroup

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return results
		default:
		}

		wg.Add(1)
		go func(e feed.Entry) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					results = append(results, Result{
						EntryID: e.ID,
						Error:   fmt.Errorf("panic while scraping: %v", r),
					})
					mu.Unlock()
				}
			}()

			sem <- struct{}{}
			defer func() { <-sem }()

			body, err := s.ScrapeArticle(ctx, e.Link)

			mu.Lock()
			results = append(results, Result{
				EntryID: e.ID,
				Body:    body,
				Error:   err,
			})
			mu.Unlock()
		}(entry)
	}

	wg.Wait()
	return results
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
