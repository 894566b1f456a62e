package feed

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is a raw feed item before summarization.
type Entry struct {
	ID          string
	Title       string
	Link        string
	Description string
	PublishedAt time.Time
}

// FetchError reports a failed feed fetch. StatusCode is zero for transport
// errors that never produced a response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves and parses an RSS/Atom feed.
type Fetcher struct {
	url         string
	maxArticles int
	parser      *gofeed.Parser
}

func New(url string, maxArticles, timeoutSeconds int, userAgent string) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	return &Fetcher{
		url:         url,
		maxArticles: maxArticles,
		parser:      parser,
	}
}

// Fetch retrieves the feed and returns at most maxArticles entries in feed
// order. A network error or non-2xx response yields a *FetchError. When the
// configured URL turns out to be an HTML page, Fetch tries to discover the
// page's advertised RSS/Atom feed once and retries against it.
func (f *Fetcher) Fetch(ctx context.Context) ([]Entry, error) {
	parsed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &FetchError{URL: f.url, StatusCode: httpErr.StatusCode, Err: err}
		}
		// Not a feed? The configured URL may be the site homepage.
		if discovered := DiscoverFeed(ctx, f.url); discovered != "" && discovered != f.url {
			parsed, err = f.parser.ParseURLWithContext(discovered, ctx)
			if err != nil {
				return nil, &FetchError{URL: discovered, Err: err}
			}
			return f.entries(parsed), nil
		}
		return nil, &FetchError{URL: f.url, Err: err}
	}
	return f.entries(parsed), nil
}

func (f *Fetcher) entries(parsed *gofeed.Feed) []Entry {
	now := time.Now()
	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if len(entries) >= f.maxArticles {
			break
		}
		if item.Link == "" {
			continue
		}

		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}

		desc := item.Description
		if desc == "" {
			desc = item.Content
		}
		desc = Truncate(StripHTML(desc), 500)

		entries = append(entries, Entry{
			ID:          EntryID(item.Link),
			Title:       strings.TrimSpace(item.Title),
			Link:        item.Link,
			Description: desc,
			PublishedAt: pub,
		})
	}
	return entries
}

// EntryID derives a stable article ID from the entry link.
func EntryID(link string) string {
	sum := md5.Sum([]byte(link))
	return fmt.Sprintf("%x", sum)
}

// Truncate cuts s to at most n runes, appending "..." when shortened.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// StripHTML removes tags and collapses whitespace.
func StripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
