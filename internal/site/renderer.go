package site

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	speedread "github.com/speedread/speedread"
	"github.com/speedread/speedread/internal/models"
)

const (
	dataFile    = "news-data.json"
	historyFile = "news-history.json"
	indexFile   = "index.html"
)

// Renderer writes the static site: index.html plus the two JSON files
// consumed by external readers. All writes are atomic so a crash mid-run
// never leaves a half-written file behind.
type Renderer struct {
	outputDir    string
	title        string
	displayCount int
	maxHistory   int
	tmpl         *template.Template
}

type dataDoc struct {
	LastUpdated time.Time        `json:"lastUpdated"`
	Articles    []models.Article `json:"articles"`
	Stats       dataStats        `json:"stats"`
}

type dataStats struct {
	TotalProcessed int       `json:"totalProcessed"`
	FeedSize       int       `json:"feedSize"`
	Timestamp      time.Time `json:"timestamp"`
}

type historyDoc struct {
	LastUpdated   time.Time        `json:"lastUpdated"`
	Articles      []models.Article `json:"articles"`
	TotalArticles int              `json:"totalArticles"`
}

func New(outputDir, title string, displayCount, maxHistory int) (*Renderer, error) {
	funcMap := template.FuncMap{
		"timeAgo": func(t time.Time) string {
			d := time.Since(t)
			switch {
			case d < time.Minute:
				return "Just now"
			case d < time.Hour:
				return fmt.Sprintf("%dm ago", int(d.Minutes()))
			case d < 24*time.Hour:
				return fmt.Sprintf("%dh ago", int(d.Hours()))
			default:
				return fmt.Sprintf("%dd ago", int(d.Hours()/24))
			}
		},
	}

	tmpl, err := template.New("index.html").Funcs(funcMap).ParseFS(
		speedread.TemplateFS, "web/templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}

	return &Renderer{
		outputDir:    outputDir,
		title:        title,
		displayCount: displayCount,
		maxHistory:   maxHistory,
		tmpl:         tmpl,
	}, nil
}

// Render writes all three site files. newArticles holds this run's output,
// history holds the archive newest-first; both get windowed here while the
// database keeps everything.
func (r *Renderer) Render(newArticles, history []models.Article, feedSize int) error {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	now := time.Now().UTC()

	// A quiet run still writes JSON arrays, never null.
	display := newArticles
	if display == nil {
		display = []models.Article{}
	}
	if len(display) > r.displayCount {
		display = display[:r.displayCount]
	}
	if err := r.writeJSON(dataFile, dataDoc{
		LastUpdated: now,
		Articles:    display,
		Stats: dataStats{
			TotalProcessed: len(newArticles),
			FeedSize:       feedSize,
			Timestamp:      now,
		},
	}); err != nil {
		return err
	}

	if history == nil {
		history = []models.Article{}
	}
	if len(history) > r.maxHistory {
		history = history[:r.maxHistory]
	}
	if err := r.writeJSON(historyFile, historyDoc{
		LastUpdated:   now,
		Articles:      history,
		TotalArticles: len(history),
	}); err != nil {
		return err
	}

	return r.writeIndex(history, now)
}

func (r *Renderer) writeJSON(name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return r.writeFileAtomic(name, data)
}

func (r *Renderer) writeIndex(articles []models.Article, now time.Time) error {
	f, err := os.CreateTemp(r.outputDir, indexFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	defer os.Remove(f.Name())

	err = r.tmpl.Execute(f, map[string]any{
		"Title":       r.title,
		"LastUpdated": now,
		"Articles":    articles,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("render index: %w", err)
	}

	if err := os.Chmod(f.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(f.Name(), filepath.Join(r.outputDir, indexFile))
}

// writeFileAtomic writes to a temp file in the output dir and renames it
// over the target, so readers never see a partial file.
func (r *Renderer) writeFileAtomic(name string, data []byte) error {
	f, err := os.CreateTemp(r.outputDir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	defer os.Remove(f.Name())

	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	if err := os.Chmod(f.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(f.Name(), filepath.Join(r.outputDir, name))
}
