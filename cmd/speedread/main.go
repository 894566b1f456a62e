package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/speedread/speedread/internal/ai"
	"github.com/speedread/speedread/internal/config"
	"github.com/speedread/speedread/internal/feed"
	"github.com/speedread/speedread/internal/pipeline"
	"github.com/speedread/speedread/internal/scheduler"
	"github.com/speedread/speedread/internal/scraper"
	"github.com/speedread/speedread/internal/server"
	"github.com/speedread/speedread/internal/similarity"
	"github.com/speedread/speedread/internal/site"
	"github.com/speedread/speedread/internal/store"
	"github.com/speedread/speedread/internal/summarizer"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	runOnce := flag.Bool("once", false, "Run one pipeline cycle and exit")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Speed Read %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// API keys come from the environment; a .env file is optional.
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logging.Level)

	slog.Info("Starting Speed Read", "version", version)

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	slog.Info("Database initialized", "path", cfg.Database.Path)

	pipe, err := buildPipeline(cfg, st)
	if err != nil {
		slog.Error("Failed to build pipeline", "error", err)
		os.Exit(1)
	}

	if *runOnce {
		if _, err := pipe.Run(context.Background()); err != nil {
			slog.Error("Run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sched := scheduler.New(pipe, st,
		time.Duration(cfg.Schedule.IntervalMinutes)*time.Minute,
		time.Duration(cfg.Schedule.TickSeconds)*time.Second)

	srv := server.New(cfg, st, sched, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
		srv.Shutdown(context.Background())
	}()

	slog.Info("Server listening", "addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func buildPipeline(cfg config.Config, st *store.Store) (*pipeline.Pipeline, error) {
	opts := ai.ClientOpts{
		Provider:    cfg.Summarizer.Provider,
		Model:       cfg.Summarizer.Model,
		MaxBullets:  cfg.Summarizer.MaxBullets,
		MinWords:    cfg.Summarizer.MinWords,
		MaxWords:    cfg.Summarizer.MaxWords,
		Temperature: 0.3,
		MaxTokens:   200,
	}

	aiClient, err := ai.NewClient(opts)
	if errors.Is(err, ai.ErrNoCredentials) {
		slog.Warn("No API key set, summaries will use fallback text",
			"provider", cfg.Summarizer.Provider)
		aiClient = nil
	} else if err != nil {
		return nil, err
	}

	fetcher := feed.New(cfg.Feed.URL, cfg.Feed.MaxArticles, cfg.Feed.TimeoutSeconds, cfg.Feed.UserAgent)

	var scr *scraper.Scraper
	if cfg.Feed.ScrapeArticles {
		scr = scraper.New(cfg.Feed.UserAgent, cfg.Feed.ScrapeParallel)
	}

	summ := summarizer.New(aiClient, opts, feedHost(cfg.Feed.URL),
		time.Duration(cfg.Summarizer.RequestDelayMS)*time.Millisecond)

	checker := similarity.New(cfg.Similarity.Threshold, cfg.Similarity.NGramSize)

	renderer, err := site.New(cfg.Site.OutputDir, cfg.Site.Title, cfg.Site.DisplayCount, cfg.History.MaxArticles)
	if err != nil {
		return nil, err
	}

	return pipeline.New(cfg, fetcher, scr, summ, checker, st, renderer), nil
}

// feedHost extracts a display name like "Boston.com" from the feed URL.
func feedHost(rawURL string) string {
	host := rawURL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "the source site"
	}
	// Capitalize the first letter for display ("boston.com" -> "Boston.com")
	return strings.ToUpper(host[:1]) + host[1:]
}
