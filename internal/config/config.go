package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Feed       FeedConfig       `yaml:"feed"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Similarity SimilarityConfig `yaml:"similarity"`
	History    HistoryConfig    `yaml:"history"`
	Site       SiteConfig       `yaml:"site"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type FeedConfig struct {
	URL            string `yaml:"url"`
	MaxArticles    int    `yaml:"max_articles"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
	ScrapeArticles bool   `yaml:"scrape_articles"`
	ScrapeParallel int    `yaml:"scrape_parallel"`
}

type SummarizerConfig struct {
	Provider       string `yaml:"provider"` // "openai" or "anthropic"
	Model          string `yaml:"model"`
	MaxBullets     int    `yaml:"max_bullets"`
	MinWords       int    `yaml:"min_words"`
	MaxWords       int    `yaml:"max_words"`
	RequestDelayMS int    `yaml:"request_delay_ms"`
}

type SimilarityConfig struct {
	Threshold    float64 `yaml:"threshold"`
	NGramSize    int     `yaml:"ngram_size"`
	RecentWindow int     `yaml:"recent_window"` // how many stored articles to compare against
}

type HistoryConfig struct {
	MaxArticles int `yaml:"max_articles"`
}

type SiteConfig struct {
	OutputDir    string `yaml:"output_dir"`
	Title        string `yaml:"title"`
	DisplayCount int    `yaml:"display_count"`
}

type ScheduleConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
	TickSeconds     int `yaml:"tick_seconds"`
}

type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	APIKey              string `yaml:"api_key"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() Config {
	return Config{
		Feed: FeedConfig{
			URL:            "https://www.boston.com/feed/",
			MaxArticles:    15,
			TimeoutSeconds: 30,
			UserAgent:      "SpeedRead/1.0 (News Summary Generator)",
			ScrapeArticles: false,
			ScrapeParallel: 5,
		},
		Summarizer: SummarizerConfig{
			Provider:       "openai",
			Model:          "",
			MaxBullets:     3,
			MinWords:       10,
			MaxWords:       20,
			RequestDelayMS: 500,
		},
		Similarity: SimilarityConfig{
			Threshold:    0.6,
			NGramSize:    3,
			RecentWindow: 200,
		},
		History: HistoryConfig{
			MaxArticles: 50,
		},
		Site: SiteConfig{
			OutputDir:    "./public",
			Title:        "Boston Speed Read",
			DisplayCount: 10,
		},
		Schedule: ScheduleConfig{
			IntervalMinutes: 120,
			TickSeconds:     60,
		},
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8080,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 30,
		},
		Database: DatabaseConfig{
			Path: "./speedread.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file and merges it over defaults.
// If the file does not exist, defaults are returned without error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("No config file found, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url must not be empty")
	}
	if c.Feed.MaxArticles <= 0 {
		return fmt.Errorf("feed.max_articles must be positive, got %d", c.Feed.MaxArticles)
	}
	if c.Summarizer.MaxBullets <= 0 || c.Summarizer.MaxBullets > 3 {
		return fmt.Errorf("summarizer.max_bullets must be 1-3, got %d", c.Summarizer.MaxBullets)
	}
	if c.Summarizer.MinWords > c.Summarizer.MaxWords {
		return fmt.Errorf("summarizer.min_words %d exceeds max_words %d", c.Summarizer.MinWords, c.Summarizer.MaxWords)
	}
	switch c.Summarizer.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown summarizer.provider %q (valid: openai, anthropic)", c.Summarizer.Provider)
	}
	if c.History.MaxArticles <= 0 {
		return fmt.Errorf("history.max_articles must be positive, got %d", c.History.MaxArticles)
	}
	return nil
}
