package store

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the append-only article archive. Articles are inserted once and
// never updated or deleted, so counts only ever grow.
type Store struct {
	conn *sql.DB
	path string
}

func New(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(2)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// DatabaseSizeBytes returns the file size of the database.
func (s *Store) DatabaseSizeBytes() (int64, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func parseTime(v string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", v)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id           TEXT    PRIMARY KEY,
			title        TEXT    NOT NULL,
			link         TEXT    NOT NULL,
			description  TEXT    NOT NULL DEFAULT '',
			published_at TEXT    NOT NULL,
			bullets      TEXT    NOT NULL,
			hook_type    TEXT    NOT NULL DEFAULT 'NEWS_UPDATE',
			provider     TEXT    NOT NULL DEFAULT 'fallback',
			model        TEXT    NOT NULL DEFAULT '',
			fallback     INTEGER NOT NULL DEFAULT 0,
			trigrams     TEXT    NOT NULL DEFAULT '',
			created_at   TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			feed_size      INTEGER NOT NULL DEFAULT 0,
			new_articles   INTEGER NOT NULL DEFAULT 0,
			skipped        INTEGER NOT NULL DEFAULT 0,
			fallback_count INTEGER NOT NULL DEFAULT 0,
			tokens_used    INTEGER NOT NULL DEFAULT 0,
			error_message  TEXT,
			created_at     TEXT    NOT NULL DEFAULT (datetime('now'))
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.conn.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w\nstatement: %s", err, stmt)
		}
	}

	return nil
}
