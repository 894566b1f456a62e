package store

import (
	"database/sql"
	"errors"

	"github.com/speedread/speedread/internal/models"
)

// LogRun records the outcome of one pipeline run.
func (s *Store) LogRun(r *models.Run) error {
	result, err := s.conn.Exec(`
		INSERT INTO runs (feed_size, new_articles, skipped, fallback_count, tokens_used, error_message)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.FeedSize, r.NewArticles, r.Skipped, r.FallbackCount, r.TokensUsed,
		nullIfEmpty(r.ErrorMessage))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

// LastRun returns the most recent run, or nil when no run has happened yet.
func (s *Store) LastRun() (*models.Run, error) {
	var r models.Run
	var errMsg sql.NullString
	var createdAt string
	err := s.conn.QueryRow(`
		SELECT id, feed_size, new_articles, skipped, fallback_count, tokens_used,
		       error_message, created_at
		FROM runs ORDER BY id DESC LIMIT 1`).Scan(
		&r.ID, &r.FeedSize, &r.NewArticles, &r.Skipped, &r.FallbackCount,
		&r.TokensUsed, &errMsg, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.ErrorMessage = errMsg.String
	r.CreatedAt, _ = parseTime(createdAt)
	return &r, nil
}

// Stats aggregates archive-wide counters for the status endpoint.
func (s *Store) Stats() (models.Stats, error) {
	var st models.Stats

	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&st.TotalArticles); err != nil {
		return st, err
	}
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM articles WHERE fallback = 1`).Scan(&st.FallbackArticles); err != nil {
		return st, err
	}
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&st.TotalRuns); err != nil {
		return st, err
	}
	if err := s.conn.QueryRow(`SELECT COALESCE(SUM(tokens_used), 0) FROM runs`).Scan(&st.TotalTokensUsed); err != nil {
		return st, err
	}

	size, err := s.DatabaseSizeBytes()
	if err == nil {
		st.DatabaseSizeBytes = size
	}
	return st, nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
