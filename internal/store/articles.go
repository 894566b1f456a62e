package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/speedread/speedread/internal/models"
	"github.com/speedread/speedread/internal/similarity"
)

// InsertArticle adds a new article to the archive. The bullets slice is
// stored as a JSON array.
func (s *Store) InsertArticle(a *models.Article) error {
	bullets, err := json.Marshal(a.Bullets)
	if err != nil {
		return fmt.Errorf("marshal bullets: %w", err)
	}

	_, err = s.conn.Exec(`
		INSERT INTO articles (id, title, link, description, published_at, bullets,
		                      hook_type, provider, model, fallback, trigrams)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Link, a.Description,
		a.PublishedAt.UTC().Format("2006-01-02 15:04:05"),
		string(bullets), a.HookType, a.Provider, a.Model,
		boolToInt(a.Fallback), a.Trigrams)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// HasArticle reports whether an article ID is already in the archive.
func (s *Store) HasArticle(id string) (bool, error) {
	var n int
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM articles WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListRecent returns the newest articles, most recently processed first.
func (s *Store) ListRecent(limit int) ([]models.Article, error) {
	rows, err := s.conn.Query(`
		SELECT id, title, link, description, published_at, bullets,
		       hook_type, provider, model, fallback, created_at
		FROM articles
		ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// CountArticles returns the total number of archived articles.
func (s *Store) CountArticles() (int, error) {
	var n int
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&n)
	return n, err
}

// RecentTrigrams returns trigram sets for the newest articles, for
// similarity checks against incoming entries.
func (s *Store) RecentTrigrams(limit int) ([]similarity.StoredTrigrams, error) {
	rows, err := s.conn.Query(`
		SELECT id, trigrams FROM articles
		WHERE trigrams != ''
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []similarity.StoredTrigrams
	for rows.Next() {
		var st similarity.StoredTrigrams
		if err := rows.Scan(&st.ID, &st.Trigrams); err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

func scanArticles(rows *sql.Rows) ([]models.Article, error) {
	var articles []models.Article
	for rows.Next() {
		var a models.Article
		var publishedAt, bullets, createdAt string
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Link, &a.Description, &publishedAt, &bullets,
			&a.HookType, &a.Provider, &a.Model, &a.Fallback, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if err := json.Unmarshal([]byte(bullets), &a.Bullets); err != nil {
			return nil, fmt.Errorf("unmarshal bullets for %s: %w", a.ID, err)
		}
		a.PublishedAt, _ = parseTime(publishedAt)
		a.CreatedAt, _ = parseTime(createdAt)
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// ArticlesSince returns articles processed after the given time, oldest
// first. Used by the status endpoint.
func (s *Store) ArticlesSince(t time.Time) ([]models.Article, error) {
	rows, err := s.conn.Query(`
		SELECT id, title, link, description, published_at, bullets,
		       hook_type, provider, model, fallback, created_at
		FROM articles
		WHERE created_at > ?
		ORDER BY created_at`, t.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}
