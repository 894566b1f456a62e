package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/speedread/speedread/internal/models"
	"github.com/speedread/speedread/internal/scheduler"
)

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Site.DisplayCount
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	articles, err := s.store.ListRecent(limit)
	if err != nil {
		slog.Error("API: failed to list articles", "error", err)
		jsonError(w, "Failed to list articles", 500)
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}

	jsonResponse(w, map[string]any{"articles": articles})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	articles, err := s.store.ListRecent(s.cfg.History.MaxArticles)
	if err != nil {
		slog.Error("API: failed to list history", "error", err)
		jsonError(w, "Failed to list history", 500)
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}

	jsonResponse(w, map[string]any{
		"articles":      articles,
		"totalArticles": len(articles),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		slog.Error("API: failed to load stats", "error", err)
		jsonError(w, "Failed to load stats", 500)
		return
	}

	resp := map[string]any{
		"version": s.version,
		"stats":   stats,
	}

	last, err := s.store.LastRun()
	if err != nil {
		slog.Error("API: failed to load last run", "error", err)
		jsonError(w, "Failed to load last run", 500)
		return
	}
	if last != nil {
		resp["lastRun"] = last
		resp["nextRun"] = last.CreatedAt.Add(
			time.Duration(s.cfg.Schedule.IntervalMinutes) * time.Minute)
	}

	jsonResponse(w, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	run, err := s.sched.RunNow(r.Context())
	if err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, map[string]any{
		"feedSize":    run.FeedSize,
		"newArticles": run.NewArticles,
		"skipped":     run.Skipped,
		"fallbacks":   run.FallbackCount,
		"tokensUsed":  run.TokensUsed,
	})
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
