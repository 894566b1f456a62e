package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	speedread "github.com/speedread/speedread"
	"github.com/speedread/speedread/internal/config"
	"github.com/speedread/speedread/internal/scheduler"
	"github.com/speedread/speedread/internal/store"
)

// Server exposes the rendered site plus a small JSON API over the archive.
type Server struct {
	cfg     config.Config
	store   *store.Store
	sched   *scheduler.Scheduler
	version string
	httpSrv *http.Server
}

func New(cfg config.Config, st *store.Store, sched *scheduler.Scheduler, version string) *Server {
	return &Server{
		cfg:     cfg,
		store:   st,
		sched:   sched,
		version: version,
	}
}

// Start sets up routes and starts the HTTP server. Blocks until the server
// stops.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	s.routes(mux)

	handler := recoveryMiddleware(loggingMiddleware(mux))

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	slog.Info("Starting server", "addr", addr)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)
	return recoveryMiddleware(loggingMiddleware(mux))
}

func (s *Server) routes(mux *http.ServeMux) {
	staticFS, _ := fs.Sub(speedread.StaticFS, "web/static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Rendered site files
	mux.HandleFunc("GET /{$}", s.serveSiteFile("index.html"))
	mux.HandleFunc("GET /news-data.json", s.serveSiteFile("news-data.json"))
	mux.HandleFunc("GET /news-history.json", s.serveSiteFile("news-history.json"))

	// JSON API
	mux.HandleFunc("GET /api/v1/articles", s.handleArticles)
	mux.HandleFunc("GET /api/v1/history", s.handleHistory)
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.Handle("POST /api/v1/refresh", s.requireAPIKey(http.HandlerFunc(s.handleRefresh)))
}

func (s *Server) serveSiteFile(name string) http.HandlerFunc {
	path := filepath.Join(s.cfg.Site.OutputDir, name)
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	}
}
