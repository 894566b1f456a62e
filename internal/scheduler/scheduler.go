package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/speedread/speedread/internal/models"
	"github.com/speedread/speedread/internal/pipeline"
	"github.com/speedread/speedread/internal/store"
)

// ErrRunInProgress is returned by RunNow when another run holds the lock.
var ErrRunInProgress = errors.New("scheduler: a run is already in progress")

// Scheduler triggers pipeline runs on a fixed interval. A run fires when
// the last logged run is older than the interval, so restarts do not reset
// the clock.
type Scheduler struct {
	pipe     *pipeline.Pipeline
	store    *store.Store
	interval time.Duration
	tick     time.Duration
	mu       sync.Mutex // held while a run is in flight
}

func New(pipe *pipeline.Pipeline, st *store.Store, interval, tick time.Duration) *Scheduler {
	return &Scheduler{
		pipe:     pipe,
		store:    st,
		interval: interval,
		tick:     tick,
	}
}

// Run starts the scheduler loop and blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	slog.Info("Scheduler started", "interval", s.interval)

	// Check once immediately at startup
	s.checkAndRun(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.checkAndRun(ctx)
		}
	}
}

func (s *Scheduler) checkAndRun(ctx context.Context) {
	due, err := s.isDue()
	if err != nil {
		slog.Error("Failed to check last run", "error", err)
		return
	}
	if !due {
		return
	}

	if !s.mu.TryLock() {
		slog.Debug("Run already in progress, skipping tick")
		return
	}
	defer s.mu.Unlock()

	s.safeRun(ctx)
}

func (s *Scheduler) isDue() (bool, error) {
	last, err := s.store.LastRun()
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	return time.Since(last.CreatedAt) >= s.interval, nil
}

func (s *Scheduler) safeRun(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in pipeline run", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	if _, err := s.pipe.Run(ctx); err != nil {
		slog.Error("Scheduled run failed", "error", err)
	}
}

// RunNow triggers an immediate run, regardless of the interval. Returns
// ErrRunInProgress when a run is already in flight.
func (s *Scheduler) RunNow(ctx context.Context) (*models.Run, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	return s.pipe.Run(ctx)
}
