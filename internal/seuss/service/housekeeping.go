package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/seuss/internal/seuss/store"
)

// HousekeepingService periodically removes sessions that passed the idle
// timeout so the session table does not grow without bound.
type HousekeepingService struct {
	Sessions store.Sessions
	Logger   *slog.Logger
	Interval time.Duration
	Timeout  time.Duration
	Observer SessionObserver

	// Now defaults to time.Now.
	Now func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 minute.
func NewHousekeepingService(sessions store.Sessions, logger *slog.Logger, interval, timeout time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}

	return &HousekeepingService{
		Sessions: sessions,
		Logger:   logger,
		Interval: interval,
		Timeout:  timeout,
		Observer: nopSessionObserver{},
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup deletes idle sessions once and reports how many were removed.
func (s *HousekeepingService) Cleanup(ctx context.Context) int {
	if s.Timeout <= 0 {
		return 0
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	n, err := s.Sessions.DeleteIdleSessions(ctx, now().UTC().Add(-s.Timeout))
	if err != nil {
		s.Logger.Error("failed to delete idle sessions", "error", err)
		return 0
	}

	if n > 0 && s.Observer != nil {
		s.Observer.SessionsDeleted(DeleteReasonIdle, n)
	}
	s.Logger.Debug("housekeeping cleanup completed", "deleted_sessions", n)
	return n
}
