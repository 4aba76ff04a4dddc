// Package jobs schedules the periodic maintenance tasks of the reservation
// service.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/room-reservations/internal/persistence"
)

// SessionCleaner removes expired sessions.
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// ReservationReader lists reservations for the completion sweep.
type ReservationReader interface {
	ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error)
}

// Runner owns the cron scheduler.
type Runner struct {
	cron         *cron.Cron
	sessions     SessionCleaner
	reservations ReservationReader
	now          func() time.Time
	logger       *slog.Logger
}

// NewRunner constructs the job runner. Jobs are registered but not started.
func NewRunner(sessions SessionCleaner, reservations ReservationReader, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	runner := &Runner{
		cron:         cron.New(),
		sessions:     sessions,
		reservations: reservations,
		now:          time.Now,
		logger:       logger,
	}

	if sessions != nil {
		if _, err := runner.cron.AddFunc("@hourly", runner.purgeExpiredSessions); err != nil {
			return nil, err
		}
	}
	if reservations != nil {
		if _, err := runner.cron.AddFunc("@hourly", runner.sweepCompletedReservations); err != nil {
			return nil, err
		}
	}
	return runner, nil
}

// Start launches the scheduler in its own goroutine.
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info("job runner started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("job runner stopped")
}

func (r *Runner) purgeExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := r.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		r.logger.Error("session purge failed", "error", err)
		return
	}
	if removed > 0 {
		r.logger.Info("expired sessions purged", "count", removed)
	}
}

// sweepCompletedReservations reports reservations that ended in the last
// sweep window. Completion is a read-time classification, so the sweep only
// observes and logs; it never mutates rows.
func (r *Runner) sweepCompletedReservations() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := r.now()
	windowStart := now.Add(-time.Hour)
	ended, err := r.reservations.ListReservations(ctx, persistence.ReservationFilter{
		ActiveOnly:  true,
		EndedBefore: &now,
		EndsAfter:   &windowStart,
	})
	if err != nil {
		r.logger.Error("completed reservation sweep failed", "error", err)
		return
	}
	if len(ended) > 0 {
		r.logger.Info("reservations completed", "count", len(ended))
	}
}
