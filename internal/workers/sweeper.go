// Package workers contains the background pieces of the reminder
// lifecycle: the sweeper that detects due reminders and the notifier
// that delivers them.
package workers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/models"
	"github.com/callnudge/call-nudge/internal/queue"
	"github.com/callnudge/call-nudge/internal/state"
)

const (
	// DefaultSweepInterval is how often the sweeper scans for due reminders
	DefaultSweepInterval = 15 * time.Second
)

// Sweeper periodically scans pending reminders and enqueues a notification
// job for each one whose scheduled time has passed.
type Sweeper struct {
	controller *state.Controller
	jobQueue   queue.JobQueue
	interval   time.Duration
	logger     *zap.Logger

	// enqueued tracks reminder IDs already dispatched, so a reminder that
	// stays pending across sweeps is not notified twice by this process
	enqueued map[uuid.UUID]struct{}
}

// NewSweeper creates a sweeper
func NewSweeper(controller *state.Controller, jobQueue queue.JobQueue, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		controller: controller,
		jobQueue:   jobQueue,
		interval:   interval,
		logger:     logger,
		enqueued:   make(map[uuid.UUID]struct{}),
	}
}

// Run sweeps until the context is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper_started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper_stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs a single scan
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now()
	status := models.ReminderStatusPending
	pending := s.controller.ListReminders(&status)

	// Drop bookkeeping for reminders that are gone or no longer pending
	current := make(map[uuid.UUID]struct{}, len(pending))
	for _, rem := range pending {
		current[rem.ID] = struct{}{}
	}
	for id := range s.enqueued {
		if _, ok := current[id]; !ok {
			delete(s.enqueued, id)
		}
	}

	for _, rem := range pending {
		if !rem.IsDue(now) {
			continue
		}
		if _, done := s.enqueued[rem.ID]; done {
			continue
		}

		job := queue.NewReminderDueJob(rem.ID, rem.ContactName, rem.Text)
		if err := s.jobQueue.Enqueue(ctx, job); err != nil {
			s.logger.Error("reminder_enqueue_failed",
				zap.String("reminder_id", rem.ID.String()),
				zap.Error(err),
			)
			continue
		}
		s.enqueued[rem.ID] = struct{}{}
		s.logger.Info("reminder_due_enqueued",
			zap.String("reminder_id", rem.ID.String()),
			zap.String("job_id", job.ID.String()),
		)
	}
}
