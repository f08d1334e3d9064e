package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/queue"
	"github.com/callnudge/call-nudge/internal/services/ai"
)

// Notifier delivers due-reminder notifications. Delivery is a structured log
// line plus, when voice is enabled, a synthesized spoken announcement.
type Notifier struct {
	aiProvider ai.Provider // nil when voice delivery is disabled
	jobQueue   queue.JobQueue
	logger     *zap.Logger
}

// NewNotifier creates a notifier
func NewNotifier(aiProvider ai.Provider, jobQueue queue.JobQueue, logger *zap.Logger) *Notifier {
	return &Notifier{
		aiProvider: aiProvider,
		jobQueue:   jobQueue,
		logger:     logger,
	}
}

// ProcessReminderDueJob delivers a single reminder notification
func (n *Notifier) ProcessReminderDueJob(ctx context.Context, job *queue.Job) error {
	n.logger.Info("reminder_notification",
		zap.String("reminder_id", job.ReminderID.String()),
		zap.String("contact_name", job.ContactName),
		zap.String("text", job.Text),
	)

	if n.aiProvider == nil {
		return nil
	}

	announcement := fmt.Sprintf("Reminder about your call with %s: %s", job.ContactName, job.Text)
	audio, err := n.aiProvider.SynthesizeSpeech(ctx, announcement)
	if err != nil {
		return fmt.Errorf("failed to synthesize announcement: %w", err)
	}
	n.logger.Info("reminder_announcement_synthesized",
		zap.String("reminder_id", job.ReminderID.String()),
		zap.Int("audio_bytes", len(audio)),
	)
	return nil
}

// ProcessJob dispatches a queue message and handles ack/nack
func (n *Notifier) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	switch job.Type {
	case queue.JobTypeReminderDue:
		if err := n.ProcessReminderDueJob(ctx, job); err != nil {
			return n.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			n.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError retries transient failures and dead-letters the rest
func (n *Notifier) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if ai.IsQuotaError(err) {
		// Speech quota exhausted; the log line already delivered the
		// notification, so don't hold the job for hours
		n.logger.Warn("notification_voice_skipped",
			zap.String("reminder_id", job.ReminderID.String()),
			zap.Error(err),
		)
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job after quota error: %w", ackErr)
		}
		return nil
	}

	if job.CanRetry() {
		job.IncrementRetry()
		n.logger.Warn("notification_retry",
			zap.String("reminder_id", job.ReminderID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err),
		)
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job before retry: %w", ackErr)
		}
		if enqErr := n.jobQueue.Enqueue(ctx, job); enqErr != nil {
			return fmt.Errorf("failed to re-enqueue job: %w", enqErr)
		}
		return nil
	}

	n.logger.Error("notification_failed",
		zap.String("reminder_id", job.ReminderID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil { // Exhausted retries, send to DLQ
		return fmt.Errorf("failed to nack job: %w", nackErr)
	}
	return err
}
