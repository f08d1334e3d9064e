package workers

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/callnudge/call-nudge/internal/models"
	"github.com/callnudge/call-nudge/internal/queue"
)

// mockMessage records ack/nack calls
type mockMessage struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (m *mockMessage) Ack() error { m.acked = true; return nil }
func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}
func (m *mockMessage) GetJob() *queue.Job { return m.job }

// speechProvider stubs the voice synthesis path
type speechProvider struct {
	audio []byte
	err   error
	calls int
}

func (p *speechProvider) ParseReminder(context.Context, string, time.Time) (*models.ParsedReminder, error) {
	return nil, fmt.Errorf("not implemented")
}

func (p *speechProvider) SynthesizeSpeech(context.Context, string) ([]byte, error) {
	p.calls++
	return p.audio, p.err
}

func (p *speechProvider) Transcribe(context.Context, io.Reader, string) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func dueJob() *queue.Job {
	return queue.NewReminderDueJob(uuid.New(), "Alice", "send the report")
}

func TestProcessJobAcksOnSuccess(t *testing.T) {
	t.Parallel()

	n := NewNotifier(nil, &fakeQueue{}, zap.NewNop())
	msg := &mockMessage{job: dueJob()}

	if err := n.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}
	if !msg.acked || msg.nacked {
		t.Error("Expected the job to be acked")
	}
}

func TestProcessJobSynthesizesAnnouncement(t *testing.T) {
	t.Parallel()

	provider := &speechProvider{audio: []byte("mp3")}
	n := NewNotifier(provider, &fakeQueue{}, zap.NewNop())
	msg := &mockMessage{job: dueJob()}

	if err := n.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("Expected 1 synthesis call, got %d", provider.calls)
	}
	if !msg.acked {
		t.Error("Expected the job to be acked")
	}
}

func TestProcessJobRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	provider := &speechProvider{err: fmt.Errorf("connection reset")}
	q := &fakeQueue{}
	n := NewNotifier(provider, q, zap.NewNop())
	msg := &mockMessage{job: dueJob()}

	if err := n.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}
	if !msg.acked {
		t.Error("Expected the original delivery to be acked before retry")
	}
	if q.count() != 1 {
		t.Fatalf("Expected the job re-enqueued, got %d", q.count())
	}
	if q.jobs[0].RetryCount != 1 {
		t.Errorf("Expected retry count 1, got %d", q.jobs[0].RetryCount)
	}
}

func TestProcessJobDeadLettersExhaustedJob(t *testing.T) {
	t.Parallel()

	provider := &speechProvider{err: fmt.Errorf("connection reset")}
	q := &fakeQueue{}
	n := NewNotifier(provider, q, zap.NewNop())

	job := dueJob()
	job.RetryCount = job.MaxRetries
	msg := &mockMessage{job: job}

	if err := n.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("Expected an error for an exhausted job")
	}
	if !msg.nacked || msg.requeue {
		t.Error("Expected a dead-letter nack")
	}
	if q.count() != 0 {
		t.Errorf("Expected no re-enqueue, got %d", q.count())
	}
}

func TestProcessJobAcksQuotaError(t *testing.T) {
	t.Parallel()

	provider := &speechProvider{err: fmt.Errorf("429 insufficient_quota")}
	q := &fakeQueue{}
	n := NewNotifier(provider, q, zap.NewNop())
	msg := &mockMessage{job: dueJob()}

	if err := n.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}
	// The log line already delivered the notification; no retry for quota
	if !msg.acked || q.count() != 0 {
		t.Error("Expected an ack with no re-enqueue for quota exhaustion")
	}
}

func TestProcessJobUnknownType(t *testing.T) {
	t.Parallel()

	n := NewNotifier(nil, &fakeQueue{}, zap.NewNop())
	job := dueJob()
	job.Type = "mystery"
	msg := &mockMessage{job: job}

	if err := n.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("Expected an error for unknown job type")
	}
	if !msg.nacked || msg.requeue {
		t.Error("Expected a dead-letter nack")
	}
}
