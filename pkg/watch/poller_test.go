package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"brandstudio/internal/domain"
)

func TestPollerStopsOnTerminalStatus(t *testing.T) {
	statuses := []domain.JobStatus{
		domain.JobStatusProcessing,
		domain.JobStatusProcessing,
		domain.JobStatusCompleted,
	}
	calls := 0
	p := NewPoller(func(ctx context.Context, jobID string) (*domain.Job, error) {
		status := statuses[calls]
		calls++
		return &domain.Job{ID: jobID, Status: status}, nil
	})
	p.SetIntervals(time.Millisecond, time.Second)

	var updates []domain.JobStatus
	job, err := p.Watch(context.Background(), "job-1", func(j *domain.Job) {
		updates = append(updates, j.Status)
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("expected completed, got %s", job.Status)
	}
	if calls != 3 {
		t.Fatalf("expected 3 status reads, got %d", calls)
	}
	if len(updates) != 3 || updates[2] != domain.JobStatusCompleted {
		t.Fatalf("unexpected update sequence: %v", updates)
	}
}

func TestPollerStopsOnFailedStatus(t *testing.T) {
	p := NewPoller(func(ctx context.Context, jobID string) (*domain.Job, error) {
		return &domain.Job{ID: jobID, Status: domain.JobStatusFailed}, nil
	})
	p.SetIntervals(time.Millisecond, time.Second)

	job, err := p.Watch(context.Background(), "job-1", nil)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
}

func TestPollerTimesOut(t *testing.T) {
	p := NewPoller(func(ctx context.Context, jobID string) (*domain.Job, error) {
		return &domain.Job{ID: jobID, Status: domain.JobStatusProcessing}, nil
	})
	p.SetIntervals(time.Millisecond, 20*time.Millisecond)

	_, err := p.Watch(context.Background(), "job-1", nil)
	if !errors.Is(err, ErrWatchTimeout) {
		t.Fatalf("expected ErrWatchTimeout, got %v", err)
	}
}

func TestPollerRetriesTransientErrors(t *testing.T) {
	calls := 0
	p := NewPoller(func(ctx context.Context, jobID string) (*domain.Job, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection reset")
		}
		return &domain.Job{ID: jobID, Status: domain.JobStatusCompleted}, nil
	})
	p.SetIntervals(time.Millisecond, time.Second)

	job, err := p.Watch(context.Background(), "job-1", nil)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("expected completed after retries, got %s", job.Status)
	}
	if calls != 3 {
		t.Fatalf("expected 3 reads, got %d", calls)
	}
}

func TestPollerHonorsCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(func(ctx context.Context, jobID string) (*domain.Job, error) {
		cancel()
		return &domain.Job{ID: jobID, Status: domain.JobStatusProcessing}, nil
	})
	p.SetIntervals(time.Millisecond, time.Minute)

	_, err := p.Watch(ctx, "job-1", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
