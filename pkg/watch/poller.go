package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brandstudio/internal/domain"
)

// ErrWatchTimeout is returned when a job produced no terminal status
// within the safety timeout. Polling stops so an abandoned job cannot
// leak a ticking loop.
var ErrWatchTimeout = errors.New("watch: job did not settle before timeout")

const (
	// DefaultPollInterval is the fixed delay between status checks.
	DefaultPollInterval = 2 * time.Second
	// DefaultWatchTimeout is the safety cap on one job's polling loop.
	DefaultWatchTimeout = 5 * time.Minute
)

// StatusFunc reads the current state of a job. Reads are idempotent and
// never mutate server state.
type StatusFunc func(ctx context.Context, jobID string) (*domain.Job, error)

// Poller drives fixed-interval status checks for individual jobs.
type Poller struct {
	status   StatusFunc
	interval time.Duration
	timeout  time.Duration
}

// NewPoller constructs a poller over a status reader.
func NewPoller(status StatusFunc) *Poller {
	return &Poller{
		status:   status,
		interval: DefaultPollInterval,
		timeout:  DefaultWatchTimeout,
	}
}

// SetIntervals overrides the poll interval and safety timeout.
func (p *Poller) SetIntervals(interval, timeout time.Duration) {
	if interval > 0 {
		p.interval = interval
	}
	if timeout > 0 {
		p.timeout = timeout
	}
}

// Watch polls the job until a terminal status arrives, invoking
// onUpdate with every successful read. It returns the terminal job, or
// ErrWatchTimeout when the safety timeout fires first. A transient read
// error does not stop the loop; the next tick retries.
func (p *Poller) Watch(ctx context.Context, jobID string, onUpdate func(*domain.Job)) (*domain.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		job, err := p.status(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, watchErr(ctx.Err())
			}
		} else {
			if onUpdate != nil {
				onUpdate(job)
			}
			if job.Status.Terminal() {
				return job, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, watchErr(ctx.Err())
		case <-ticker.C:
		}
	}
}

func watchErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrWatchTimeout
	}
	return fmt.Errorf("watch: %w", err)
}
