package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"brandstudio/internal/admission"
	"brandstudio/internal/assembler"
	"brandstudio/internal/domain"
	"brandstudio/internal/generation"
	"brandstudio/internal/infra"
	"brandstudio/internal/metrics"
	"brandstudio/internal/storage"
)

// ErrQueueFull is returned when the dispatch queue cannot accept
// another job. The debit is refunded and no row survives.
var ErrQueueFull = errors.New("dispatch queue full")

// Assembler is the content-assembly contract the executor depends on.
type Assembler interface {
	Assemble(ctx context.Context, prompt string, refs []assembler.Reference) ([]assembler.Part, error)
}

// SubmitRequest describes one generation request.
type SubmitRequest struct {
	BusinessID  string
	Prompt      string
	AspectRatio string
	StyleID     string
	SubjectID   string
	ModelTier   domain.ModelTier
	References  []assembler.Reference
}

type task struct {
	job    *domain.Job
	ticket *admission.Ticket
	refs   []assembler.Reference
}

// Executor owns the job lifecycle: admission, row creation, dispatch to
// a bounded worker pool, and the single terminal mutation per job. Each
// job row has exactly one writer after creation, the worker that
// received its task, so no locking is needed around job state.
type Executor struct {
	jobs      domain.JobRepository
	assets    domain.AssetRepository
	gate      *admission.Gate
	assemble  Assembler
	generator generation.Generator
	blobs     storage.BlobStore
	logger    infra.Logger

	queue   chan task
	workers int
	wg      sync.WaitGroup
}

// Options wires the executor's collaborators.
type Options struct {
	Jobs      domain.JobRepository
	Assets    domain.AssetRepository
	Gate      *admission.Gate
	Assembler Assembler
	Generator generation.Generator
	Blobs     storage.BlobStore
	Logger    infra.Logger
	Workers   int
	QueueSize int
}

// New constructs an Executor. Start must be called before Submit will
// make progress.
func New(opts Options) *Executor {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Executor{
		jobs:      opts.Jobs,
		assets:    opts.Assets,
		gate:      opts.Gate,
		assemble:  opts.Assembler,
		generator: opts.Generator,
		blobs:     opts.Blobs,
		logger:    opts.Logger,
		queue:     make(chan task, queueSize),
		workers:   workers,
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled;
// Wait blocks until they have drained.
func (e *Executor) Start(ctx context.Context) {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t := <-e.queue:
					e.run(ctx, t)
				}
			}
		}()
	}
	e.logger.Info().Int("workers", e.workers).Msg("executor: started")
}

// Wait blocks until all workers have stopped.
func (e *Executor) Wait() {
	e.wg.Wait()
}

// Submit admits, persists, and enqueues one job, returning it with the
// identifier the caller polls on. The call never blocks on generation:
// everything past row creation runs on the worker pool.
func (e *Executor) Submit(ctx context.Context, req SubmitRequest) (*domain.Job, error) {
	if req.Prompt == "" {
		return nil, domain.ErrInvalidPrompt
	}

	var ticket *admission.Ticket
	if !admission.IsDebugPrompt(req.Prompt) {
		var err error
		ticket, err = e.gate.Admit(ctx, req.BusinessID, req.ModelTier)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	job := &domain.Job{
		ID:          uuid.NewString(),
		BusinessID:  req.BusinessID,
		Status:      domain.JobStatusProcessing,
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		StyleID:     req.StyleID,
		SubjectID:   req.SubjectID,
		ModelTier:   req.ModelTier,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.jobs.Create(ctx, job); err != nil {
		if refundErr := e.gate.Refund(ctx, ticket); refundErr != nil {
			e.logger.Error().Err(refundErr).Str("business_id", req.BusinessID).Msg("executor: refund after create failure failed")
		}
		return nil, fmt.Errorf("create job: %w", err)
	}

	select {
	case e.queue <- task{job: job, ticket: ticket, refs: req.References}:
	default:
		if refundErr := e.gate.Refund(ctx, ticket); refundErr != nil {
			e.logger.Error().Err(refundErr).Str("job_id", job.ID).Msg("executor: refund after queue overflow failed")
		}
		if delErr := e.jobs.Delete(ctx, job.ID); delErr != nil {
			e.logger.Error().Err(delErr).Str("job_id", job.ID).Msg("executor: delete after queue overflow failed")
		}
		return nil, ErrQueueFull
	}

	e.logger.Info().
		Str("job_id", job.ID).
		Str("business_id", job.BusinessID).
		Str("tier", string(job.ModelTier)).
		Msg("executor: job dispatched")
	return job, nil
}

// run drives one job to its terminal state. It is the job row's only
// writer.
func (e *Executor) run(ctx context.Context, t task) {
	job := t.job
	e.logger.Info().Str("job_id", job.ID).Msg("executor: picked job")

	if delay := generation.DebugDelay(job.Prompt); delay > 0 {
		select {
		case <-ctx.Done():
			e.fail(ctx, t, "interrupted before generation")
			return
		case <-time.After(delay):
		}
	}

	parts, err := e.assemble.Assemble(ctx, job.Prompt, t.refs)
	if err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("executor: assembly failed")
		e.fail(ctx, t, fmt.Sprintf("could not assemble request context: %v", err))
		return
	}

	start := time.Now()
	img, err := e.generator.Generate(ctx, parts, generation.Constraints{
		AspectRatio: job.AspectRatio,
		Tier:        job.ModelTier,
	})
	metrics.ObserveGenerationLatency(string(job.ModelTier), time.Since(start).Seconds(), err == nil)
	if err != nil {
		if errors.Is(err, generation.ErrNoImage) {
			e.logger.Warn().Str("job_id", job.ID).Msg("executor: model returned no image")
		} else {
			e.logger.Error().Err(err).Str("job_id", job.ID).Msg("executor: generation call failed")
		}
		e.fail(ctx, t, "image generation failed")
		return
	}

	// A fresh key per attempt: blob uploads never overwrite.
	key := fmt.Sprintf("generated/%s/%s", job.ID, uuid.NewString())
	url, err := e.blobs.Upload(ctx, key, img.MIME, img.Data)
	if err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("executor: asset upload failed")
		e.fail(ctx, t, "could not persist generated image")
		return
	}

	asset := &domain.Asset{
		ID:          uuid.NewString(),
		BusinessID:  job.BusinessID,
		Kind:        domain.AssetKindImage,
		Content:     url,
		Prompt:      job.Prompt,
		AspectRatio: job.AspectRatio,
		StylePreset: job.StyleID,
		SubjectID:   job.SubjectID,
		ModelTier:   job.ModelTier,
		Width:       img.Width,
		Height:      img.Height,
		Bytes:       int64(len(img.Data)),
		CreatedAt:   time.Now(),
	}
	if err := e.assets.Create(ctx, asset); err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("executor: asset row write failed")
		e.fail(ctx, t, "could not record generated asset")
		return
	}

	if err := e.jobs.MarkCompleted(ctx, job.ID, asset.ID); err != nil {
		if errors.Is(err, domain.ErrJobSettled) {
			// The sweeper (or a delete) got there first. Its refund
			// stands; completing now would pay out twice.
			e.logger.Warn().Str("job_id", job.ID).Msg("executor: job settled elsewhere, completion discarded")
			return
		}
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("executor: completion write failed")
		e.fail(ctx, t, "could not record completion")
		return
	}

	metrics.IncJobProcessed(string(domain.JobStatusCompleted))
	e.logger.Info().
		Str("job_id", job.ID).
		Str("asset_id", asset.ID).
		Msg("executor: job completed")
}

// fail records the terminal failed state and refunds the admission
// debit. The refund is tied to winning the terminal write: when the
// write lost the race the other writer owns the refund.
func (e *Executor) fail(ctx context.Context, t task, msg string) {
	if err := e.jobs.MarkFailed(ctx, t.job.ID, msg); err != nil {
		if errors.Is(err, domain.ErrJobSettled) {
			e.logger.Warn().Str("job_id", t.job.ID).Msg("executor: job settled elsewhere, failure discarded")
			return
		}
		e.logger.Error().Err(err).Str("job_id", t.job.ID).Msg("executor: failure write failed")
	}
	if err := e.gate.Refund(ctx, t.ticket); err != nil {
		e.logger.Error().Err(err).Str("job_id", t.job.ID).Msg("executor: refund failed")
	}
	metrics.IncJobProcessed(string(domain.JobStatusFailed))
}

// RecoverOrphans fails processing rows that predate this process, so a
// restart cannot leave silently orphaned jobs. Call it before Start:
// once workers run, a processing row may legitimately belong to one of
// them.
func (e *Executor) RecoverOrphans(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	stale, err := e.jobs.ListStaleProcessing(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale jobs: %w", err)
	}
	for i := range stale {
		job := &stale[i]
		if err := e.jobs.MarkFailed(ctx, job.ID, "interrupted by service restart"); err != nil {
			if errors.Is(err, domain.ErrJobSettled) {
				// The owning worker finished between the list and the
				// write. No refund: the job resolved normally.
				continue
			}
			e.logger.Error().Err(err).Str("job_id", job.ID).Msg("executor: orphan failure write failed")
			continue
		}
		if !admission.IsDebugPrompt(job.Prompt) {
			ticket := &admission.Ticket{
				BusinessID: job.BusinessID,
				Tier:       job.ModelTier,
				Cost:       admission.Cost(job.ModelTier),
			}
			if err := e.gate.Refund(ctx, ticket); err != nil {
				e.logger.Error().Err(err).Str("job_id", job.ID).Msg("executor: orphan refund failed")
			}
		}
		metrics.IncJobProcessed(string(domain.JobStatusFailed))
		e.logger.Warn().Str("job_id", job.ID).Msg("executor: failed orphaned job on boot")
	}
	return nil
}
