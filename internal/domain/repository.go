package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for job rows. The job row is the
// single source of truth for job state.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	// MarkCompleted records the terminal completed state together with
	// the identifier of the produced asset. Only a processing row may
	// be completed; ErrJobSettled reports a lost race.
	MarkCompleted(ctx context.Context, jobID, resultAssetID string) error
	// MarkFailed records the terminal failed state with a
	// human-readable message. Only a processing row may be failed;
	// ErrJobSettled reports a lost race.
	MarkFailed(ctx context.Context, jobID, errMsg string) error
	// ListPendingByBusiness returns jobs that have not reached a
	// terminal state, for reload recovery.
	ListPendingByBusiness(ctx context.Context, businessID string) ([]Job, error)
	// ListStaleProcessing returns processing jobs older than the cutoff;
	// used on boot to fail orphans left by a crashed process.
	ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]Job, error)
	// Delete hard-deletes the row. It does not stop an in-flight
	// execution; callers treat deletion as "forget", not "abort".
	Delete(ctx context.Context, jobID string) error
}

// AssetRepository handles persistence for generated assets.
type AssetRepository interface {
	Create(ctx context.Context, asset *Asset) error
	GetByID(ctx context.Context, assetID string) (*Asset, error)
	ListByBusiness(ctx context.Context, businessID string) ([]Asset, error)
}

// CreditRepository holds per-business credit balances. Debit and Refund
// must be atomic at the storage layer; concurrent jobs for the same
// business share the balance.
type CreditRepository interface {
	Balance(ctx context.Context, businessID string) (int, error)
	// Debit subtracts amount if and only if the balance covers it,
	// returning ErrInsufficientCredits otherwise.
	Debit(ctx context.Context, businessID string, amount int) error
	Refund(ctx context.Context, businessID string, amount int) error
}
