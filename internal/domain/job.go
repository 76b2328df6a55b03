package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is an end state. A job that has
// reached a terminal status is never mutated again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ModelTier selects the generation model quality level and drives the
// credit cost of a job.
type ModelTier string

const (
	ModelTierFlash ModelTier = "flash"
	ModelTierPro   ModelTier = "pro"
	ModelTierUltra ModelTier = "ultra"
)

// NormalizeModelTier sanitizes free-form input into a supported tier.
func NormalizeModelTier(tier string) ModelTier {
	switch ModelTier(tier) {
	case ModelTierPro:
		return ModelTierPro
	case ModelTierUltra:
		return ModelTierUltra
	default:
		return ModelTierFlash
	}
}

// Job encapsulates one generation request and its terminal outcome.
// A row is created in processing state and mutated exactly once, to a
// terminal state, by the background execution that owns it.
type Job struct {
	ID            string
	BusinessID    string
	Status        JobStatus
	Prompt        string
	AspectRatio   string
	StyleID       string
	SubjectID     string
	ModelTier     ModelTier
	ResultAssetID string
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
