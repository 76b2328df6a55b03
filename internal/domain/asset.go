package domain

import "time"

// AssetKind enumerates asset types.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
)

// Asset represents a generated artifact owned by a business. Assets are
// created only when a job completes and are immutable thereafter.
type Asset struct {
	ID          string
	BusinessID  string
	Kind        AssetKind
	Content     string // public retrieval URL
	Prompt      string
	AspectRatio string
	StylePreset string
	SubjectID   string
	ModelTier   ModelTier
	Width       int
	Height      int
	Bytes       int64
	CreatedAt   time.Time
}
