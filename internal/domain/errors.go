package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidPrompt       = errors.New("invalid prompt")
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrJobSettled is returned by a terminal write that found the row
	// already terminal or gone. The caller lost the race and must not
	// act on the job again.
	ErrJobSettled = errors.New("job already settled")
)
