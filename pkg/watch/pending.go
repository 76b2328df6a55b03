package watch

import (
	"sync"
	"time"

	"brandstudio/internal/domain"
)

// Card is the in-memory projection of one submitted-but-unconfirmed
// generation: a locally generated placeholder id, the job id once the
// server assigned one, and the progress phase. Cards exist from submit
// time until the durable asset is confirmed present.
type Card struct {
	PlaceholderID string
	JobID         string
	Machine       *Machine
}

// PendingView tracks all in-flight cards and reconciles them against
// polled job state.
type PendingView struct {
	mu    sync.Mutex
	cards map[string]*Card // keyed by placeholder id
}

// NewPendingView constructs an empty view.
func NewPendingView() *PendingView {
	return &PendingView{cards: make(map[string]*Card)}
}

// Track creates a card at submit time, before the job id is known. The
// machine starts at the beginning of the sequence.
func (v *PendingView) Track(placeholderID string, now time.Time) *Card {
	v.mu.Lock()
	defer v.mu.Unlock()
	card := &Card{PlaceholderID: placeholderID, Machine: NewMachine(PhaseWarmup, now)}
	v.cards[placeholderID] = card
	return card
}

// Bind attaches the server-assigned job id to a placeholder.
func (v *PendingView) Bind(placeholderID, jobID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if card, ok := v.cards[placeholderID]; ok {
		card.JobID = jobID
	}
}

// Resume rebuilds cards for jobs that were already running before a
// reload. Each machine is constructed directly in cruise: replaying the
// warmup sequence for a job well underway would be pointless. The job
// id doubles as the placeholder id; the original one did not survive
// the reload.
func (v *PendingView) Resume(jobs []domain.Job, now time.Time) []*Card {
	v.mu.Lock()
	defer v.mu.Unlock()
	resumed := make([]*Card, 0, len(jobs))
	for _, job := range jobs {
		if job.Status.Terminal() {
			continue
		}
		card := &Card{
			PlaceholderID: job.ID,
			JobID:         job.ID,
			Machine:       NewMachine(PhaseCruise, now),
		}
		v.cards[job.ID] = card
		resumed = append(resumed, card)
	}
	return resumed
}

// ApplyStatus feeds a polled status into the matching card's machine.
// A failed job removes the card immediately: the client shows a generic
// failure and the refunded balance surfaces on the next balance read.
func (v *PendingView) ApplyStatus(jobID string, status domain.JobStatus, now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for key, card := range v.cards {
		if card.JobID != jobID {
			continue
		}
		card.Machine.Observe(status, now)
		if status == domain.JobStatusFailed {
			delete(v.cards, key)
		}
		return
	}
}

// Collapse destroys the card for a job whose asset is confirmed present
// in the durable asset list. It is the normal end of a card's life.
func (v *PendingView) Collapse(jobID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for key, card := range v.cards {
		if card.JobID == jobID {
			delete(v.cards, key)
			return
		}
	}
}

// Cards returns a snapshot of the live cards.
func (v *PendingView) Cards() []*Card {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*Card, 0, len(v.cards))
	for _, card := range v.cards {
		out = append(out, card)
	}
	return out
}
