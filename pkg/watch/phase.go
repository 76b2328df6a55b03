package watch

import (
	"sync"
	"time"

	"brandstudio/internal/domain"
)

// Phase is one stage of the progress animation shown while a job runs.
// Phases are strictly ordered; a machine never moves backward.
type Phase string

const (
	PhaseWarmup       Phase = "warmup"
	PhaseCruise       Phase = "cruise"
	PhaseDeceleration Phase = "deceleration"
	PhaseRevealed     Phase = "revealed"
)

func (p Phase) rank() int {
	switch p {
	case PhaseWarmup:
		return 0
	case PhaseCruise:
		return 1
	case PhaseDeceleration:
		return 2
	case PhaseRevealed:
		return 3
	default:
		return -1
	}
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool { return p.rank() >= 0 }

const (
	// DefaultWarmupDuration is how long the indeterminate warmup stage
	// plays before settling into cruise.
	DefaultWarmupDuration = 3 * time.Second
	// DefaultDecelerationDuration is the wind-down played between the
	// completed status arriving and the result being exposed. It keeps
	// an unrealistically fast job from feeling abrupt.
	DefaultDecelerationDuration = 2 * time.Second
)

// Machine sequences the progress phases for one job. It is a pure state
// machine driven by two independent inputs: elapsed time (Advance) and
// the latest polled status (Observe). Cruise reflects no real progress
// fraction, since none is available from the model; it simply holds
// until the job resolves.
//
// The resume phase is a required constructor parameter: after a reload
// the machine is rebuilt directly in the persisted phase (typically
// cruise) instead of replaying warmup.
type Machine struct {
	mu           sync.Mutex
	phase        Phase
	enteredAt    time.Time
	warmup       time.Duration
	deceleration time.Duration
}

// NewMachine constructs a machine starting in the given phase at the
// given instant. An unknown resume phase falls back to warmup.
func NewMachine(resume Phase, now time.Time) *Machine {
	if !resume.Valid() {
		resume = PhaseWarmup
	}
	return &Machine{
		phase:        resume,
		enteredAt:    now,
		warmup:       DefaultWarmupDuration,
		deceleration: DefaultDecelerationDuration,
	}
}

// SetDurations overrides the fixed warmup and deceleration lengths.
func (m *Machine) SetDurations(warmup, deceleration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if warmup > 0 {
		m.warmup = warmup
	}
	if deceleration > 0 {
		m.deceleration = deceleration
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Advance applies the time-driven transitions: warmup ends after its
// fixed duration, and deceleration resolves into revealed after its
// wind-down. Cruise never ends on time alone.
func (m *Machine) Advance(now time.Time) Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.phase {
	case PhaseWarmup:
		if now.Sub(m.enteredAt) >= m.warmup {
			m.enter(PhaseCruise, now)
		}
	case PhaseDeceleration:
		if now.Sub(m.enteredAt) >= m.deceleration {
			m.enter(PhaseRevealed, now)
		}
	}
	return m.phase
}

// Observe applies the status-driven transitions. Observing completed
// starts the deceleration wind-down immediately, wherever the animation
// happens to be. Observing failed reveals at once: the card is torn
// down rather than animated. Revealed is absorbing; re-entering it is a
// no-op.
func (m *Machine) Observe(status domain.JobStatus, now time.Time) Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch status {
	case domain.JobStatusCompleted:
		m.enter(PhaseDeceleration, now)
	case domain.JobStatusFailed:
		m.enter(PhaseRevealed, now)
	}
	return m.phase
}

// enter moves to the target phase unless that would be a backward or
// null transition.
func (m *Machine) enter(target Phase, now time.Time) {
	if target.rank() <= m.phase.rank() {
		return
	}
	m.phase = target
	m.enteredAt = now
}
