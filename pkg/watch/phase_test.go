package watch

import (
	"testing"
	"time"

	"brandstudio/internal/domain"
)

func TestMachineWarmupToCruiseOnTime(t *testing.T) {
	start := time.Now()
	m := NewMachine(PhaseWarmup, start)

	if got := m.Advance(start.Add(DefaultWarmupDuration - time.Millisecond)); got != PhaseWarmup {
		t.Fatalf("expected warmup before duration elapsed, got %s", got)
	}
	if got := m.Advance(start.Add(DefaultWarmupDuration)); got != PhaseCruise {
		t.Fatalf("expected cruise after warmup duration, got %s", got)
	}
}

func TestMachineCruiseHoldsWithoutStatus(t *testing.T) {
	start := time.Now()
	m := NewMachine(PhaseCruise, start)

	if got := m.Advance(start.Add(time.Hour)); got != PhaseCruise {
		t.Fatalf("cruise should not end on time alone, got %s", got)
	}
}

func TestMachineCompletedTriggersDeceleration(t *testing.T) {
	start := time.Now()
	m := NewMachine(PhaseCruise, start)

	if got := m.Observe(domain.JobStatusCompleted, start); got != PhaseDeceleration {
		t.Fatalf("expected deceleration on completed, got %s", got)
	}
	if got := m.Advance(start.Add(DefaultDecelerationDuration - time.Millisecond)); got != PhaseDeceleration {
		t.Fatalf("expected deceleration before wind-down elapsed, got %s", got)
	}
	if got := m.Advance(start.Add(DefaultDecelerationDuration)); got != PhaseRevealed {
		t.Fatalf("expected revealed after wind-down, got %s", got)
	}
}

func TestMachineCompletedDuringWarmupSkipsCruise(t *testing.T) {
	start := time.Now()
	m := NewMachine(PhaseWarmup, start)

	if got := m.Observe(domain.JobStatusCompleted, start.Add(time.Second)); got != PhaseDeceleration {
		t.Fatalf("expected deceleration straight from warmup, got %s", got)
	}
}

func TestMachineFailedRevealsImmediately(t *testing.T) {
	start := time.Now()
	m := NewMachine(PhaseCruise, start)

	if got := m.Observe(domain.JobStatusFailed, start); got != PhaseRevealed {
		t.Fatalf("expected revealed on failed, got %s", got)
	}
}

func TestMachineNeverMovesBackward(t *testing.T) {
	start := time.Now()
	m := NewMachine(PhaseWarmup, start)

	m.Observe(domain.JobStatusCompleted, start)
	m.Advance(start.Add(DefaultDecelerationDuration))
	if got := m.Phase(); got != PhaseRevealed {
		t.Fatalf("setup: expected revealed, got %s", got)
	}

	m.Observe(domain.JobStatusCompleted, start.Add(time.Minute))
	m.Observe(domain.JobStatusProcessing, start.Add(time.Minute))
	m.Advance(start.Add(time.Hour))
	if got := m.Phase(); got != PhaseRevealed {
		t.Fatalf("revealed should be absorbing, got %s", got)
	}
}

func TestMachineResumeInCruise(t *testing.T) {
	start := time.Now()
	m := NewMachine(PhaseCruise, start)

	if got := m.Phase(); got != PhaseCruise {
		t.Fatalf("expected machine resumed in cruise, got %s", got)
	}
	// Elapsed warmup time before the resume must not matter.
	if got := m.Advance(start.Add(10 * DefaultWarmupDuration)); got != PhaseCruise {
		t.Fatalf("resumed machine should hold cruise, got %s", got)
	}
}

func TestMachineInvalidResumeFallsBackToWarmup(t *testing.T) {
	m := NewMachine(Phase("spinning"), time.Now())
	if got := m.Phase(); got != PhaseWarmup {
		t.Fatalf("expected warmup fallback, got %s", got)
	}
}

func TestMachineSetDurations(t *testing.T) {
	start := time.Now()
	m := NewMachine(PhaseWarmup, start)
	m.SetDurations(10*time.Millisecond, 20*time.Millisecond)

	if got := m.Advance(start.Add(10 * time.Millisecond)); got != PhaseCruise {
		t.Fatalf("expected cruise after shortened warmup, got %s", got)
	}
	m.Observe(domain.JobStatusCompleted, start.Add(time.Second))
	if got := m.Advance(start.Add(time.Second + 20*time.Millisecond)); got != PhaseRevealed {
		t.Fatalf("expected revealed after shortened wind-down, got %s", got)
	}
}
