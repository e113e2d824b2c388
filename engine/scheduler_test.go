package engine

import (
	"testing"
	"time"
)

func newTestTransport() (*Store, *Engine, *Scheduler) {
	s := NewStore()
	eng := NewEngine(44100, s.Tempo(), s.GlobalFX())
	return s, eng, NewScheduler(s, eng)
}

func TestSchedulerStartStopLifecycle(t *testing.T) {
	_, _, sched := newTestTransport()
	if sched.Running() {
		t.Fatal("new scheduler should not be running")
	}
	if got := sched.GridStep(); got != -1 {
		t.Fatalf("stopped grid step = %d, want -1", got)
	}

	sched.Start()
	if !sched.Running() {
		t.Fatal("scheduler should run after Start")
	}
	sched.Start() // no-op on a running scheduler

	// The first drain runs as the goroutine comes up.
	time.Sleep(60 * time.Millisecond)
	if got := sched.GridStep(); got < 0 {
		t.Fatalf("running grid step = %d, want >= 0", got)
	}

	sched.Stop()
	if sched.Running() {
		t.Fatal("scheduler should stop after Stop")
	}
	if got := sched.GridStep(); got != -1 {
		t.Fatalf("grid step after stop = %d, want -1", got)
	}
	sched.Stop() // safe on a stopped scheduler
}

func TestSchedulerPlacesTriggersAhead(t *testing.T) {
	s, eng, sched := newTestTransport()
	s.SetStep(0, 0, true)

	sched.Start()
	defer sched.Stop()
	time.Sleep(60 * time.Millisecond)

	if got := eng.ActiveVoices(); got < 1 {
		t.Fatalf("active voices = %d, want >= 1", got)
	}
}

func TestSchedulerRestartBeginsAtStepZero(t *testing.T) {
	_, _, sched := newTestTransport()
	sched.Start()
	time.Sleep(30 * time.Millisecond)
	sched.Stop()

	sched.Start()
	defer sched.Stop()
	time.Sleep(30 * time.Millisecond)
	// The engine clock never advanced, so only step zero fits the window.
	if got := sched.GridStep(); got != 0 {
		t.Fatalf("grid step after restart = %d, want 0", got)
	}
}
