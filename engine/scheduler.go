package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// tickInterval is how often the scheduler wakes to top up the queue.
	tickInterval = 25 * time.Millisecond
	// scheduleAhead is how far past the clock triggers are placed. It covers
	// several ticks so a late wakeup never drops a step.
	scheduleAhead = 0.1
)

// Scheduler drains upcoming steps from a store into an engine ahead of the
// audio clock. The running step count is handed to the store unwrapped so
// each track folds it into its own loop length; only the published position
// wraps to the 16-step grid. Stopping discards the cursor, so a restart
// begins at step zero.
type Scheduler struct {
	store *Store
	eng   *Engine

	mu       sync.Mutex
	running  bool
	quit     chan struct{}
	done     chan struct{}
	nextStep int64
	nextTime float64

	gridStep atomic.Int64 // published position, -1 when stopped
}

// NewScheduler couples a store to an engine.
func NewScheduler(store *Store, eng *Engine) *Scheduler {
	s := &Scheduler{store: store, eng: eng}
	s.gridStep.Store(-1)
	return s
}

// Running reports whether the transport is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// GridStep reports the most recently scheduled position on the 16-step grid,
// -1 while stopped.
func (s *Scheduler) GridStep() int {
	return int(s.gridStep.Load())
}

// Start begins playback from step zero. Starting a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.nextStep = 0
	s.nextTime = s.eng.Now()
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.quit, s.done)
}

// Stop halts playback and discards the step cursor. Voices already scheduled
// keep ringing out.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	quit, done := s.quit, s.done
	s.mu.Unlock()

	close(quit)
	<-done
	s.gridStep.Store(-1)
}

func (s *Scheduler) run(quit, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	s.drain()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			s.drain()
		}
	}
}

// drain schedules every step falling inside the lookahead window. Tempo is
// re-read per step so changes take effect at the next boundary; audibility is
// evaluated here, not at render time, so a mute lands one window late at
// worst.
func (s *Scheduler) drain() {
	s.mu.Lock()
	defer s.mu.Unlock()

	horizon := s.eng.Now() + scheduleAhead
	for s.nextTime < horizon {
		stepDur := 60.0 / s.store.Tempo() / 4.0
		for _, trig := range s.store.TriggersForStep(int(s.nextStep)) {
			s.eng.Trigger(trig.TrackID, trig.Params, trig.Note, trig.Velocity, s.nextTime, stepDur)
		}
		s.gridStep.Store(s.nextStep % PatternSteps)
		s.nextStep++
		s.nextTime += stepDur
	}
}
