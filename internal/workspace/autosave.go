package workspace

import (
	"sync"
	"time"
)

// SchedulerState is the autosave state machine's current position.
type SchedulerState string

const (
	// StateIdle means no edit activity is pending a flush.
	StateIdle SchedulerState = "idle"
	// StatePending means the debounce timer is armed.
	StatePending SchedulerState = "editing-pending"
	// StateFlushed means the last quiet period expired and the buffer was
	// flushed without leaving edit mode.
	StateFlushed SchedulerState = "editing-flushed"
)

// DefaultQuietPeriod is the autosave debounce used when the config leaves
// it unset.
const DefaultQuietPeriod = 5 * time.Second

// Scheduler debounces edit-buffer mutations into a single flush after a
// quiet period. Each Touch restarts the timer; Cancel invalidates any
// armed timer so a stale flush can never fire after the buffer is gone.
type Scheduler struct {
	mu    sync.Mutex
	quiet time.Duration
	flush func()

	timer *time.Timer
	state SchedulerState
	gen   uint64
}

// NewScheduler creates a scheduler calling flush after quiet with no
// intervening Touch.
func NewScheduler(quiet time.Duration, flush func()) *Scheduler {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Scheduler{quiet: quiet, flush: flush, state: StateIdle}
}

// Touch restarts the debounce timer.
func (s *Scheduler) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, func() { s.fire(gen) })
	s.state = StatePending
}

// Cancel stops any armed timer and returns the scheduler to idle.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = StateIdle
}

// State returns the current state machine position.
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		// A Touch or Cancel superseded this timer.
		s.mu.Unlock()
		return
	}
	s.state = StateFlushed
	s.timer = nil
	s.mu.Unlock()

	s.flush()
}
