// Package schedule keeps at most one pending task per key. Scheduling a key
// that already has a pending task cancels and replaces it, which gives
// trailing-edge debounce and single-flight retries.
package schedule

import (
	"sync"
	"time"

	"github.com/raulk/clock"
)

// Scheduler is an arena of per-key timer handles driven by an injected
// clock. It is safe for concurrent use.
type Scheduler struct {
	clock clock.Clock

	mu     sync.Mutex
	closed bool
	gen    uint64
	tasks  map[string]task
}

type task struct {
	timer *clock.Timer
	gen   uint64
}

// New creates a Scheduler on clk. A nil clk uses the wall clock.
func New(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{clock: clk, tasks: make(map[string]task)}
}

// Schedule runs fn after d unless the key is replaced or cancelled first.
// It returns false when the scheduler is closed. fn runs on its own
// goroutine, never on the clock's.
func (s *Scheduler) Schedule(key string, d time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
	}

	s.gen++
	gen := s.gen
	s.tasks[key] = task{
		gen: gen,
		timer: s.clock.AfterFunc(d, func() {
			// Mock clocks fire while holding their own lock, and fn reads
			// the clock.
			go s.run(key, gen, fn)
		}),
	}
	return true
}

// run executes fn if key is still at generation gen. A timer stopped after
// it already fired still reaches here; the generation check drops it.
func (s *Scheduler) run(key string, gen uint64, fn func()) {
	if s.take(key, gen) {
		fn()
	}
}

// take removes the task for key if it is still generation gen.
func (s *Scheduler) take(key string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[key]
	if !ok || t.gen != gen || s.closed {
		return false
	}
	delete(s.tasks, key)
	return true
}

// Cancel drops the pending task for key. It reports whether one was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, key)
	return true
}

// Pending reports whether key has a task waiting to run.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tasks[key]
	return ok
}

// Close cancels every pending task. Later Schedule calls are rejected.
// Idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
}
