// Package clocktest wraps the raulk/clock mock so timers can be registered
// from background goroutines while a test advances time.
package clocktest

import (
	"sync"
	"time"

	"github.com/raulk/clock"
)

// Mock is a clock.Mock whose AfterFunc never overlaps with Add or Set.
// Timer callbacks must not register timers inline; hand off to a goroutine
// as schedule.Scheduler does.
type Mock struct {
	*clock.Mock

	mu sync.Mutex
}

var _ clock.Clock = (*Mock)(nil)

// NewMock returns a Mock set to the Unix epoch.
func NewMock() *Mock {
	return &Mock{Mock: clock.NewMock()}
}

// AfterFunc registers f to run once the mock time passes d from now.
func (m *Mock) AfterFunc(d time.Duration, f func()) *clock.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Mock.AfterFunc(d, f)
}

// Add advances the mock time by d, firing due timers.
func (m *Mock) Add(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mock.Add(d)
}

// Set moves the mock time to t, firing due timers.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mock.Set(t)
}
