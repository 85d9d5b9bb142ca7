// Package env models the host environment a form lives in as an explicit
// event source. Save triggers subscribe to a Bus instead of reading globals.
package env

import (
	"sort"
	"sync"
)

// Kind identifies an environment event.
type Kind int

const (
	Blur Kind = iota + 1
	Focus
	Hidden
	Visible
	Online
	Offline
	BeforeUnload
)

var kindNames = map[Kind]string{
	Blur:         "blur",
	Focus:        "focus",
	Hidden:       "hidden",
	Visible:      "visible",
	Online:       "online",
	Offline:      "offline",
	BeforeUnload: "beforeunload",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseKind maps an event name such as "blur" back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// KindNames returns every event name, sorted.
func KindNames() []string {
	names := make([]string, 0, len(kindNames))
	for _, n := range kindNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Event is delivered to subscribers. BeforeUnload events carry a Guard that
// subscribers use to veto the unload.
type Event struct {
	Kind  Kind
	Guard *UnloadGuard
}

// UnloadGuard is a cancellable navigation guard.
type UnloadGuard struct {
	mu        sync.Mutex
	cancelled bool
	message   string
}

// Cancel vetoes the unload with a user-facing message. The first message wins.
func (g *UnloadGuard) Cancel(message string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.cancelled {
		g.cancelled, g.message = true, message
	}
}

// Cancelled reports whether a subscriber vetoed the unload, and why.
func (g *UnloadGuard) Cancelled() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancelled, g.message
}

// Source is what the orchestrator subscribes to.
type Source interface {
	// Subscribe registers fn for every event and returns a function that
	// removes it.
	Subscribe(fn func(Event)) (unsubscribe func())

	// Online reports the current connectivity.
	Online() bool
}

// Bus is an in-process Source. Events are delivered synchronously on the
// emitting goroutine, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	next   uint64
	subs   map[uint64]func(Event)
	online bool
}

var _ Source = (*Bus)(nil)

// NewBus creates a Bus that starts online.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]func(Event)), online: true}
}

// Subscribe registers fn.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Online reports the last connectivity state emitted.
func (b *Bus) Online() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.online
}

// Emit delivers an event of the given kind. Online and Offline are only
// delivered on a connectivity transition. Emitting BeforeUnload through Emit
// ignores any veto; use RequestUnload to observe it.
func (b *Bus) Emit(kind Kind) {
	if kind == BeforeUnload {
		b.RequestUnload()
		return
	}

	b.mu.Lock()
	switch kind {
	case Online, Offline:
		online := kind == Online
		if b.online == online {
			b.mu.Unlock()
			return
		}
		b.online = online
	}
	b.mu.Unlock()

	b.deliver(Event{Kind: kind})
}

// RequestUnload asks subscribers whether the page may unload. It returns
// false and the veto message when any subscriber cancelled.
func (b *Bus) RequestUnload() (allowed bool, message string) {
	guard := &UnloadGuard{}
	b.deliver(Event{Kind: BeforeUnload, Guard: guard})
	cancelled, msg := guard.Cancelled()
	return !cancelled, msg
}

func (b *Bus) deliver(ev Event) {
	b.mu.RLock()
	ids := make([]uint64, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
