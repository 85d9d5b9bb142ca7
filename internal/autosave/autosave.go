// Package autosave wraps a persistence engine with retry and backoff,
// connectivity awareness, and environment save triggers (blur, hidden,
// online, before unload).
package autosave

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/jpillora/backoff"
	"github.com/raulk/clock"

	"github.com/mesh-intelligence/formdraft/internal/env"
	"github.com/mesh-intelligence/formdraft/internal/persist"
	"github.com/mesh-intelligence/formdraft/internal/schedule"
	"github.com/mesh-intelligence/formdraft/pkg/types"
)

var log = logging.Logger("autosave")

const taskRetry = "retry"

// UnloadMessage is the confirmation text attached to a cancelled unload.
const UnloadMessage = "You have unsaved changes. Are you sure you want to leave?"

// Callbacks are optional. They run on the goroutine that completed the
// save attempt, outside every orchestrator lock.
type Callbacks struct {
	OnRestore           func(data map[string]any)
	OnLoadError         func(err error)
	OnSaveSuccess       func(data map[string]any)
	OnSaveError         func(err error, retryCount int)
	OnMaxRetriesReached func(err error)
}

// Config describes one auto-saved form.
type Config struct {
	Key         string
	InitialData map[string]any
	Options     types.Options
	Store       types.Store

	// Clock drives every timer. Nil uses the wall clock.
	Clock clock.Clock

	// Env supplies environment events. Nil means always online with no
	// triggers.
	Env env.Source

	Callbacks Callbacks
}

// Orchestrator drives saves for one form and owns its engine.
type Orchestrator struct {
	engine *persist.Engine
	opts   types.Options
	cb     Callbacks
	sched  *schedule.Scheduler
	unsub  func()

	// online and loading are read from the engine guard and callbacks,
	// which run under the engine lock, so they are atomics.
	online  atomic.Bool
	loading atomic.Bool

	mu         sync.Mutex
	closed     bool
	retryCount int
	exhausted  bool
	lastSaveOK bool
}

// New builds the engine and subscribes to cfg.Env.
func New(cfg Config) (*Orchestrator, error) {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	o := &Orchestrator{
		opts:  cfg.Options,
		cb:    cfg.Callbacks,
		sched: schedule.New(clk),
	}
	o.online.Store(cfg.Env == nil || cfg.Env.Online())

	engine, err := persist.New(persist.Config{
		Key:         cfg.Key,
		InitialData: cfg.InitialData,
		Options:     cfg.Options,
		Store:       cfg.Store,
		Clock:       clk,
		Events: persist.Events{
			OnRestore: cfg.Callbacks.OnRestore,
			OnSave:    o.saved,
			OnError:   o.failed,
		},
		Guard: o.allowFlush,
	})
	if err != nil {
		o.sched.Close()
		return nil, err
	}
	o.engine = engine

	if cfg.Env != nil {
		o.unsub = cfg.Env.Subscribe(o.handle)
	}
	return o, nil
}

// Engine exposes the wrapped persistence engine.
func (o *Orchestrator) Engine() *persist.Engine { return o.engine }

// Load restores the stored draft.
func (o *Orchestrator) Load() error {
	o.loading.Store(true)
	defer o.loading.Store(false)
	return o.engine.Load()
}

// UpdateField merges one field and schedules a debounced save.
func (o *Orchestrator) UpdateField(name string, value any) error {
	o.touch()
	return o.engine.UpdateField(name, value)
}

// SaveData replaces the snapshot; see persist.Engine.SaveData.
func (o *Orchestrator) SaveData(data map[string]any, immediate bool) error {
	o.touch()
	return o.engine.SaveData(data, immediate)
}

// Save is an explicit save trigger. It resets the retry budget, cancels a
// pending retry and writes the current snapshot now.
func (o *Orchestrator) Save() error {
	if !o.reset() {
		return types.ErrClosed
	}
	return o.engine.SaveImmediately()
}

// Clear removes the stored draft and forgets retry state.
func (o *Orchestrator) Clear() error {
	if !o.reset() {
		return types.ErrClosed
	}
	o.mu.Lock()
	o.lastSaveOK = false
	o.mu.Unlock()
	return o.engine.ClearData()
}

// RetryCount returns the number of retries scheduled since the last
// success or explicit trigger.
func (o *Orchestrator) RetryCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.retryCount
}

// Online reports the last known connectivity.
func (o *Orchestrator) Online() bool { return o.online.Load() }

// GetSaveStatus derives the status shown to the user. Saving wins, then a
// terminal error once retries are exhausted, then saved while nothing has
// changed since the last success, then unsaved, else idle.
func (o *Orchestrator) GetSaveStatus() types.SaveStatus {
	s := o.engine.State()

	o.mu.Lock()
	exhausted, lastOK := o.exhausted, o.lastSaveOK
	o.mu.Unlock()

	switch {
	case s.SaveStatus == types.StatusSaving:
		return types.StatusSaving
	case exhausted:
		return types.StatusError
	case lastOK && !s.HasUnsavedChanges:
		return types.StatusSaved
	case s.HasUnsavedChanges:
		return types.StatusUnsaved
	default:
		return types.StatusIdle
	}
}

// Close unsubscribes from the environment and cancels every pending timer.
// Pending changes are not flushed; hosts flush through the unload path.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	unsub := o.unsub
	o.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	o.sched.Close()
	return o.engine.Close()
}

// touch marks that the snapshot changed since the last success.
func (o *Orchestrator) touch() {
	o.mu.Lock()
	o.lastSaveOK = false
	o.mu.Unlock()
}

// reset restores the retry budget. It reports false once closed.
func (o *Orchestrator) reset() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	o.retryCount = 0
	o.exhausted = false
	o.sched.Cancel(taskRetry)
	return true
}

// allowFlush gates debounced engine flushes. It runs under the engine lock.
func (o *Orchestrator) allowFlush() bool {
	return o.opts.Enabled && o.online.Load()
}

func (o *Orchestrator) saved(data map[string]any) {
	o.mu.Lock()
	o.retryCount = 0
	o.exhausted = false
	o.lastSaveOK = true
	o.sched.Cancel(taskRetry)
	o.mu.Unlock()

	log.Debugw("auto-save succeeded", "key", o.engine.Key())
	if cb := o.cb.OnSaveSuccess; cb != nil {
		cb(data)
	}
}

// failed routes engine errors. Load errors are reported as such; save
// errors enter the retry policy.
func (o *Orchestrator) failed(err error) {
	if o.loading.Load() {
		if cb := o.cb.OnLoadError; cb != nil {
			cb(err)
		}
		return
	}
	var we *types.StoreWriteError
	if errors.As(err, &we) && we.Op != "save" {
		// A failed clear is reported by the engine state alone.
		return
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.lastSaveOK = false
	canRetry := types.IsRetryable(err) && o.opts.Enabled && o.online.Load()

	var (
		count       int
		justReached bool
	)
	switch {
	case !canRetry:
		count = o.retryCount
		if !types.IsRetryable(err) {
			o.exhausted = true
		}
	case o.retryCount < o.opts.MaxRetries:
		delay := o.backoff().ForAttempt(float64(o.retryCount))
		o.retryCount++
		count = o.retryCount
		o.sched.Schedule(taskRetry, delay, o.retry)
		log.Infow("auto-save failed, retrying", "key", o.engine.Key(), "attempt", count, "delay", delay, "err", err)
	default:
		count = o.retryCount
		justReached = !o.exhausted
		o.exhausted = true
	}
	o.mu.Unlock()

	if cb := o.cb.OnSaveError; cb != nil {
		cb(err, count)
	}
	if justReached {
		log.Warnw("auto-save gave up", "key", o.engine.Key(), "retries", count, "err", err)
		if cb := o.cb.OnMaxRetriesReached; cb != nil {
			cb(err)
		}
	}
}

// backoff yields retryDelay * 2^attempt.
func (o *Orchestrator) backoff() *backoff.Backoff {
	if o.opts.RetryDelay <= 0 {
		return &backoff.Backoff{Min: time.Nanosecond, Max: time.Nanosecond}
	}
	ceiling := time.Duration(math.MaxInt64)
	if o.opts.MaxRetries < 62 && o.opts.RetryDelay <= ceiling>>o.opts.MaxRetries {
		ceiling = o.opts.RetryDelay << o.opts.MaxRetries
	}
	return &backoff.Backoff{Min: o.opts.RetryDelay, Max: ceiling, Factor: 2}
}

func (o *Orchestrator) retry() {
	if !o.opts.Enabled || !o.online.Load() {
		return
	}
	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return
	}
	log.Debugw("retrying save", "key", o.engine.Key())
	// Failures reach failed through the engine's OnError.
	_ = o.engine.SaveImmediately()
}

// trigger forces a save when changes are pending.
func (o *Orchestrator) trigger(reason string) {
	if !o.opts.Enabled || !o.engine.State().HasUnsavedChanges {
		return
	}
	if !o.reset() {
		return
	}
	log.Debugw("save triggered", "key", o.engine.Key(), "reason", reason)
	_ = o.engine.SaveImmediately()
}

func (o *Orchestrator) handle(ev env.Event) {
	switch ev.Kind {
	case env.Blur:
		if o.opts.SaveOnBlur {
			o.trigger("blur")
		}
	case env.Hidden:
		if o.opts.SaveOnVisibilityChange {
			o.trigger("hidden")
		}
	case env.Online:
		o.online.Store(true)
		o.trigger("online")
	case env.Offline:
		o.online.Store(false)
		o.mu.Lock()
		o.sched.Cancel(taskRetry)
		o.mu.Unlock()
	case env.BeforeUnload:
		o.beforeUnload(ev.Guard)
	}
}

func (o *Orchestrator) beforeUnload(guard *env.UnloadGuard) {
	if !o.opts.Enabled || !o.engine.State().HasUnsavedChanges {
		return
	}
	if o.reset() {
		_ = o.engine.SaveImmediately()
	}
	if o.engine.State().HasUnsavedChanges && guard != nil {
		guard.Cancel(UnloadMessage)
	}
}
