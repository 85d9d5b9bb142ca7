// Package persist synchronizes an in-memory form snapshot with a durable
// draft record. Writes are debounced (trailing edge) unless a caller asks
// for an immediate save; stored drafts older than the configured max age
// are discarded lazily on load.
//
// All store failures are converted into engine state and an OnError
// callback; no operation panics or leaks a store error as anything other
// than a typed error value.
package persist

import (
	"errors"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/raulk/clock"

	"github.com/mesh-intelligence/formdraft/internal/schedule"
	"github.com/mesh-intelligence/formdraft/pkg/types"
)

var log = logging.Logger("persist")

// Scheduler task keys.
const (
	taskFlush = "flush"
	taskIdle  = "idle"
)

// Events holds optional callbacks. They run after the engine releases its
// lock, so a callback may call back into the engine.
type Events struct {
	OnRestore func(data map[string]any)
	OnSave    func(data map[string]any)
	OnError   func(err error)
}

// Config describes one form instance.
type Config struct {
	// Key identifies the form; the store key is "form-" + Key.
	Key         string
	InitialData map[string]any
	Options     types.Options
	Store       types.Store

	// Clock drives timestamps and timers. Nil uses the wall clock.
	Clock  clock.Clock
	Events Events

	// Guard, when set, is consulted as a debounced flush fires. Returning
	// false leaves the changes unsaved. It is called with the engine lock
	// held and must not call back into the engine.
	Guard func() bool
}

// Config errors.
var (
	ErrKeyEmpty = errors.New("form key must not be empty")
	ErrNoStore  = errors.New("store must not be nil")
)

// Engine is the persistence engine for a single form instance.
type Engine struct {
	key        string
	storageKey string
	initial    map[string]any
	opts       types.Options
	store      types.Store
	clock      clock.Clock
	events     Events
	guard      func() bool
	sched      *schedule.Scheduler

	mu     sync.Mutex
	closed bool
	state  types.PersistenceState
}

// New validates cfg and returns an engine whose data is the initial data.
// Call Load to restore a stored draft.
func New(cfg Config) (*Engine, error) {
	if cfg.Key == "" {
		return nil, ErrKeyEmpty
	}
	if cfg.Store == nil {
		return nil, ErrNoStore
	}
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	initial := types.CloneData(cfg.InitialData)
	return &Engine{
		key:        cfg.Key,
		storageKey: types.StorageKey(cfg.Key),
		initial:    initial,
		opts:       cfg.Options,
		store:      cfg.Store,
		clock:      clk,
		events:     cfg.Events,
		guard:      cfg.Guard,
		sched:      schedule.New(clk),
		state: types.PersistenceState{
			Data:       types.CloneData(initial),
			SaveStatus: types.StatusIdle,
		},
	}, nil
}

// Key returns the caller-supplied form key.
func (e *Engine) Key() string { return e.key }

// StorageKey returns the namespaced store key.
func (e *Engine) StorageKey() string { return e.storageKey }

// notifier queues callbacks while the lock is held.
type notifier []func()

func (n *notifier) add(fn func()) { *n = append(*n, fn) }

func (n notifier) run() {
	for _, fn := range n {
		fn()
	}
}

func (e *Engine) notifyRestore(n *notifier, data map[string]any) {
	if cb := e.events.OnRestore; cb != nil {
		n.add(func() { cb(data) })
	}
}

func (e *Engine) notifySave(n *notifier, data map[string]any) {
	if cb := e.events.OnSave; cb != nil {
		n.add(func() { cb(data) })
	}
}

func (e *Engine) notifyError(n *notifier, err error) {
	if cb := e.events.OnError; cb != nil {
		n.add(func() { cb(err) })
	}
}

// Load reads the stored draft once per engine lifetime. Absent, expired,
// malformed and unreadable drafts all leave the engine loaded with the
// initial data; a live draft is merged over the initial data and reported
// through OnRestore.
func (e *Engine) Load() error {
	var n notifier
	defer func() { n.run() }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return types.ErrClosed
	}
	if e.state.IsLoaded || e.state.IsLoading {
		return types.ErrAlreadyLoaded
	}
	e.state.IsLoading = true

	rec, found, err := e.read()
	switch {
	case err != nil:
		log.Warnw("discarding unreadable draft", "key", e.storageKey, "err", err)
		e.state.Data = types.CloneData(e.initial)
		e.state.HasSavedData = false
		e.state.Error = err.Error()
		e.notifyError(&n, err)
	case !found:
		e.state.Data = types.CloneData(e.initial)
		e.state.HasSavedData = false
	case e.expired(rec):
		log.Debugw("draft expired", "key", e.storageKey, "timestamp", rec.Timestamp, "maxAge", e.opts.MaxAge)
		if err := e.store.Remove(e.storageKey); err != nil {
			log.Warnw("removing expired draft", "key", e.storageKey, "err", err)
		}
		e.state.Data = types.CloneData(e.initial)
		e.state.HasSavedData = false
	default:
		merged := types.MergeData(e.initial, rec.Data)
		e.state.Data = merged
		e.state.HasSavedData = true
		log.Infow("draft restored", "key", e.storageKey, "timestamp", rec.Timestamp)
		e.notifyRestore(&n, types.CloneData(merged))
	}

	e.state.IsLoading = false
	e.state.IsLoaded = true
	return nil
}

// read fetches and decodes the stored record. found is false when the store
// holds nothing for the key.
func (e *Engine) read() (types.DraftRecord, bool, error) {
	text, err := e.store.Get(e.storageKey)
	if errors.Is(err, types.ErrNotFound) {
		return types.DraftRecord{}, false, nil
	}
	if err != nil {
		return types.DraftRecord{}, false, &types.StoreReadError{Key: e.storageKey, Err: err}
	}
	rec, err := types.DecodeRecord(text)
	if err != nil {
		return types.DraftRecord{}, false, &types.SerializationError{Key: e.storageKey, Err: err}
	}
	return rec, true, nil
}

func (e *Engine) expired(rec types.DraftRecord) bool {
	if e.opts.MaxAge <= 0 {
		return false
	}
	age := e.clock.Now().UnixMilli() - rec.Timestamp
	return age > e.opts.MaxAge.Milliseconds()
}

// SaveData replaces the form snapshot. When immediate is true or auto-save
// is disabled the snapshot is written before SaveData returns and the write
// error, if any, is returned. Otherwise the write is debounced: only the
// last call within the auto-save delay reaches the store.
func (e *Engine) SaveData(data map[string]any, immediate bool) error {
	var n notifier
	defer func() { n.run() }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return types.ErrClosed
	}
	return e.saveLocked(types.CloneData(data), immediate, &n)
}

// UpdateField merges one field into the snapshot and saves it under the
// prevailing auto-save policy.
func (e *Engine) UpdateField(name string, value any) error {
	if name == "" {
		return types.ErrInvalidField
	}
	var n notifier
	defer func() { n.run() }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return types.ErrClosed
	}
	data := types.CloneData(e.state.Data)
	data[name] = value
	return e.saveLocked(data, false, &n)
}

// SaveImmediately writes the current snapshot now, cancelling any pending
// debounced write. The returned error doubles as a completion signal for
// save-before-navigate flows.
func (e *Engine) SaveImmediately() error {
	var n notifier
	defer func() { n.run() }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return types.ErrClosed
	}
	e.sched.Cancel(taskFlush)
	return e.writeLocked(e.state.Data, &n)
}

func (e *Engine) saveLocked(data map[string]any, immediate bool, n *notifier) error {
	if immediate || !e.opts.AutoSave {
		e.sched.Cancel(taskFlush)
		return e.writeLocked(data, n)
	}

	e.state.Data = data
	e.state.HasUnsavedChanges = true
	e.sched.Schedule(taskFlush, e.opts.AutoSaveDelay, e.flush)
	return nil
}

// flush is the debounced write.
func (e *Engine) flush() {
	var n notifier
	defer func() { n.run() }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || !e.state.HasUnsavedChanges {
		return
	}
	if e.guard != nil && !e.guard() {
		log.Debugw("debounced save suppressed", "key", e.storageKey)
		return
	}
	// The error is recorded in state and delivered through OnError.
	_ = e.writeLocked(e.state.Data, &n)
}

// writeLocked persists data as a fresh record. The caller must hold e.mu.
func (e *Engine) writeLocked(data map[string]any, n *notifier) error {
	e.state.Data = data
	e.state.SaveStatus = types.StatusSaving
	e.sched.Cancel(taskIdle)

	rec := types.DraftRecord{
		Data:      data,
		Timestamp: e.clock.Now().UnixMilli(),
		Version:   types.RecordVersion,
	}
	text, err := types.EncodeRecord(rec)
	if err != nil {
		return e.failLocked(&types.SerializationError{Key: e.storageKey, Err: err}, n)
	}
	if err := e.store.Set(e.storageKey, text); err != nil {
		return e.failLocked(&types.StoreWriteError{Key: e.storageKey, Op: "save", Err: err}, n)
	}

	e.state.SaveStatus = types.StatusSaved
	e.state.HasUnsavedChanges = false
	e.state.HasSavedData = true
	e.state.Error = ""
	e.sched.Schedule(taskIdle, types.SavedDisplayDelay, e.resetIdle)
	log.Debugw("draft saved", "key", e.storageKey, "timestamp", rec.Timestamp)
	e.notifySave(n, types.CloneData(data))
	return nil
}

func (e *Engine) failLocked(err error, n *notifier) error {
	e.state.SaveStatus = types.StatusError
	e.state.HasUnsavedChanges = true
	e.state.Error = err.Error()
	log.Warnw("draft save failed", "key", e.storageKey, "err", err)
	e.notifyError(n, err)
	return err
}

func (e *Engine) resetIdle() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.SaveStatus == types.StatusSaved {
		e.state.SaveStatus = types.StatusIdle
	}
}

// ClearData removes the stored draft and resets the snapshot to the initial
// data with every flag cleared. A failing remove is reported and returned,
// but the in-memory reset still happens.
func (e *Engine) ClearData() error {
	var n notifier
	defer func() { n.run() }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return types.ErrClosed
	}
	e.sched.Cancel(taskFlush)
	e.sched.Cancel(taskIdle)

	e.state.Data = types.CloneData(e.initial)
	e.state.HasUnsavedChanges = false
	e.state.HasSavedData = false
	e.state.SaveStatus = types.StatusIdle
	e.state.Error = ""

	if err := e.store.Remove(e.storageKey); err != nil {
		werr := &types.StoreWriteError{Key: e.storageKey, Op: "remove", Err: err}
		e.state.Error = werr.Error()
		log.Warnw("clearing draft failed", "key", e.storageKey, "err", err)
		e.notifyError(&n, werr)
		return werr
	}
	log.Debugw("draft cleared", "key", e.storageKey)
	return nil
}

// CheckHasSavedData reports whether a live (readable, unexpired) draft is
// stored, without touching the in-memory snapshot or the store.
func (e *Engine) CheckHasSavedData() bool {
	return e.GetSavedDataInfo().HasData
}

// GetSavedDataInfo describes the stored draft without merging it.
// Unreadable and expired drafts report HasData false.
func (e *Engine) GetSavedDataInfo() types.SavedDataInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return types.SavedDataInfo{}
	}
	rec, found, err := e.read()
	if err != nil || !found || e.expired(rec) {
		return types.SavedDataInfo{}
	}
	return types.SavedDataInfo{HasData: true, Timestamp: rec.Timestamp, Version: rec.Version}
}

// State returns a snapshot of the engine state. The Data map is a copy.
func (e *Engine) State() types.PersistenceState {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	s.Data = types.CloneData(e.state.Data)
	return s
}

// Close cancels every pending timer. No write happens after Close returns.
// Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.sched.Close()
	return nil
}
