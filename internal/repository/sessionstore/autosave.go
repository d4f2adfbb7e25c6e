package sessionstore

import (
	"log"
	"sync"
	"time"
)

// DefaultDebounce is how long the autosaver waits after the last change
// before writing. Rapid-fire merges collapse into one save.
const DefaultDebounce = 2 * time.Second

// Autosaver debounces session writes. Saving is best effort: the store
// backends swallow their own failures, and a session is never blocked
// on persistence.
type Autosaver struct {
	store    *Store
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]Record
	timers  map[string]*time.Timer
	closed  bool
}

// NewAutosaver wraps store with a debounced writer. debounce <= 0 uses
// DefaultDebounce.
func NewAutosaver(store *Store, debounce time.Duration) *Autosaver {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Autosaver{
		store:    store,
		debounce: debounce,
		pending:  make(map[string]Record),
		timers:   make(map[string]*time.Timer),
	}
}

// Notify records the latest state of a session and (re)arms its save
// timer. Only the newest record per session is written.
func (a *Autosaver) Notify(rec Record) {
	rec = normalizeRecord(rec)
	if rec.SessionID == "" {
		return
	}
	rec.UpdatedAt = time.Now()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending[rec.SessionID] = rec
	if t, ok := a.timers[rec.SessionID]; ok {
		t.Reset(a.debounce)
		return
	}
	id := rec.SessionID
	a.timers[id] = time.AfterFunc(a.debounce, func() { a.flush(id) })
}

func (a *Autosaver) flush(sessionID string) {
	a.mu.Lock()
	rec, ok := a.pending[sessionID]
	delete(a.pending, sessionID)
	delete(a.timers, sessionID)
	a.mu.Unlock()
	if !ok {
		return
	}
	a.store.Put(rec)
	log.Printf("autosave: session %s saved", sessionID)
}

// Close stops all timers and writes everything still pending.
func (a *Autosaver) Close() {
	a.mu.Lock()
	a.closed = true
	remaining := make([]Record, 0, len(a.pending))
	for id, rec := range a.pending {
		if t, ok := a.timers[id]; ok {
			t.Stop()
		}
		remaining = append(remaining, rec)
	}
	a.pending = make(map[string]Record)
	a.timers = make(map[string]*time.Timer)
	a.mu.Unlock()

	for _, rec := range remaining {
		a.store.Put(rec)
	}
	a.store.Flush()
}
