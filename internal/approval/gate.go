// Package approval routes incoming partial updates: cosmetic updates
// apply immediately, content updates wait in a single pending slot for
// an explicit user decision.
package approval

import (
	"errors"
	"sync"

	"cvarchitect/internal/cv"
	"cvarchitect/internal/history"
)

// ErrNoPending is returned by Accept and Deny when no update is waiting.
var ErrNoPending = errors.New("approval: no pending update")

// State is the gate's position in its lifecycle.
type State int

const (
	// Idle means no update is waiting and nothing is being applied.
	Idle State = iota
	// Pending means one gated update is waiting for accept or deny.
	Pending
	// Applying means a merge is running against the live document.
	Applying
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Applying:
		return "applying"
	default:
		return "idle"
	}
}

// Gate owns the pending slot and pushes every applied merge through the
// history store. All applies run under one mutex, so merges onto the
// document are strictly sequential even when updates arrive from
// concurrent stream goroutines.
type Gate struct {
	mu      sync.Mutex
	state   State
	pending *cv.Update
	hist    *history.Store[cv.Document]
}

// New creates a gate applying merges onto hist's current document.
func New(hist *history.Store[cv.Document]) *Gate {
	return &Gate{hist: hist}
}

// Offer classifies an update and routes it. Empty updates are dropped.
// Auto updates merge immediately and snapshot. Gated updates take the
// pending slot, silently replacing any update already waiting
// (last proposal wins).
func (g *Gate) Offer(u cv.Update) cv.Kind {
	kind := cv.Classify(u)
	switch kind {
	case cv.Auto:
		g.mu.Lock()
		g.applyLocked(u)
		g.mu.Unlock()
	case cv.Gated:
		g.mu.Lock()
		g.pending = &u
		if g.state == Idle {
			g.state = Pending
		}
		g.mu.Unlock()
	}
	return kind
}

// Pending returns the waiting update, if any.
func (g *Gate) Pending() (cv.Update, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return cv.Update{}, false
	}
	return *g.pending, true
}

// Accept merges the pending update into the live document, snapshots
// it, and clears the slot.
func (g *Gate) Accept() (cv.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return g.hist.Current(), ErrNoPending
	}
	u := *g.pending
	g.pending = nil
	doc := g.applyLocked(u)
	return doc, nil
}

// Deny discards the pending update. No merge, no snapshot.
func (g *Gate) Deny() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return ErrNoPending
	}
	g.pending = nil
	g.state = Idle
	return nil
}

// Discard silently drops any pending update. Used on session reset.
func (g *Gate) Discard() {
	g.mu.Lock()
	g.pending = nil
	g.state = Idle
	g.mu.Unlock()
}

// State returns the gate's current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) applyLocked(u cv.Update) cv.Document {
	g.state = Applying
	doc := cv.Merge(g.hist.Current(), u)
	g.hist.Set(doc)
	if g.pending != nil {
		g.state = Pending
	} else {
		g.state = Idle
	}
	return doc
}
