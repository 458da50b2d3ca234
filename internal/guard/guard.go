// Package guard serializes event handling per conversation and throttles
// flooding users. Both conditions are dropped, not queued: the outer
// dispatch layer absorbs them silently.
package guard

import (
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
)

var (
	// ErrInFlight means the conversation already has a handler running.
	ErrInFlight = errors.New("guard: conversation busy")
	// ErrFlood means the user sent events faster than the window allows.
	ErrFlood = errors.New("guard: flood")
)

// DefaultWindow is the minimum spacing between events from one user.
const DefaultWindow = 500 * time.Millisecond

type convKey struct {
	chatID  int64
	userID  int64
	topicID int
}

type Guard struct {
	clk    clock.Clock
	window time.Duration
	admins map[int64]bool

	mu       sync.Mutex
	inFlight map[convKey]struct{}
	lastSeen map[int64]time.Time
}

func New(clk clock.Clock, window time.Duration, admins []int64) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	g := &Guard{
		clk:      clk,
		window:   window,
		admins:   make(map[int64]bool, len(admins)),
		inFlight: make(map[convKey]struct{}),
		lastSeen: make(map[int64]time.Time),
	}
	for _, id := range admins {
		g.admins[id] = true
	}
	return g
}

// Admit gates one event. On success it returns a release func that must
// be called when the handler finishes. A second event for the same
// (chat, user, topic) while one is in flight returns ErrInFlight: the new
// event is dropped, never the running one. An event inside the flood
// window returns ErrFlood and restarts the window from the violation, so
// a rapid burst never gets through by waiting it out.
func (g *Guard) Admit(chatID, userID int64, topicID int) (func(), error) {
	now := g.clk.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	key := convKey{chatID, userID, topicID}
	if _, busy := g.inFlight[key]; busy {
		return nil, ErrInFlight
	}

	if !g.admins[userID] {
		if last, seen := g.lastSeen[userID]; seen && now.Before(last.Add(g.window)) {
			g.lastSeen[userID] = now
			return nil, ErrFlood
		}
	}

	g.inFlight[key] = struct{}{}
	g.lastSeen[userID] = now

	release := func() {
		g.mu.Lock()
		delete(g.inFlight, key)
		g.mu.Unlock()
	}
	return release, nil
}
