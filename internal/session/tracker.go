// Package session tracks which stations this controller believes are
// running. It is the local view only: entries are created and cleared by the
// toggle coordinator, and the status poller may clear (never create) them.
package session

import (
	"sort"
	"sync"
	"time"
)

type Tracker struct {
	mu     sync.Mutex
	active map[int]time.Time // display index -> expires at
}

func NewTracker() *Tracker {
	return &Tracker{active: make(map[int]time.Time)}
}

// MarkActive records that a station started running now for the given
// duration. Expiry is informational; entries do not self-expire.
func (t *Tracker) MarkActive(displayIndex int, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[displayIndex] = time.Now().Add(duration)
}

func (t *Tracker) MarkInactive(displayIndex int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, displayIndex)
}

func (t *Tracker) IsActive(displayIndex int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.active[displayIndex]
	return ok
}

// Remaining returns the time left before the session's expected end, clamped
// at zero, and whether the station is active at all.
func (t *Tracker) Remaining(displayIndex int) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	expires, ok := t.active[displayIndex]
	if !ok {
		return 0, false
	}
	remaining := time.Until(expires)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Snapshot returns active flags for display indices 0..n-1.
func (t *Tracker) Snapshot(n int) []bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]bool, n)
	for displayIndex := range t.active {
		if displayIndex >= 0 && displayIndex < n {
			out[displayIndex] = true
		}
	}
	return out
}

// ActiveStations returns the display indices currently marked active, in
// ascending order.
func (t *Tracker) ActiveStations() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]int, 0, len(t.active))
	for displayIndex := range t.active {
		out = append(out, displayIndex)
	}
	sort.Ints(out)
	return out
}
