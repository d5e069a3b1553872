package glimpse

import (
	"sync"
	"time"
)

// cacheEntry holds the freshest known state for one widget. Exactly one
// refresh loop writes it; any number of snapshot readers read it. The mutex
// guarantees readers never observe a torn update (new payload with an old
// timestamp).
type cacheEntry struct {
	mu sync.Mutex

	payload     Payload
	hasPayload  bool
	lastSuccess time.Time
	lastAttempt time.Time
	lastErr     error
	inFlight    bool
}

// entryView is a consistent copy of a cacheEntry at one instant.
type entryView struct {
	Payload     Payload
	HasPayload  bool
	LastSuccess time.Time
	LastAttempt time.Time
	LastErr     error
	InFlight    bool
}

func (e *cacheEntry) view() entryView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return entryView{
		Payload:     e.payload,
		HasPayload:  e.hasPayload,
		LastSuccess: e.lastSuccess,
		LastAttempt: e.lastAttempt,
		LastErr:     e.lastErr,
		InFlight:    e.inFlight,
	}
}

// beginAttempt marks a fetch as started. Returns false if another fetch for
// this widget is already in flight; the caller must then skip the tick.
func (e *cacheEntry) beginAttempt(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight {
		return false
	}
	e.inFlight = true
	e.lastAttempt = now
	return true
}

// completeSuccess installs a new payload. Writes are monotonic: a result from
// an attempt older than the recorded success is dropped rather than rolling
// the entry back.
func (e *cacheEntry) completeSuccess(attemptAt time.Time, p Payload) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
	if e.hasPayload && attemptAt.Before(e.lastSuccess) {
		return
	}
	e.payload = p
	e.hasPayload = true
	e.lastSuccess = attemptAt
	e.lastErr = nil
}

// completeFailure records the error and leaves any prior payload untouched.
// Stale data beats a blanked widget.
func (e *cacheEntry) completeFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
	e.lastErr = err
}

// abandon clears the in-flight flag without recording a result. Used when a
// fetch finishes after shutdown has begun.
func (e *cacheEntry) abandon() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
}

// seed installs a payload recovered from the warm-start store. It never
// overwrites live data.
func (e *cacheEntry) seed(p Payload, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hasPayload {
		return
	}
	e.payload = p
	e.hasPayload = true
	e.lastSuccess = at
}
