package proposal

import "sync"

// StatusTracker serializes concurrent reconciliations so a slow run can never
// clobber the result of one started after it. Each run takes a generation
// from Begin; Apply discards results whose generation is no longer the latest.
type StatusTracker struct {
	mu         sync.Mutex
	generation uint64
	status     *ProposalStatus
	err        error
	loaded     bool
}

// Begin registers a new reconciliation run and returns its generation. Any run
// begun earlier becomes stale immediately.
func (t *StatusTracker) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++

	return t.generation
}

// Apply records a run's outcome. It reports false, leaving the tracked state
// untouched, when a newer run has begun since gen was issued.
func (t *StatusTracker) Apply(gen uint64, status *ProposalStatus, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.generation {
		return false
	}

	t.status = status
	t.err = err
	t.loaded = true

	return true
}

// Latest returns the most recent applied outcome. loaded is false until the
// first Apply lands, which is the signal for a loading state.
func (t *StatusTracker) Latest() (status *ProposalStatus, err error, loaded bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.status, t.err, t.loaded
}

// Reset clears the tracked outcome and invalidates every in-flight run, for
// use when the wallet or target batch changes.
func (t *StatusTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++
	t.status = nil
	t.err = nil
	t.loaded = false
}
