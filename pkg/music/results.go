package music

import "sync"

// Results holds the result list currently displayed to the user. Every
// search is tagged with a sequence number when it starts; a response is only
// applied when it is newer than the one already displayed, so overlapping
// searches cannot replace fresh results with stale ones.
type Results struct {
	mu       sync.RWMutex
	issued   uint64
	shown    uint64
	inflight int
	items    List
}

// Begin registers a new search and returns its sequence number.
func (r *Results) Begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued++
	r.inflight++
	return r.issued
}

// Apply replaces the displayed list with items if seq is newer than the
// displayed sequence. It reports whether the list was replaced.
func (r *Results) Apply(seq uint64, items List) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq <= r.shown {
		return false
	}
	r.shown = seq
	r.items = append(List(nil), items...)
	return true
}

// Finish marks one search as no longer in flight. It must be called exactly
// once per Begin, whether the search succeeded or not.
func (r *Results) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight > 0 {
		r.inflight--
	}
}

// Searching reports whether at least one search is in flight.
func (r *Results) Searching() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inflight > 0
}

// Items returns a copy of the displayed list.
func (r *Results) Items() List {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append(List(nil), r.items...)
}

// Sequence returns the sequence number of the displayed list, zero when no
// search has completed yet.
func (r *Results) Sequence() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shown
}
