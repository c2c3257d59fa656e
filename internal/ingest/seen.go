package ingest

import "sync"

// SeenSet is the run-wide set of player ids already enqueued. MarkSeen is an
// atomic test-and-set so two discoverers racing on one id enqueue it once.
type SeenSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewSeenSet creates an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[string]struct{})}
}

// MarkSeen adds id and reports whether it was already present.
func (s *SeenSet) MarkSeen(id string) (wasSeen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return true
	}
	s.ids[id] = struct{}{}
	return false
}

// Len returns the number of ids seen.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
