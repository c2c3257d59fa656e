package schema

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry is the process-wide, append-only header → canonical name map.
// Entries are never renamed or removed once assigned. Reads are concurrent;
// extensions are serialized so two workers racing on the same unseen header
// produce one entry and one log line.
type Registry struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	order   []Key
	log     Log
	logger  *slog.Logger
}

// NewRegistry creates an empty registry persisting to log (nil disables
// persistence).
func NewRegistry(log Log, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[Key]Entry),
		log:     log,
		logger:  logger,
	}
}

// Seed merges per-position disambiguated header sets in the given order.
// Later sets overwrite earlier ones on identical keys. The merged registry is
// then written fresh to the schema log.
func (r *Registry) Seed(sets ...[]Header) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, headers := range sets {
		for _, e := range Disambiguate(headers) {
			r.putLocked(e)
		}
	}

	for name, keys := range r.collisionsLocked() {
		r.logger.Warn("Canonical name assigned to several headers", "name", name, "keys", fmt.Sprint(keys))
	}

	if r.log == nil {
		return nil
	}
	if err := r.log.Rewrite(r.entriesLocked()); err != nil {
		return fmt.Errorf("write schema log: %w", err)
	}
	r.logger.Info("Schema log written", "headers", len(r.order))
	return nil
}

// Restore loads previously persisted entries without touching the log.
func (r *Registry) Restore(entries []Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.putLocked(e)
	}
}

func (r *Registry) putLocked(e Entry) {
	if _, ok := r.entries[e.Key]; !ok {
		r.order = append(r.order, e.Key)
	}
	r.entries[e.Key] = e
}

// Resolve returns the canonical entry for k.
func (r *Registry) Resolve(k Key) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[k]
	return e, ok
}

// Extend returns the canonical name for h, appending a fallback entry when
// the key is unknown. added reports whether this call created the entry.
// A log failure is returned alongside the (already registered) name.
func (r *Registry) Extend(h Header) (name string, added bool, err error) {
	if e, ok := r.Resolve(h.Key); ok {
		return e.Name, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[h.Key]; ok {
		return e.Name, false, nil
	}

	e := Entry{Key: h.Key, Name: FallbackName(h.Key), Tip: h.Tip}
	r.putLocked(e)
	if r.log != nil {
		if lerr := r.log.Append(e); lerr != nil {
			err = fmt.Errorf("append schema log: %w", lerr)
		}
	}
	return e.Name, true, err
}

// Names returns the sorted set of canonical names currently known.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[string]struct{}, len(r.entries))
	for _, e := range r.entries {
		set[e.Name] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Entries returns all entries in first-assignment order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entriesLocked()
}

func (r *Registry) entriesLocked() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entries[k])
	}
	return out
}

// Len returns the number of distinct header keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Collisions lists canonical names shared by more than one key.
func (r *Registry) Collisions() map[string][]Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collisionsLocked()
}

func (r *Registry) collisionsLocked() map[string][]Key {
	byName := make(map[string][]Key)
	for _, k := range r.order {
		n := r.entries[k].Name
		byName[n] = append(byName[n], k)
	}
	out := make(map[string][]Key)
	for n, keys := range byName {
		if len(keys) > 1 {
			out[n] = keys
		}
	}
	return out
}
