// Package memstore is an in-process map embedder, analogous to the
// teacher's BenchmarkStorage branch of storage/storage.go: no persistence,
// used by tests and the simulation harness.
package memstore

import "sync"

// Store is a datastore.Store backed by a plain Go map.
type Store struct {
	mu     sync.Mutex
	values map[string][]byte
}

// New creates an empty Store.
func New() *Store {
	return &Store{values: map[string][]byte{}}
}

func (s *Store) Read(keys [][]byte) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := s.values[string(k)]; ok {
			out[string(k)] = v
		}
	}
	return out, nil
}

func (s *Store) Apply(writes map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range writes {
		s.values[k] = v
	}
	return nil
}
