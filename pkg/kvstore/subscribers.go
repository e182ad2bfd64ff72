// Package kvstore holds the shared pieces of the portal.KVStore backends.
package kvstore

import "sync"

// Subscribers tracks per-key change callbacks for a store.
type Subscribers struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]func()
}

// Add registers fn for key and returns the unsubscribe func.
func (s *Subscribers) Add(key string, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[string]map[int]func())
	}
	id := s.next
	s.next++
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]func())
	}
	s.subs[key][id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[key], id)
			if len(s.subs[key]) == 0 {
				delete(s.subs, key)
			}
		})
	}
}

// Notify runs every callback registered for key. Callbacks run outside the
// lock so they may subscribe or unsubscribe.
func (s *Subscribers) Notify(key string) {
	s.mu.RLock()
	callbacks := make([]func(), 0, len(s.subs[key]))
	for _, fn := range s.subs[key] {
		callbacks = append(callbacks, fn)
	}
	s.mu.RUnlock()
	for _, fn := range callbacks {
		fn()
	}
}

// Len reports how many callbacks are registered for key.
func (s *Subscribers) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs[key])
}
