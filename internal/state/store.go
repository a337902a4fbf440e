// Package state holds a session's view state and publishes an immutable
// copy of it after every change.
package state

import "sync"

// Store serializes mutations and fans snapshots out to subscribers. Each
// subscriber channel holds at most one snapshot; a slow reader skips
// intermediate versions and always sees the newest.
type Store struct {
	mu     sync.Mutex
	snap   Snapshot
	subs   map[int]chan Snapshot
	nextID int
	closed bool
}

// NewStore returns a store holding initial.
func NewStore(initial Snapshot) *Store {
	return &Store{
		snap: initial.Clone(),
		subs: make(map[int]chan Snapshot),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Update applies fn, bumps the version and publishes the result.
func (s *Store) Update(fn func(*Snapshot)) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.snap)
	s.snap.Version++
	out := s.snap.Clone()

	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.snap.Clone()
	}
	return out
}

// Subscribe returns a channel that receives every published snapshot,
// starting with the current one, and a func that ends the subscription.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.snap.Clone()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close ends every subscription. Later updates still apply but publish to
// no one.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
