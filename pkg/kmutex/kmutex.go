// Package kmutex provides per-key mutual exclusion. Operations locked under
// the same key serialize; operations under different keys proceed in
// parallel. Idle keys hold no memory: entries are reference counted and
// removed when the last holder unlocks.
package kmutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KMutex is a set of mutexes addressed by int64 keys.
// The zero value is not usable; call New.
type KMutex struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// New creates an empty KMutex.
func New() *KMutex {
	return &KMutex{entries: make(map[int64]*entry)}
}

// Lock acquires the mutex for key, blocking until it is available, and
// returns the corresponding unlock function. The usual pattern is
//
//	defer km.Lock(id)()
func (k *KMutex) Lock(key int64) (unlock func()) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
