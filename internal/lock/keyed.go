package lock

import (
	"context"
	"sync"
)

// Keyed is an in-process Locker backed by one semaphore per key. Entries are
// reference-counted and removed once the last waiter releases, so the map does
// not grow with the number of keys ever seen.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[string]*keyedEntry)}
}

func (k *Keyed) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyedEntry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.unref(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			<-e.sem
			k.unref(key, e)
		})
	}
	return release, nil
}

func (k *Keyed) unref(key string, e *keyedEntry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}
