package lock

import "context"

// ReleaseFunc releases a held lock. It must be called exactly once.
type ReleaseFunc func()

// Locker serializes critical sections per key. Acquiring different keys must
// not block each other; acquiring the same key does.
type Locker interface {
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}
