// Package lock serializes workflow cursor advancement. Two concurrent callers
// advancing the same workflow must not both succeed against the same expected
// cursor; the repository's conditional write is the hard guarantee, the lease
// here keeps the common path free of conflict errors.
package lock

import (
	"context"
	"sync"
)

// Manager grants exclusive access to a named resource.
type Manager interface {
	// Acquire blocks until the key's lease is held or ctx is done. The returned
	// release function must be called exactly once.
	Acquire(ctx context.Context, key string) (func(), error)
}

// MemoryManager implements Manager with in-process per-key mutexes. Suitable
// for single-instance deployments and tests; multi-instance deployments use the
// Redis-backed manager.
type MemoryManager struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewMemoryManager creates a new in-process lock manager.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{locks: make(map[string]*keyLock)}
}

// Acquire takes the per-key mutex, creating it on first use and dropping it
// once no holder or waiter remains.
func (m *MemoryManager) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	kl, ok := m.locks[key]
	if !ok {
		kl = &keyLock{}
		m.locks[key] = kl
	}
	kl.refs++
	m.mu.Unlock()

	kl.mu.Lock()

	release := func() {
		kl.mu.Unlock()

		m.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}

	return release, nil
}
