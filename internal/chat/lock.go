package chat

import (
	"context"
	"sync"
	"time"
)

// LockManager serializes critical sections per resource key. Waiters for the
// same key acquire in FIFO order (the runtime wakes blocked channel senders
// in queue order); different keys never contend.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	token chan struct{} // capacity 1; holding the token means holding the lock
	refs  int
}

// NewLockManager creates an empty lock manager.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*lockEntry)}
}

// WithLock runs fn while holding the exclusive lock for key. If the lock
// cannot be acquired within timeout, it returns LockTimeoutError and fn is
// never invoked. Context cancellation during the wait is honored the same
// way: fn only runs once the lock is held.
func (m *LockManager) WithLock(ctx context.Context, key string, timeout time.Duration, fn func() error) error {
	entry := m.retain(key)
	defer m.release(key)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case entry.token <- struct{}{}:
	case <-timer.C:
		return &LockTimeoutError{Resource: key, Timeout: timeout}
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-entry.token }()

	return fn()
}

// retain returns the entry for key, creating it on first use.
func (m *LockManager) retain(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.locks[key]
	if !ok {
		entry = &lockEntry{token: make(chan struct{}, 1)}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release drops one reference and removes the entry once idle.
func (m *LockManager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.locks[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs == 0 {
		delete(m.locks, key)
	}
}
