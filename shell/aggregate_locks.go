package shell

import (
	"context"
	"sync"
)

// KeyedLocks serializes work per key. Different keys never contend with each other.
// Lock waits can be abandoned through the context, which a sync.Mutex cannot offer.
type KeyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	token   chan struct{}
	waiters int
}

// NewKeyedLocks creates an empty KeyedLocks.
func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{locks: make(map[string]*keyedLock)}
}

// Lock blocks until the key is free or ctx is done. The returned func releases the key.
func (l *KeyedLocks) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &keyedLock{token: make(chan struct{}, 1)}
		l.locks[key] = lock
	}
	lock.waiters++
	l.mu.Unlock()

	select {
	case lock.token <- struct{}{}:
		return func() { l.release(key, lock) }, nil
	case <-ctx.Done():
		l.forget(key, lock)
		return nil, ctx.Err()
	}
}

func (l *KeyedLocks) release(key string, lock *keyedLock) {
	<-lock.token
	l.forget(key, lock)
}

func (l *KeyedLocks) forget(key string, lock *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.waiters--
	if lock.waiters == 0 {
		delete(l.locks, key)
	}
}

// Len returns the number of keys that are currently held or waited for.
func (l *KeyedLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
