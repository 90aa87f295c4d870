package keylock

import (
	"context"
	"errors"
	"sync"
)

// Registry hands out one in-process lock per key. Locks are created on
// first use and live for the registry's lifetime, so a key observed once
// always maps to the same lock.
type Registry struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func New() *Registry {
	return &Registry{
		locks: make(map[string]chan struct{}),
	}
}

func (r *Registry) lock(key string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[key]
	if !ok {
		l = make(chan struct{}, 1)
		r.locks[key] = l
	}
	return l
}

// Acquire blocks until the key's lock is held or ctx is done. On success
// it returns the release function; the caller must invoke it exactly once.
func (r *Registry) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, errors.New("lock key is empty")
	}

	l := r.lock(key)
	select {
	case l <- struct{}{}:
		return func() { <-l }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WithLock runs fn while holding the key's lock.
func (r *Registry) WithLock(ctx context.Context, key string, fn func() error) error {
	release, err := r.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
