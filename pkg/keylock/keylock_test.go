package keylock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWithLockSameKeyExcludes(t *testing.T) {
	registry := New()
	ctx := context.Background()

	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := registry.WithLock(ctx, "shared", func() error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("expected nil error, got %v", err)
			}
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected at most 1 holder, got %d", maxActive)
	}
}

func TestWithLockDistinctKeysIndependent(t *testing.T) {
	registry := New()
	ctx := context.Background()

	release, err := registry.Acquire(ctx, "a")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	defer release()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := registry.WithLock(ctx, "b", func() error { return nil }); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on distinct key should not block")
	}
}

func TestAcquireContextCanceled(t *testing.T) {
	registry := New()

	release, err := registry.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = registry.Acquire(ctx, "k")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestAcquireEmptyKey(t *testing.T) {
	registry := New()
	if _, err := registry.Acquire(context.Background(), ""); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestLockReusedAcrossCalls(t *testing.T) {
	registry := New()
	first := registry.lock("k")
	second := registry.lock("k")
	if first != second {
		t.Fatal("expected the same lock for the same key")
	}
}
