package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWithLockSerializesSameKey(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	const workers = 50
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(ctx, "chat:a", time.Second, func() error {
				// Unsynchronized read-modify-write; only safe if the lock
				// actually excludes.
				v := counter
				time.Sleep(time.Millisecond)
				counter = v + 1
				return nil
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("expected %d increments, got %d", workers, counter)
	}
}

func TestWithLockIndependentKeys(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	const each = 50 * time.Millisecond
	start := time.Now()
	var wg sync.WaitGroup
	for _, key := range []string{"chat:a", "chat:b", "chat:c", "chat:d"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			err := m.WithLock(ctx, key, time.Second, func() error {
				time.Sleep(each)
				return nil
			})
			if err != nil {
				t.Error(err)
			}
		}(key)
	}
	wg.Wait()

	// Four independent keys should overlap, not serialize.
	if elapsed := time.Since(start); elapsed > 3*each {
		t.Fatalf("independent locks serialized: took %s", elapsed)
	}
}

func TestWithLockTimeout(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	held := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- m.WithLock(ctx, "chat:a", time.Second, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	invoked := false
	err := m.WithLock(ctx, "chat:a", 20*time.Millisecond, func() error {
		invoked = true
		return nil
	})
	var timeout *LockTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected LockTimeoutError, got %v", err)
	}
	if invoked {
		t.Fatal("body must never run after a lock timeout")
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("holder failed: %v", err)
	}
}

func TestWithLockReleasedAfterError(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	wantErr := errors.New("body failed")
	if err := m.WithLock(ctx, "chat:a", time.Second, func() error {
		return wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("expected body error, got %v", err)
	}

	// The failed section must have released the lock.
	if err := m.WithLock(ctx, "chat:a", 50*time.Millisecond, func() error {
		return nil
	}); err != nil {
		t.Fatalf("lock not released after failure: %v", err)
	}
}

func TestWithLockContextCanceled(t *testing.T) {
	m := NewLockManager()

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		m.WithLock(context.Background(), "chat:a", time.Second, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.WithLock(ctx, "chat:a", time.Second, func() error {
		t.Error("body must not run on a canceled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
