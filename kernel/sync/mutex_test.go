package sync

import (
	"runtime"
	"testing"
	"time"
)

func TestMutexLockRelease(t *testing.T) {
	m := NewMutex(41)

	g := m.Lock()
	if !g.Held() {
		t.Fatal("expected guard returned by Lock to be held")
	}
	*g.Value()++

	if _, ok := m.TryLock(); ok {
		t.Fatal("expected TryLock to fail while a guard is outstanding")
	}

	g.Release()
	if g.Held() {
		t.Fatal("expected guard to be released")
	}
	if got := m.lock.State(); got != Unlocked {
		t.Fatalf("expected mutex to be %s after Release; got %s", Unlocked, got)
	}

	// A second release must not unlock a mutex acquired by someone else.
	g2, ok := m.TryLock()
	if !ok {
		t.Fatal("expected TryLock to succeed after Release")
	}
	g.Release()
	if got := m.lock.State(); got != Locked {
		t.Fatalf("expected a repeated Release to be a no-op; mutex is %s", got)
	}

	if got := *g2.Value(); got != 42 {
		t.Fatalf("expected protected value to be 42; got %d", got)
	}
	m.Unlock(&g2)

	if got := m.lock.State(); got != Unlocked {
		t.Fatalf("expected Unlock to release the mutex; got %s", got)
	}
}

func TestMutexTryLockFailureReturnsReleasedGuard(t *testing.T) {
	var m Mutex[int]

	held := m.Lock()
	defer held.Release()

	g, ok := m.TryLock()
	if ok {
		t.Fatal("expected TryLock to fail")
	}
	if g.Held() {
		t.Fatal("expected failed TryLock to return a released guard")
	}

	// releasing the empty guard must leave the real holder untouched
	g.Release()
	if got := m.lock.State(); got != Locked {
		t.Fatalf("expected mutex to stay %s; got %s", Locked, got)
	}
}

func TestMutexDoReleasesOnPanic(t *testing.T) {
	m := NewMutex("boot")

	func() {
		defer func() {
			if err := recover(); err == nil {
				t.Fatal("expected Do to propagate the panic")
			}
		}()

		m.Do(func(v *string) {
			*v = "halted"
			panic("fault")
		})
	}()

	if got := m.lock.State(); got != Unlocked {
		t.Fatalf("expected Do to release the mutex on panic; got %s", got)
	}

	m.Do(func(v *string) {
		if *v != "halted" {
			t.Errorf("expected value written before the panic to persist; got %q", *v)
		}
	})
}

func TestMutexSequentialAcquisition(t *testing.T) {
	var (
		m1 = NewMutex(1)
		m2 = NewMutex(2)
	)

	done := make(chan struct{})
	go func() {
		g1 := m1.Lock()
		*g1.Value() += 10
		g1.Release()

		g2 := m2.Lock()
		*g2.Value() += 10
		g2.Release()

		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out acquiring two mutexes in sequence")
	}

	m1.Do(func(v *int) {
		if *v != 11 {
			t.Errorf("expected m1 to hold 11; got %d", *v)
		}
	})
	m2.Do(func(v *int) {
		if *v != 12 {
			t.Errorf("expected m2 to hold 12; got %d", *v)
		}
	})
}

func TestMutexNestedLockDeadlocks(t *testing.T) {
	defer func(origYieldFn func()) { yieldFn = origYieldFn }(yieldFn)
	yieldFn = runtime.Gosched

	var (
		m        Mutex[int]
		acquired = make(chan struct{})
		done     = make(chan struct{})
	)

	go func() {
		outer := m.Lock()
		close(acquired)

		inner := m.Lock()
		inner.Release()
		_ = outer

		close(done)
	}()

	<-acquired
	select {
	case <-done:
		t.Fatal("expected nested Lock from the same context to deadlock")
	case <-time.After(200 * time.Millisecond):
	}

	// Break the deadlock so the spinning goroutine can exit.
	m.lock.Release()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("expected the nested Lock to complete after the lock was released")
	}
}
