package sync

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestSpinlock(t *testing.T) {
	// Substitute the yieldFn with runtime.Gosched to avoid deadlocks while testing
	defer func(origYieldFn func()) { yieldFn = origYieldFn }(yieldFn)
	yieldFn = runtime.Gosched

	var (
		sl         Spinlock
		wg         sync.WaitGroup
		numWorkers = 10
		counter    int
	)

	sl.Acquire()

	if sl.TryToAcquire() != false {
		t.Error("expected TryToAcquire to return false when lock is held")
	}

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func(worker int) {
			sl.Acquire()
			counter++
			sl.Release()
			wg.Done()
		}(i)
	}

	<-time.After(100 * time.Millisecond)
	sl.Release()
	wg.Wait()

	if counter != numWorkers {
		t.Fatalf("expected counter to be %d; got %d", numWorkers, counter)
	}
}

func TestSpinlockStateTransitions(t *testing.T) {
	var sl Spinlock

	var got []LockState
	got = append(got, sl.State())
	sl.Acquire()
	got = append(got, sl.State())
	sl.Release()
	got = append(got, sl.State())
	sl.Acquire()
	got = append(got, sl.State())
	sl.Release()

	exp := []LockState{Unlocked, Locked, Unlocked, Locked}
	for i := range exp {
		if got[i] != exp[i] {
			t.Errorf("[step %d] expected state to be %s; got %s", i, exp[i], got[i])
		}
	}
}

func TestSpinlockTryToAcquire(t *testing.T) {
	var sl Spinlock

	if !sl.TryToAcquire() {
		t.Fatal("expected TryToAcquire to succeed on a free lock")
	}

	if sl.TryToAcquire() {
		t.Fatal("expected TryToAcquire to fail while the lock is held")
	}

	if got := sl.State(); got != Locked {
		t.Fatalf("expected a failed TryToAcquire to leave the lock %s; got %s", Locked, got)
	}

	sl.Release()
	if !sl.TryToAcquire() {
		t.Fatal("expected TryToAcquire to succeed after Release")
	}
}

func TestLockStateString(t *testing.T) {
	specs := []struct {
		state LockState
		exp   string
	}{
		{Unlocked, "unlocked"},
		{Locked, "locked"},
	}

	for specIndex, spec := range specs {
		if got := spec.state.String(); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}
