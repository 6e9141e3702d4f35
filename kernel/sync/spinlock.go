// Package sync provides synchronization primitives that can be used before
// the Go runtime, the memory allocator or any scheduler is available: a
// spinlock, a generic mutex that owns the data it protects and lazily
// initialized values.
package sync

import "sync/atomic"

// attemptsBeforeYielding defines the number of polls of a held lock before
// yieldFn gets a chance to run.
const attemptsBeforeYielding = 64

var (
	// yieldFn is invoked while spinning on a held lock. The kernel has no
	// scheduler so it stays nil; tests plug in runtime.Gosched.
	yieldFn func()
)

// LockState describes the state of a Spinlock.
type LockState uint32

const (
	// Unlocked indicates that the lock is available.
	Unlocked LockState = iota

	// Locked indicates that the lock is held by some execution context.
	Locked
)

// String implements fmt.Stringer for LockState.
func (s LockState) String() string {
	if s == Locked {
		return "locked"
	}
	return "unlocked"
}

// Spinlock implements a lock where each execution context trying to acquire
// it busy-waits till the lock becomes available. The zero value is an
// unlocked spinlock.
//
// Spinlocks are not reentrant and they do not mask interrupts. Acquiring a
// lock from an interrupt handler that interrupted the holder of the same lock
// deadlocks.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active
// execution context. Any attempt to re-acquire a lock already held by the
// current context will cause a deadlock.
//
// Acquire implements a test-and-test-and-set loop: after a failed exchange it
// polls the lock word with plain loads and only retries the exchange once it
// observes the lock as free.
func (l *Spinlock) Acquire() {
	for !l.TryToAcquire() {
		for attempts := 0; atomic.LoadUint32(&l.state) == uint32(Locked); attempts++ {
			archSpinHint()

			if attempts == attemptsBeforeYielding {
				if yieldFn != nil {
					yieldFn()
				}
				attempts = 0
			}
		}
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise. It never blocks.
//
// A successful TryToAcquire has acquire semantics: memory writes performed by
// the previous holder before calling Release are visible to the caller.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, uint32(Locked)) == uint32(Unlocked)
}

// Release relinquishes a held lock allowing other contexts to acquire it.
// Release has release semantics. The caller must currently hold the lock;
// this is not checked.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, uint32(Unlocked))
}

// State returns a snapshot of the lock state.
func (l *Spinlock) State() LockState {
	return LockState(atomic.LoadUint32(&l.state))
}

// archSpinHint tells the CPU that the caller is executing a spin-wait loop.
func archSpinHint()
