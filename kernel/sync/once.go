package sync

import "sync/atomic"

// Once is a Lazy whose first transition is serialized by a Mutex. It can be
// shared between execution contexts; the initializer runs exactly once and
// every Get returns the same pointer.
//
// The zero value is ready to use and the initializer is supplied by Get, so a
// package-level Once needs no initializer expression and lives in .bss.
//
// The initializer must not call Get on the same Once; doing so deadlocks.
type Once[T any] struct {
	done uint32
	mu   Mutex[Lazy[T]]
}

// Get returns a pointer to the stored value. The first call runs initFn;
// later calls ignore their argument.
func (o *Once[T]) Get(initFn func() T) *T {
	if atomic.LoadUint32(&o.done) == 0 {
		o.initSlow(initFn)
	}

	// The value never moves once the initializer has run so it can be read
	// without holding the lock.
	return &o.mu.value.value
}

// Done returns true if the initializer has already run.
func (o *Once[T]) Done() bool {
	return atomic.LoadUint32(&o.done) == 1
}

func (o *Once[T]) initSlow(initFn func() T) {
	g := o.mu.Lock()
	defer g.Release()

	if lazy := g.Value(); !lazy.Initialized() {
		lazy.initFn = initFn
		lazy.Get()
		atomic.StoreUint32(&o.done, 1)
	}
}
