package sync

// Lazy holds a value that is produced by an initializer the first time it is
// accessed. Until then only the initializer is kept; afterwards only the value.
//
// Lazy performs no locking. The caller must guarantee exclusive access while
// the first Get is in progress, either by wrapping the Lazy in a Mutex or by
// only touching it from a single execution context during early boot. Racing
// on the first Get is undefined behavior. Use Once when the value can be
// reached from more than one context.
//
// If the initializer panics the Lazy stays uninitialized and the next Get
// runs the initializer again.
type Lazy[T any] struct {
	initialized bool
	initFn      func() T
	value       T
}

// NewLazy returns a Lazy that will invoke initFn on first access. initFn is
// not called by NewLazy.
func NewLazy[T any](initFn func() T) Lazy[T] {
	return Lazy[T]{initFn: initFn}
}

// Get returns a pointer to the stored value, running the initializer if this
// is the first access. Every call returns the same pointer.
func (l *Lazy[T]) Get() *T {
	if !l.initialized {
		l.init()
	}

	return &l.value
}

// Initialized returns true if the initializer has already run.
func (l *Lazy[T]) Initialized() bool {
	return l.initialized
}

func (l *Lazy[T]) init() {
	l.value = l.initFn()
	l.initFn = nil
	l.initialized = true
}
