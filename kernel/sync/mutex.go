package sync

// Mutex pairs a Spinlock with the value it protects. The value can only be
// reached through a Guard returned by Lock or TryLock. The zero value is an
// unlocked mutex that holds the zero value of T.
//
// A Mutex must not be copied after first use.
type Mutex[T any] struct {
	lock  Spinlock
	value T
}

// NewMutex returns an unlocked Mutex that owns value. Package-level mutexes
// should use the zero value instead: kernel packages are entered without
// running package initializers, so only statically initialized variables
// are valid at boot.
func NewMutex[T any](value T) Mutex[T] {
	return Mutex[T]{value: value}
}

// Lock busy-waits until the mutex is acquired and returns a Guard for the
// protected value. Callers should release the guard with a deferred call to
// Release so the lock is dropped on every exit path:
//
//  g := m.Lock()
//  defer g.Release()
func (m *Mutex[T]) Lock() Guard[T] {
	m.lock.Acquire()
	return Guard[T]{mu: m}
}

// TryLock returns a Guard and true if the mutex could be acquired without
// blocking. Otherwise it returns a released Guard and false.
func (m *Mutex[T]) TryLock() (Guard[T], bool) {
	if !m.lock.TryToAcquire() {
		return Guard[T]{}, false
	}
	return Guard[T]{mu: m}, true
}

// Unlock releases g before its natural scope end. It is equivalent to
// g.Release() and g must have been obtained from m.
func (m *Mutex[T]) Unlock(g *Guard[T]) {
	g.Release()
}

// Do runs fn while holding the lock. The lock is released when fn returns or
// panics.
func (m *Mutex[T]) Do(fn func(*T)) {
	g := m.Lock()
	defer g.Release()
	fn(g.Value())
}

// Guard provides exclusive access to the value owned by a Mutex. A Guard is
// only valid between acquisition and release; it must not be copied or handed
// over to another execution context.
type Guard[T any] struct {
	mu *Mutex[T]
}

// Value returns a pointer to the protected value. The pointer must not be
// retained after the guard is released.
func (g *Guard[T]) Value() *T {
	return &g.mu.value
}

// Held returns true if the guard has not been released yet.
func (g *Guard[T]) Held() bool {
	return g.mu != nil
}

// Release unlocks the mutex that g was obtained from. Only the first call has
// an effect; subsequent calls are no-ops.
func (g *Guard[T]) Release() {
	if g.mu == nil {
		return
	}

	mu := g.mu
	g.mu = nil
	mu.lock.Release()
}
