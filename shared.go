package beacon

// Shared wraps a value behind a writer-preference reader/writer lock.
//
// The index itself knows nothing about concurrency; tasks that build private
// indices use them bare, and the one instance every task merges into travels
// inside a Shared handle. Callbacks run while holding the appropriate side of
// the lock:
//
//	shared := NewShared(NewInvertedIndex())
//	shared.Write(func(idx *InvertedIndex) { idx.Merge(local) })
//	shared.Read(func(idx *InvertedIndex) { results = idx.Search(stems, false) })
//
// A callback must not call back into the same handle: the lock is not
// re-entrant. Nothing stops the callback from leaking its argument, so don't.
type Shared[T any] struct {
	lock  *ReadWriteLock
	value T
}

// NewShared wraps a value in a fresh handle with its own lock.
func NewShared[T any](value T) *Shared[T] {
	return &Shared[T]{
		lock:  NewReadWriteLock(),
		value: value,
	}
}

// Read runs fn with the read lock held. Any number of readers run together.
func (s *Shared[T]) Read(fn func(T)) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	fn(s.value)
}

// Write runs fn with the write lock held, alone.
func (s *Shared[T]) Write(fn func(T)) {
	s.lock.Lock()
	defer s.lock.Unlock()
	fn(s.value)
}
