// ═══════════════════════════════════════════════════════════════════════════════
// READER/WRITER LOCK WITH WRITER PREFERENCE
// ═══════════════════════════════════════════════════════════════════════════════
// During a search-heavy workload the shared index is read far more often than
// it is written. A plain sync.RWMutex makes no promise about which waiter wins
// when readers keep arriving, so a merge could starve behind an endless stream
// of searches. This lock gives waiting writers priority:
//
//   - Any number of readers may hold the lock together
//   - A writer holds it alone
//   - The moment a writer starts waiting, NEW readers queue behind it; the
//     writer gets in (and out) before they proceed
//
// TIMELINE EXAMPLE:
// -----------------
//   reader A acquires ─────────────┐
//   writer W arrives, waits        │  (A still reading)
//   reader B arrives, QUEUES       │  (would starve W otherwise)
//   reader A releases ─────────────┘
//   writer W acquires, releases
//   reader B acquires
//
// Re-entry is not supported: a goroutine that already holds either side must
// not acquire again, in line with sync.Mutex in the standard library.
// ═══════════════════════════════════════════════════════════════════════════════

package beacon

import "sync"

// ReadWriteLock is a multi-reader, single-writer mutual exclusion lock with
// writer preference. The zero value is not usable; call NewReadWriteLock.
type ReadWriteLock struct {
	mu   sync.Mutex
	cond *sync.Cond

	readers        int  // readers currently holding the lock
	writerActive   bool // a writer currently holds the lock
	writersWaiting int  // writers blocked in Lock
}

// NewReadWriteLock creates an unlocked lock.
func NewReadWriteLock() *ReadWriteLock {
	l := &ReadWriteLock{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// RLock acquires the lock for reading. Multiple readers may hold the lock at
// once, but a new reader waits while any writer holds it or waits for it.
func (l *ReadWriteLock) RLock() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for l.writerActive || l.writersWaiting > 0 {
		l.cond.Wait()
	}
	l.readers++
}

// RUnlock releases one reader's hold. The last reader out wakes any waiters.
func (l *ReadWriteLock) RUnlock() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.readers--
	if l.readers == 0 {
		l.cond.Broadcast()
	}
}

// Lock acquires the lock for writing, waiting for current readers to drain
// and for any earlier writer to finish. While it waits, its presence alone
// holds new readers back.
func (l *ReadWriteLock) Lock() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.writersWaiting++
	for l.writerActive || l.readers > 0 {
		l.cond.Wait()
	}
	l.writersWaiting--
	l.writerActive = true
}

// Unlock releases the writer's hold and wakes every waiter. Remaining queued
// writers still outrank the readers that wake alongside them.
func (l *ReadWriteLock) Unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.writerActive = false
	l.cond.Broadcast()
}
