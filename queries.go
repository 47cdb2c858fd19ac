// ═══════════════════════════════════════════════════════════════════════════════
// QUERY PROCESSING WITH MEMOISATION
// ═══════════════════════════════════════════════════════════════════════════════
// The query processor turns raw query lines into ranked results, remembering
// every answer it has computed. Queries are memoised under their canonical
// key: the space-joined sorted unique stems of the line. "Quick FOXES" and
// "fox quick" are the same question, so they are answered once.
//
// Exact and prefix mode keep SEPARATE memos. "he" as an exact query and "he"
// as a prefix query mean different things, and a hit on one never satisfies
// the other.
//
// LOCK ORDERING RULE:
// -------------------
// The memo has its own mutex, distinct from the index lock, and the two are
// NEVER held together. A lookup takes the memo mutex, releases it, searches
// under the index read lock, releases that, then retakes the memo mutex to
// store. Two goroutines racing the same cold key may both search; the second
// store overwrites with an identical answer, which is harmless and cheaper
// than holding locks across the search.
// ═══════════════════════════════════════════════════════════════════════════════

package beacon

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// QueryProcessor answers query lines against a shared index, memoising per
// canonical query key and per mode.
type QueryProcessor struct {
	index *Shared[*InvertedIndex]
	pool  *WorkerPool

	mu     sync.Mutex
	exact  map[string][]SearchResult
	prefix map[string][]SearchResult

	// searches counts actual index searches, i.e. memo misses. Tests use it
	// to prove that a repeated query hits the index once.
	searches atomic.Int64
}

// NewQueryProcessor creates a processor over the given shared index and pool.
func NewQueryProcessor(index *Shared[*InvertedIndex], pool *WorkerPool) *QueryProcessor {
	return &QueryProcessor{
		index:  index,
		pool:   pool,
		exact:  make(map[string][]SearchResult),
		prefix: make(map[string][]SearchResult),
	}
}

// ProcessLine answers one query line, from the memo when possible.
//
// The line is canonicalised to its query key first. An empty key (blank line,
// or nothing searchable after stemming) returns nil without touching the
// index or the memo.
func (qp *QueryProcessor) ProcessLine(line string, partial bool) []SearchResult {
	key := MakeQueryKey(line)
	if key == "" {
		return nil
	}

	qp.mu.Lock()
	if results, hit := qp.memo(partial)[key]; hit {
		qp.mu.Unlock()
		return results
	}
	qp.mu.Unlock()

	// Miss: search under the index read lock, with no memo mutex held.
	stems := strings.Fields(key)
	var results []SearchResult
	qp.index.Read(func(idx *InvertedIndex) {
		results = idx.Search(stems, partial)
	})
	qp.searches.Add(1)

	qp.mu.Lock()
	qp.memo(partial)[key] = results
	qp.mu.Unlock()
	return results
}

// ProcessFile reads a query file and dispatches one task per non-blank line.
// Results land in the memo; callers wait on the pool's Finish and then read
// them back with Results.
func (qp *QueryProcessor) ProcessFile(path string, partial bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("query file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := qp.pool.Execute(func() { qp.ProcessLine(line, partial) }); err != nil {
			slog.Warn("query not dispatched", slog.String("line", line), slog.Any("error", err))
		}
	}
	return scanner.Err()
}

// Results returns a snapshot of one mode's memo. The map and its slices are
// copies; later queries do not mutate a snapshot already handed out.
func (qp *QueryProcessor) Results(partial bool) map[string][]SearchResult {
	qp.mu.Lock()
	defer qp.mu.Unlock()

	memo := qp.memo(partial)
	snapshot := make(map[string][]SearchResult, len(memo))
	for key, results := range memo {
		snapshot[key] = append([]SearchResult(nil), results...)
	}
	return snapshot
}

// QueryKeys returns the memoised keys of one mode in sorted order.
func (qp *QueryProcessor) QueryKeys(partial bool) []string {
	qp.mu.Lock()
	defer qp.mu.Unlock()

	memo := qp.memo(partial)
	keys := make([]string, 0, len(memo))
	for key := range memo {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SearchCount reports how many times the processor actually searched the
// index, as opposed to answering from the memo.
func (qp *QueryProcessor) SearchCount() int64 {
	return qp.searches.Load()
}

// memo selects the map for a mode. Callers hold qp.mu.
func (qp *QueryProcessor) memo(partial bool) map[string][]SearchResult {
	if partial {
		return qp.prefix
	}
	return qp.exact
}
