// ═══════════════════════════════════════════════════════════════════════════════
// CORPUS INGESTION
// ═══════════════════════════════════════════════════════════════════════════════
// The ingester walks a directory tree and dispatches one indexing task per
// text file. Each task:
//
//  1. Builds a task-local index (no lock, no sharing)
//  2. Streams the file through the analyzer into it
//  3. Merges the local index into the shared one under the write lock
//
// WHY LOCAL-BUILD-THEN-MERGE?
// ---------------------------
// Holding the write lock while parsing a file would serialise the hot path;
// every worker would queue behind a single writer doing I/O. Building locally
// shrinks the critical section to the merge alone and lets the analyzer run
// on every worker at once.
//
// TRAVERSAL ORDER:
// ----------------
// The walk visits files in lexicographic order. Merging is commutative, so
// task scheduling cannot change the final index: a single-threaded build and
// an eight-worker build of the same corpus emit byte-identical JSON.
// ═══════════════════════════════════════════════════════════════════════════════

package beacon

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// IsTextFile reports whether a file name looks like a plain-text corpus
// document: a case-insensitive .txt or .text suffix.
func IsTextFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".text")
}

// Ingester builds the shared index from a directory tree of text files.
type Ingester struct {
	index *Shared[*InvertedIndex]
	pool  *WorkerPool
}

// NewIngester creates an ingester feeding the given shared index through the
// given pool.
func NewIngester(index *Shared[*InvertedIndex], pool *WorkerPool) *Ingester {
	return &Ingester{index: index, pool: pool}
}

// Build walks root and dispatches one task per text file. A root that is
// itself a file is indexed directly, whatever its extension.
//
// Build returns once every task is DISPATCHED, not completed; callers wait on
// the pool's Finish before reading the index. Unreadable entries inside the
// tree are logged and skipped; only an unusable root is an error.
func (in *Ingester) Build(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("corpus root: %w", err)
	}

	if !info.IsDir() {
		in.dispatch(root)
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable entry", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			// Follow file symlinks once; a link to a directory is not
			// descended into, which keeps cyclic trees terminating.
			target, err := os.Stat(path)
			if err != nil || target.IsDir() {
				return nil
			}
		}
		if IsTextFile(d.Name()) {
			in.dispatch(path)
		}
		return nil
	})
}

// dispatch submits one per-file indexing task.
func (in *Ingester) dispatch(path string) {
	if err := in.pool.Execute(func() { in.indexFile(path) }); err != nil {
		slog.Warn("file not dispatched", slog.String("path", path), slog.Any("error", err))
	}
}

// indexFile is the per-file task body: parse into a local index, merge once.
// A failed read logs the offending path and leaves the shared index exactly
// as it was; the pool and the other tasks carry on.
func (in *Ingester) indexFile(path string) {
	stems, err := ParseFile(path)
	if err != nil {
		slog.Error("cannot index file", slog.String("path", path), slog.Any("error", err))
		return
	}

	local := NewInvertedIndex()
	local.AddAll(stems, path)

	in.index.Write(func(shared *InvertedIndex) {
		shared.Merge(local)
	})
}
