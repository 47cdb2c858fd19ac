// Package beacon implements a concurrent positional inverted index for
// full-text search over plain-text corpora and crawled web pages.
//
// ═══════════════════════════════════════════════════════════════════════════════
// WHAT IS A POSITIONAL INVERTED INDEX?
// ═══════════════════════════════════════════════════════════════════════════════
// An inverted index is like the index at the back of a book, but for search
// engines. A positional one also remembers WHERE in each document a word
// appears.
//
// Example: Given these documents:
//   a.txt: "the quick brown fox"
//   b.txt: "the lazy dog"
//
// The index looks like:
//   "brown" → {a.txt: [3]}
//   "dog"   → {b.txt: [3]}
//   "fox"   → {a.txt: [4]}
//   "lazi"  → {b.txt: [2]}
//   "quick" → {a.txt: [2]}
//   "the"   → {a.txt: [1], b.txt: [1]}
//
// This allows us to:
// 1. Find documents containing a word instantly (without scanning all docs)
// 2. Walk terms in sorted order, which makes prefix search a range scan
// 3. Rank results, because we also know how long each document is
//
// STORAGE LAYOUT:
// ---------------
//
//	InvertedIndex
//	├── postings: map term → map location → *roaring.Bitmap of positions
//	├── terms:    sorted slice of every term (the iteration order contract)
//	└── lengths:  map location → total token count at ingest time
//
// Why roaring bitmaps for positions?
//   - A position set must stay sorted, unique and cheap to union; roaring
//     bitmaps give all three, plus O(1)-ish containment and cardinality
//   - Merging two shards of the same corpus is a bitmap Or per posting
//
// Why a sorted term slice next to the map?
//   - Go maps iterate in random order, but emission is byte-for-byte
//     deterministic and prefix search needs a contiguous key range
//   - Binary search over the slice finds a prefix range without touching
//     any term outside it
// ═══════════════════════════════════════════════════════════════════════════════

package beacon

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"
)

// InvertedIndex maps stems to the locations and 1-based positions where they
// occur, alongside a per-location token count used as the ranking denominator.
//
// An InvertedIndex is NOT safe for concurrent use. Tasks build private
// instances without locking and merge them into a shared instance guarded by
// a Shared handle; see shared.go.
type InvertedIndex struct {
	// POSITION-LEVEL STORAGE: term → location → bitmap of 1-based positions
	postings map[string]map[string]*roaring.Bitmap

	// Sorted term dictionary. Kept in lockstep with the postings keys so that
	// iteration and prefix ranges never depend on map order.
	terms []string

	// Per-location token counts, set when a whole document is added.
	lengths map[string]int
}

// NewInvertedIndex creates a new empty inverted index.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		postings: make(map[string]map[string]*roaring.Bitmap),
		lengths:  make(map[string]int),
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// INDEXING: Building the Search Index
// ═══════════════════════════════════════════════════════════════════════════════

// Add records one occurrence of stem at the given location and 1-based
// position. Empty stems and non-positive positions are ignored.
//
// Add does NOT touch the location's length; only AddAll knows how many tokens
// a document holds in total.
func (idx *InvertedIndex) Add(stem, location string, position int) {
	if stem == "" || position < 1 {
		return
	}

	locations, exists := idx.postings[stem]
	if !exists {
		locations = make(map[string]*roaring.Bitmap)
		idx.postings[stem] = locations
		idx.insertTerm(stem)
	}

	positions := locations[location]
	if positions == nil {
		positions = roaring.NewBitmap()
		locations[location] = positions
	}
	positions.Add(uint32(position))
}

// AddAll indexes a whole document's stems against a location.
//
// STEP-BY-STEP EXAMPLE:
// ---------------------
// Input: location="tiny.txt", stems=["hello", "world", "hello"]
//
// Step 1: lengths["tiny.txt"] = 3
// Step 2: Add("hello", "tiny.txt", 1)
//         Add("world", "tiny.txt", 2)
//         Add("hello", "tiny.txt", 3)
//
// The length is overwritten, not accumulated: re-adding a document resets its
// count to what was just seen. An empty stem slice is a no-op, so locations
// whose documents contain no searchable text never appear anywhere.
func (idx *InvertedIndex) AddAll(stems []string, location string) {
	if len(stems) == 0 {
		return
	}

	idx.lengths[location] = len(stems)
	for i, stem := range stems {
		idx.Add(stem, location, i+1)
	}
}

// Merge unions another index into this one.
//
// Postings merge by set union on positions, so merging is commutative,
// associative and idempotent. Lengths transfer when the location is new; when
// both sides know a location the LARGER value wins. Two shards claiming the
// same location means the ingester dispatched it twice, which is a logic bug
// upstream, so a genuine conflict is logged.
//
// The other index is left untouched and shares no storage with the receiver
// afterwards, so task-local indices can be discarded after merging.
func (idx *InvertedIndex) Merge(other *InvertedIndex) {
	for _, term := range other.terms {
		locations, exists := idx.postings[term]
		if !exists {
			locations = make(map[string]*roaring.Bitmap)
			idx.postings[term] = locations
			idx.insertTerm(term)
		}

		for location, positions := range other.postings[term] {
			if mine := locations[location]; mine != nil {
				mine.Or(positions)
			} else {
				locations[location] = positions.Clone()
			}
		}
	}

	for location, length := range other.lengths {
		current, exists := idx.lengths[location]
		switch {
		case !exists:
			idx.lengths[location] = length
		case length > current:
			slog.Warn("conflicting length for location during merge",
				slog.String("location", location),
				slog.Int("kept", length),
				slog.Int("dropped", current))
			idx.lengths[location] = length
		case length < current:
			slog.Warn("conflicting length for location during merge",
				slog.String("location", location),
				slog.Int("kept", current),
				slog.Int("dropped", length))
		}
	}
}

// Clear empties the index. Both postings and lengths reset; the instance is
// immediately reusable.
func (idx *InvertedIndex) Clear() {
	idx.postings = make(map[string]map[string]*roaring.Bitmap)
	idx.terms = nil
	idx.lengths = make(map[string]int)
}

// insertTerm keeps the sorted term dictionary in lockstep with the postings
// map. Callers must only invoke it for terms not yet present.
func (idx *InvertedIndex) insertTerm(term string) {
	i := sort.SearchStrings(idx.terms, term)
	idx.terms = append(idx.terms, "")
	copy(idx.terms[i+1:], idx.terms[i:])
	idx.terms[i] = term
}

// ═══════════════════════════════════════════════════════════════════════════════
// CONTAINMENT AND CARDINALITY
// ═══════════════════════════════════════════════════════════════════════════════
// Pure reads. Under concurrent use these run while holding the shared read
// lock; on task-local indices they need no coordination at all.

// HasTerm reports whether any location contains the term.
func (idx *InvertedIndex) HasTerm(term string) bool {
	_, exists := idx.postings[term]
	return exists
}

// HasLocation reports whether the term occurs at the location.
func (idx *InvertedIndex) HasLocation(term, location string) bool {
	_, exists := idx.postings[term][location]
	return exists
}

// HasPosition reports whether the term occurs at exactly this position within
// the location.
func (idx *InvertedIndex) HasPosition(term, location string, position int) bool {
	positions := idx.postings[term][location]
	return positions != nil && position >= 1 && positions.Contains(uint32(position))
}

// NumTerms returns the number of distinct terms in the index.
func (idx *InvertedIndex) NumTerms() int {
	return len(idx.terms)
}

// NumLocations returns the number of locations a term occurs in.
func (idx *InvertedIndex) NumLocations(term string) int {
	return len(idx.postings[term])
}

// NumPositions returns how many times a term occurs at a location.
func (idx *InvertedIndex) NumPositions(term, location string) int {
	positions := idx.postings[term][location]
	if positions == nil {
		return 0
	}
	return int(positions.GetCardinality())
}

// NumIndexedLocations returns how many locations have a recorded length.
func (idx *InvertedIndex) NumIndexedLocations() int {
	return len(idx.lengths)
}

// Length returns the token count recorded for a location, or zero if the
// location was never indexed.
func (idx *InvertedIndex) Length(location string) int {
	return idx.lengths[location]
}

// ═══════════════════════════════════════════════════════════════════════════════
// VIEWS: Read-Only Snapshots in Contract Order
// ═══════════════════════════════════════════════════════════════════════════════
// Every view copies out of the internal storage in the natural order of its
// keys or elements. That order is part of the public contract: the JSON
// emitter walks these views and its output is compared byte for byte.

// Terms returns every indexed term in sorted order.
func (idx *InvertedIndex) Terms() []string {
	view := make([]string, len(idx.terms))
	copy(view, idx.terms)
	return view
}

// TermsWithPrefix returns, in sorted order, every indexed term that starts
// with the given prefix.
//
// The sorted dictionary makes the prefix range contiguous: binary search
// finds the first candidate and the scan stops at the first term that no
// longer matches, so terms outside the range are never visited.
func (idx *InvertedIndex) TermsWithPrefix(prefix string) []string {
	var view []string
	for i := sort.SearchStrings(idx.terms, prefix); i < len(idx.terms); i++ {
		if !strings.HasPrefix(idx.terms[i], prefix) {
			break
		}
		view = append(view, idx.terms[i])
	}
	return view
}

// Locations returns, in sorted order, every location a term occurs in.
func (idx *InvertedIndex) Locations(term string) []string {
	locations := idx.postings[term]
	view := make([]string, 0, len(locations))
	for location := range locations {
		view = append(view, location)
	}
	sort.Strings(view)
	return view
}

// Positions returns the ascending 1-based positions of a term at a location.
func (idx *InvertedIndex) Positions(term, location string) []int {
	positions := idx.postings[term][location]
	if positions == nil {
		return nil
	}

	view := make([]int, 0, positions.GetCardinality())
	iter := positions.Iterator()
	for iter.HasNext() {
		view = append(view, int(iter.Next()))
	}
	return view
}

// IndexedLocations returns every location with a recorded length, sorted.
func (idx *InvertedIndex) IndexedLocations() []string {
	view := make([]string, 0, len(idx.lengths))
	for location := range idx.lengths {
		view = append(view, location)
	}
	sort.Strings(view)
	return view
}
