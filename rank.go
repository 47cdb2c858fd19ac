// ═══════════════════════════════════════════════════════════════════════════════
// RANKING: Scoring Search Results by Relevance
// ═══════════════════════════════════════════════════════════════════════════════
// Search walks the index for a set of query stems, counts matches per
// location, and ranks locations by term frequency normalised by document
// length.
//
// SCORING FORMULA:
// ----------------
// For each location:
//   score = matches / length
//
// Where:
//   matches = total occurrences of any query term in that location
//   length  = total tokens the location held at ingest time
//
// EXAMPLE CALCULATION:
// --------------------
// tiny.txt: "hello world hello" (3 tokens)
// Query: "hello"
//
//	matches = 2 (positions 1 and 3)
//	score   = 2 / 3 = 0.66666667
//
// A short document that is mostly about the query outranks a long document
// that merely mentions it, even when the long one has more raw occurrences.
// ═══════════════════════════════════════════════════════════════════════════════

package beacon

import (
	"sort"
	"strings"
)

// SearchResult is one ranked row: a location, how many query-term occurrences
// it held, and its length-normalised score.
//
// The score is materialised when the row is built, from the location length
// captured at that moment, so a result never has to reach back into the index.
type SearchResult struct {
	Where string
	Count int
	Score float64
}

// newSearchResult builds a row with its score derived from the count and the
// location's length.
func newSearchResult(where string, count, length int) *SearchResult {
	r := &SearchResult{Where: where}
	r.accumulate(count, length)
	return r
}

// accumulate folds additional matches into the row. Count and score always
// move together; there is no way to update one without the other.
func (r *SearchResult) accumulate(count, length int) {
	r.Count += count
	if length > 0 {
		r.Score = float64(r.Count) / float64(length)
	}
}

// Search runs an exact or prefix search for a set of stems and returns ranked
// results.
//
// EXACT MODE:
// -----------
// Each query stem that exists in the index contributes its per-location
// occurrence counts. Cost is proportional to the matched posting lists only.
//
// PREFIX MODE:
// ------------
// Each query stem selects the contiguous range of indexed terms it prefixes,
// and every term in the range contributes. Searching "he" matches "hello"
// and "help" at once.
//
// DEDUPLICATION:
// --------------
// Within one call a term's positions count once per location, even when two
// query stems select the same term (querying "he" and "hel" together must not
// double-count "hello"). Distinct terms landing on the same location sum, so
// the count is the total query-term occurrences in that document.
//
// Callers pass the stems of one query key: already stemmed, sorted, unique.
func (idx *InvertedIndex) Search(stems []string, partial bool) []SearchResult {
	rows := make(map[string]*SearchResult)
	credited := make(map[string]struct{})

	for _, stem := range stems {
		if partial {
			for _, term := range idx.TermsWithPrefix(stem) {
				idx.creditTerm(term, rows, credited)
			}
		} else {
			idx.creditTerm(stem, rows, credited)
		}
	}

	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, *row)
	}
	sortResults(results)
	return results
}

// creditTerm folds one term's postings into the per-location rows, at most
// once per call even if several query stems select the same term.
func (idx *InvertedIndex) creditTerm(term string, rows map[string]*SearchResult, credited map[string]struct{}) {
	if _, done := credited[term]; done {
		return
	}
	credited[term] = struct{}{}

	for location, positions := range idx.postings[term] {
		count := int(positions.GetCardinality())
		if row, exists := rows[location]; exists {
			row.accumulate(count, idx.lengths[location])
		} else {
			rows[location] = newSearchResult(location, count, idx.lengths[location])
		}
	}
}

// sortResults orders rows by descending score, then descending count, then
// caseless location. The sort is stable, so rows identical under all three
// keys keep their relative order.
func sortResults(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return strings.ToLower(a.Where) < strings.ToLower(b.Where)
	})
}
