// ═══════════════════════════════════════════════════════════════════════════════
// JSON EMISSION: Canonical Textual Output
// ═══════════════════════════════════════════════════════════════════════════════
// The engine's outputs are three pretty-printed JSON documents whose bytes are
// part of the contract: fixtures compare them byte for byte, and a concurrent
// build must emit exactly what a single-threaded build does.
//
// SHAPES:
// -------
// Index:   term → location → array of ascending positions
// Counts:  location → token count
// Results: query key → array of {count, score, where} rows
//
// FORMAT RULES:
// -------------
// - Two-space indentation, "\n" separators, UTF-8
// - Object keys in sorted order (the index views already guarantee it)
// - Every element on its own line; closing brackets on their own line
// - Scores printed with exactly eight decimal places
// - '"' and '\' escaped inside strings; nothing else can appear, because
//   terms are alphabetic and locations are paths or URLs
//
// EXAMPLE (index for a three-word file):
//
//	{
//	  "hello": {
//	    "tiny.txt": [
//	      1,
//	      3
//	    ]
//	  },
//	  "world": {
//	    "tiny.txt": [
//	      2
//	    ]
//	  }
//	}
//
// We hand-roll the writer instead of using encoding/json: Go maps would have
// to be rebuilt into ordered intermediates anyway, and float64 marshalling
// does not produce fixed-width scores.
// ═══════════════════════════════════════════════════════════════════════════════

package beacon

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// WriteIndex emits the full index as pretty JSON: every term in sorted order,
// every location in sorted order, every position ascending.
func WriteIndex(idx *InvertedIndex, w io.Writer) error {
	bw := bufio.NewWriter(w)

	bw.WriteByte('{')
	for i, term := range idx.Terms() {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteByte('\n')
		writeIndent(bw, 1)
		writeQuoted(bw, term)
		bw.WriteString(": {")

		for j, location := range idx.Locations(term) {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('\n')
			writeIndent(bw, 2)
			writeQuoted(bw, location)
			bw.WriteString(": [")

			for k, position := range idx.Positions(term, location) {
				if k > 0 {
					bw.WriteByte(',')
				}
				bw.WriteByte('\n')
				writeIndent(bw, 3)
				bw.WriteString(strconv.Itoa(position))
			}
			bw.WriteByte('\n')
			writeIndent(bw, 2)
			bw.WriteByte(']')
		}
		bw.WriteByte('\n')
		writeIndent(bw, 1)
		bw.WriteByte('}')
	}
	bw.WriteString("\n}\n")
	return bw.Flush()
}

// WriteCounts emits the per-location token counts as pretty JSON, locations
// in sorted order.
func WriteCounts(idx *InvertedIndex, w io.Writer) error {
	bw := bufio.NewWriter(w)

	bw.WriteByte('{')
	for i, location := range idx.IndexedLocations() {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteByte('\n')
		writeIndent(bw, 1)
		writeQuoted(bw, location)
		bw.WriteString(": ")
		bw.WriteString(strconv.Itoa(idx.Length(location)))
	}
	bw.WriteString("\n}\n")
	return bw.Flush()
}

// WriteResults emits memoised results as pretty JSON: query keys in sorted
// order, each holding its ranked rows. Row fields appear in the fixed order
// count, score, where; scores carry eight decimal places.
func WriteResults(results map[string][]SearchResult, w io.Writer) error {
	bw := bufio.NewWriter(w)

	keys := make([]string, 0, len(results))
	for key := range results {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	bw.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteByte('\n')
		writeIndent(bw, 1)
		writeQuoted(bw, key)
		bw.WriteString(": [")

		for j, row := range results[key] {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('\n')
			writeIndent(bw, 2)
			bw.WriteByte('{')

			bw.WriteByte('\n')
			writeIndent(bw, 3)
			bw.WriteString(`"count": `)
			bw.WriteString(strconv.Itoa(row.Count))
			bw.WriteByte(',')

			bw.WriteByte('\n')
			writeIndent(bw, 3)
			bw.WriteString(`"score": `)
			bw.WriteString(strconv.FormatFloat(row.Score, 'f', 8, 64))
			bw.WriteByte(',')

			bw.WriteByte('\n')
			writeIndent(bw, 3)
			bw.WriteString(`"where": `)
			writeQuoted(bw, row.Where)

			bw.WriteByte('\n')
			writeIndent(bw, 2)
			bw.WriteByte('}')
		}
		bw.WriteByte('\n')
		writeIndent(bw, 1)
		bw.WriteByte(']')
	}
	bw.WriteString("\n}\n")
	return bw.Flush()
}

// WriteIndexFile writes the index JSON to a file, creating or truncating it.
func WriteIndexFile(idx *InvertedIndex, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteIndex(idx, w) })
}

// WriteCountsFile writes the counts JSON to a file.
func WriteCountsFile(idx *InvertedIndex, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteCounts(idx, w) })
}

// WriteResultsFile writes the results JSON to a file.
func WriteResultsFile(results map[string][]SearchResult, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteResults(results, w) })
}

func writeFile(path string, emit func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := emit(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeIndent writes level repetitions of two spaces.
func writeIndent(bw *bufio.Writer, level int) {
	for i := 0; i < level; i++ {
		bw.WriteString("  ")
	}
}

// writeQuoted writes a double-quoted JSON string, escaping backslash and
// double quote. Terms are lowercase alphabetic and locations are paths or
// URLs, so no other escapes arise; these two are handled anyway.
func writeQuoted(bw *bufio.Writer, s string) {
	bw.WriteByte('"')
	if strings.ContainsAny(s, `"\`) {
		for _, r := range s {
			if r == '"' || r == '\\' {
				bw.WriteByte('\\')
			}
			bw.WriteRune(r)
		}
	} else {
		bw.WriteString(s)
	}
	bw.WriteByte('"')
}
