// ═══════════════════════════════════════════════════════════════════════════════
// TEXT ANALYSIS OVERVIEW
// ═══════════════════════════════════════════════════════════════════════════════
// Text analysis transforms raw text into searchable stems through a multi-stage
// pipeline. Every character of text that enters the index, and every query,
// goes through this exact pipeline, which is what makes queries and documents
// comparable.
//
// ANALYSIS PIPELINE:
// ------------------
//  1. Decomposition  → Unicode NFD ("é" → "e" + combining accent)
//  2. Mark stripping → Remove combining marks left by decomposition
//  3. Letter filter  → Drop anything that is not a letter or whitespace
//  4. Lowercasing    → Normalize case ("Quick" → "quick")
//  5. Tokenization   → Split on whitespace
//  6. Stemming       → Reduce words to root form ("running" → "run")
//
// EXAMPLE TRANSFORMATION:
// -----------------------
// Input:  "Répondez, s'il vous plaît!"
// Step 1: "Répondez, s'il vous plaît!"   (accents decomposed)
// Step 2: "Repondez, s'il vous plait!"   (marks stripped)
// Step 3: "repondez sil vous plait"      (letters + whitespace only, lowered)
// Step 5: ["repondez", "sil", "vous", "plait"]
// Step 6: ["repondez", "sil", "vous", "plait"]  (English stemmer, no change)
//
// WHY THIS MATTERS:
// -----------------
// The only guarantee downstream code relies on is determinism: two inputs that
// reduce to the same words produce the same stems, so a query typed with
// accents or odd casing still finds the documents it should.
// ═══════════════════════════════════════════════════════════════════════════════

package beacon

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// markStripper builds a transformer that decomposes text to NFD and removes
// the combining marks the decomposition exposes. "café" → "cafe", "naïve" →
// "naive". Chained transformers carry internal buffers, so every call gets a
// fresh one; sharing a package-level instance across worker goroutines would
// race.
func markStripper() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
}

// Clean reduces text to lowercase letters and whitespace.
//
// Digits, punctuation and symbols vanish entirely rather than acting as
// separators, so "o'clock" becomes "oclock" and "hello-world" becomes
// "helloworld". Whitespace survives so the caller can still split into words.
func Clean(text string) string {
	decomposed, _, err := transform.String(markStripper(), text)
	if err != nil {
		// The transform only fails on invalid UTF-8; fall back to the raw
		// bytes and let the letter filter below drop what it can't keep.
		decomposed = text
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Parse transforms a line of text into searchable stems, in document order.
//
// Example:
//
//	stems := Parse("The quick brown foxes JUMPED!")
//	// Returns: ["the", "quick", "brown", "fox", "jump"]
//
// A stem's 1-based ordinal in the returned slice is its position within the
// line, which is exactly what the index stores.
func Parse(line string) []string {
	words := strings.Fields(Clean(line))
	stems := make([]string, 0, len(words))
	for _, word := range words {
		stem := snowballeng.Stem(word, false)
		if stem != "" {
			stems = append(stems, stem)
		}
	}
	return stems
}

// ParseReader streams a document and returns its stems in document order.
//
// The reader is consumed line by line so arbitrarily large documents never
// need to fit in memory twice. Positions continue across lines: the first stem
// of line two follows the last stem of line one.
func ParseReader(r io.Reader) ([]string, error) {
	var stems []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		stems = append(stems, Parse(scanner.Text())...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return stems, nil
}

// ParseFile reads and stems a whole file.
func ParseFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseReader(f)
}

// UniqueStems returns the sorted, de-duplicated stems of a line.
//
// Example:
//
//	UniqueStems("running runs RAN run")
//	// Returns: ["ran", "run"]
func UniqueStems(line string) []string {
	stems := Parse(line)
	sort.Strings(stems)

	unique := stems[:0]
	for i, stem := range stems {
		if i == 0 || stem != stems[i-1] {
			unique = append(unique, stem)
		}
	}
	return unique
}

// MakeQueryKey canonicalises a query line to its space-joined sorted unique
// stems. Two query lines that stem to the same word set get the same key, so
// "Quick FOXES" and "fox quick" share one memo entry. An empty key means the
// line had nothing searchable in it.
//
// The canonicalisation is idempotent: feeding a key back through produces the
// same key, because stemming a stem is a no-op and the set is already sorted.
func MakeQueryKey(line string) string {
	return strings.Join(UniqueStems(line), " ")
}
