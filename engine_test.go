package beacon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ═══════════════════════════════════════════════════════════════════════════════
// END-TO-END SCENARIOS
// ═══════════════════════════════════════════════════════════════════════════════
// Full runs through the engine: build a corpus, answer queries, emit JSON,
// compare bytes.

func buildTinyEngine(t *testing.T) (*Engine, string) {
	t.Helper()

	root := t.TempDir()
	tiny := filepath.Join(root, "tiny.txt")
	if err := os.WriteFile(tiny, []byte("hello world hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.Threads = 3
	engine := NewEngine(opts)
	t.Cleanup(engine.Close)

	if err := engine.BuildText(root); err != nil {
		t.Fatalf("BuildText() error: %v", err)
	}
	return engine, tiny
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// Scenario: one file, one exact query, all three outputs.
func TestEngine_SingleFileExactQuery(t *testing.T) {
	engine, tiny := buildTinyEngine(t)

	results := engine.ProcessQuery("Hello", false)
	if len(results) != 1 || results[0].Count != 2 {
		t.Fatalf("ProcessQuery(Hello) = %v, want one result with count 2", results)
	}

	out := t.TempDir()
	indexPath := filepath.Join(out, "index.json")
	countsPath := filepath.Join(out, "counts.json")
	resultsPath := filepath.Join(out, "results.json")
	if err := engine.WriteIndex(indexPath); err != nil {
		t.Fatal(err)
	}
	if err := engine.WriteCounts(countsPath); err != nil {
		t.Fatal(err)
	}
	if err := engine.WriteResults(resultsPath, false); err != nil {
		t.Fatal(err)
	}

	q := func(s string) string { return `"` + s + `"` }
	wantIndex := "{\n" +
		"  " + q("hello") + ": {\n" +
		"    " + q(tiny) + ": [\n      1,\n      3\n    ]\n  },\n" +
		"  " + q("world") + ": {\n" +
		"    " + q(tiny) + ": [\n      2\n    ]\n  }\n}\n"
	if got := readFile(t, indexPath); got != wantIndex {
		t.Errorf("index JSON = %q, want %q", got, wantIndex)
	}

	wantCounts := "{\n  " + q(tiny) + ": 3\n}\n"
	if got := readFile(t, countsPath); got != wantCounts {
		t.Errorf("counts JSON = %q, want %q", got, wantCounts)
	}

	wantResults := "{\n  " + q("hello") + ": [\n" +
		"    {\n      \"count\": 2,\n      \"score\": 0.66666667,\n      " +
		"\"where\": " + q(tiny) + "\n    }\n  ]\n}\n"
	if got := readFile(t, resultsPath); got != wantResults {
		t.Errorf("results JSON = %q, want %q", got, wantResults)
	}
}

// Scenario: a prefix query whose stem is only a prefix of indexed terms.
func TestEngine_PrefixQuery(t *testing.T) {
	engine, _ := buildTinyEngine(t)

	results := engine.ProcessQuery("he", true)
	if len(results) != 1 {
		t.Fatalf("ProcessQuery(he, partial) = %v, want one result", results)
	}
	if results[0].Count != 2 {
		t.Errorf("prefix count = %d, want 2", results[0].Count)
	}
}

// Scenario: tied rows break on caseless location order.
func TestEngine_TiedScoreCaselessOrder(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "A.txt"), []byte("x x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("x x"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := NewEngine(DefaultOptions())
	t.Cleanup(engine.Close)
	if err := engine.BuildText(root); err != nil {
		t.Fatal(err)
	}

	results := engine.ProcessQuery("x", false)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !strings.HasSuffix(results[0].Where, "A.txt") || !strings.HasSuffix(results[1].Where, "b.txt") {
		t.Errorf("tie order = [%q %q], want A.txt before b.txt", results[0].Where, results[1].Where)
	}
}

// Queries run against a quiesced index; the engine waits for the build before
// answering and for the queries before emitting.
func TestEngine_QueryFileAfterBuild(t *testing.T) {
	engine, _ := buildTinyEngine(t)

	queries := filepath.Join(t.TempDir(), "queries.txt")
	if err := os.WriteFile(queries, []byte("hello\nworld\n\nabsent\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := engine.ProcessQueries(queries, false); err != nil {
		t.Fatalf("ProcessQueries() error: %v", err)
	}

	memo := engine.Queries().Results(false)
	if len(memo) != 3 {
		t.Errorf("memo has %d entries, want 3 (hello, world, absent)", len(memo))
	}
	if len(memo["absent"]) != 0 {
		t.Errorf("memo[absent] = %v, want empty", memo["absent"])
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// OPTIONS TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Threads != 5 {
		t.Errorf("default Threads = %d, want 5", opts.Threads)
	}
	if opts.IndexPath != "index.json" || opts.CountsPath != "counts.json" || opts.ResultsPath != "results.json" {
		t.Error("default output paths wrong")
	}
}

func TestOptions_Clamp(t *testing.T) {
	opts := Options{Threads: -3, Crawl: 0, Redirects: -1}
	opts.Clamp()

	if opts.Threads != 1 || opts.Crawl != 1 || opts.Redirects != 0 {
		t.Errorf("Clamp() = %+v, want minimums 1/1/0", opts)
	}
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beacon.yaml")
	config := "threads: 8\nindex: out/index.json\nlog-level: warn\n"
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions() error: %v", err)
	}
	if opts.Threads != 8 {
		t.Errorf("Threads = %d, want 8", opts.Threads)
	}
	if opts.IndexPath != "out/index.json" {
		t.Errorf("IndexPath = %q, want out/index.json", opts.IndexPath)
	}
	// Keys absent from the file keep their defaults.
	if opts.CountsPath != "counts.json" {
		t.Errorf("CountsPath = %q, want default counts.json", opts.CountsPath)
	}
	if opts.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", opts.LogLevel)
	}
}

func TestLoadOptions_Missing(t *testing.T) {
	if _, err := LoadOptions(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadOptions(missing) = nil, want error")
	}
}
