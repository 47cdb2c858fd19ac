package beacon

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// ═══════════════════════════════════════════════════════════════════════════════
// QUERY PROCESSOR FIXTURES
// ═══════════════════════════════════════════════════════════════════════════════

func newTestProcessor(t *testing.T, workers int, corpus map[string]string) (*QueryProcessor, *WorkerPool) {
	t.Helper()

	shared := NewShared(NewInvertedIndex())
	shared.Write(func(idx *InvertedIndex) {
		for location, text := range corpus {
			idx.AddAll(Parse(text), location)
		}
	})

	pool := NewWorkerPool(workers)
	t.Cleanup(pool.Shutdown)
	return NewQueryProcessor(shared, pool), pool
}

func writeQueryFile(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queries.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ═══════════════════════════════════════════════════════════════════════════════
// PROCESS LINE TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestQueryProcessor_ProcessLine(t *testing.T) {
	qp, _ := newTestProcessor(t, 1, map[string]string{"tiny.txt": "hello world hello"})

	results := qp.ProcessLine("Hello", false)

	if len(results) != 1 {
		t.Fatalf("ProcessLine() returned %d results, want 1", len(results))
	}
	if results[0].Count != 2 || results[0].Where != "tiny.txt" {
		t.Errorf("ProcessLine() = %+v, want count 2 at tiny.txt", results[0])
	}
}

func TestQueryProcessor_ProcessLine_BlankLine(t *testing.T) {
	qp, _ := newTestProcessor(t, 1, map[string]string{"tiny.txt": "hello"})

	if results := qp.ProcessLine("   \t  ", false); results != nil {
		t.Errorf("ProcessLine(blank) = %v, want nil", results)
	}
	if n := len(qp.Results(false)); n != 0 {
		t.Errorf("blank line left %d memo entries, want 0", n)
	}
	if qp.SearchCount() != 0 {
		t.Error("blank line reached the index")
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// MEMOISATION TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestQueryProcessor_Memoisation(t *testing.T) {
	qp, _ := newTestProcessor(t, 1, map[string]string{"tiny.txt": "hello world hello"})

	first := qp.ProcessLine("hello", false)
	for i := 0; i < 99; i++ {
		qp.ProcessLine("hello", false)
	}

	if got := qp.SearchCount(); got != 1 {
		t.Errorf("SearchCount() = %d after 100 identical queries, want 1", got)
	}
	if again := qp.ProcessLine("hello", false); !reflect.DeepEqual(again, first) {
		t.Error("memoised answer differs from the first answer")
	}
}

// Lines that stem to the same key share one memo entry.
func TestQueryProcessor_Memoisation_EquivalentLines(t *testing.T) {
	qp, _ := newTestProcessor(t, 1, map[string]string{"doc.txt": "quick foxes run"})

	qp.ProcessLine("Quick FOXES", false)
	qp.ProcessLine("fox quick", false)

	if got := qp.SearchCount(); got != 1 {
		t.Errorf("SearchCount() = %d for two equivalent lines, want 1", got)
	}
}

// Exact and prefix memos are independent: the same key searched in both modes
// is two searches, and a hit in one never answers the other.
func TestQueryProcessor_Memoisation_ModesIndependent(t *testing.T) {
	qp, _ := newTestProcessor(t, 1, map[string]string{"tiny.txt": "hello world hello"})

	exact := qp.ProcessLine("he", false)
	prefix := qp.ProcessLine("he", true)

	if got := qp.SearchCount(); got != 2 {
		t.Errorf("SearchCount() = %d across two modes, want 2", got)
	}
	if len(exact) != 0 {
		t.Errorf("exact Search(he) found %d results, want 0", len(exact))
	}
	if len(prefix) != 1 {
		t.Errorf("prefix Search(he) found %d results, want 1", len(prefix))
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// PROCESS FILE TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestQueryProcessor_ProcessFile(t *testing.T) {
	qp, pool := newTestProcessor(t, 4, map[string]string{
		"a.txt": "hello world",
		"b.txt": "quick brown fox",
	})
	path := writeQueryFile(t, []string{"hello", "", "   ", "fox", "world hello"})

	if err := qp.ProcessFile(path, false); err != nil {
		t.Fatalf("ProcessFile() error: %v", err)
	}
	pool.Finish()

	want := []string{"fox", "hello", "hello world"}
	if got := qp.QueryKeys(false); !reflect.DeepEqual(got, want) {
		t.Errorf("QueryKeys() = %v, want %v", got, want)
	}
}

// One worker serialises the tasks, so a repeated line is answered from the
// memo after its first search.
func TestQueryProcessor_ProcessFile_RepeatedLines(t *testing.T) {
	qp, pool := newTestProcessor(t, 1, map[string]string{"tiny.txt": "hello world hello"})

	lines := make([]string, 100)
	for i := range lines {
		lines[i] = "hello"
	}
	path := writeQueryFile(t, lines)

	if err := qp.ProcessFile(path, false); err != nil {
		t.Fatalf("ProcessFile() error: %v", err)
	}
	pool.Finish()

	if got := qp.SearchCount(); got != 1 {
		t.Errorf("SearchCount() = %d for 100 repeats of one line, want 1", got)
	}
}

func TestQueryProcessor_ProcessFile_Missing(t *testing.T) {
	qp, _ := newTestProcessor(t, 1, nil)

	if err := qp.ProcessFile(filepath.Join(t.TempDir(), "absent.txt"), false); err == nil {
		t.Error("ProcessFile(missing) = nil, want error")
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestQueryProcessor_Results_IsSnapshot(t *testing.T) {
	qp, _ := newTestProcessor(t, 1, map[string]string{"tiny.txt": "hello world"})

	qp.ProcessLine("hello", false)
	snapshot := qp.Results(false)
	qp.ProcessLine("world", false)

	if len(snapshot) != 1 {
		t.Errorf("snapshot grew after later queries: %d entries, want 1", len(snapshot))
	}

	// Mutating the snapshot's rows must not corrupt the memo.
	snapshot["hello"][0].Count = 999
	if qp.ProcessLine("hello", false)[0].Count == 999 {
		t.Error("snapshot mutation leaked into the memo")
	}
}
