// ═══════════════════════════════════════════════════════════════════════════════
// THE ENGINE: Wiring It All Together
// ═══════════════════════════════════════════════════════════════════════════════
// Engine owns one shared index, one worker pool and one query processor, and
// sequences the phases of a run:
//
//   build corpus ──▶ Finish ──▶ run queries ──▶ Finish ──▶ emit JSON
//
// Every output is written only after Finish has returned for the work that
// feeds it, so the emitted bytes are a pure function of the final index and
// memo state. The index travels as a value owned here and passed to
// collaborators; there is no package-level state anywhere in the engine.
// ═══════════════════════════════════════════════════════════════════════════════

package beacon

import (
	"time"
)

// Engine is the top-level handle over the indexing and search machinery.
type Engine struct {
	opts    Options
	index   *Shared[*InvertedIndex]
	pool    *WorkerPool
	queries *QueryProcessor
}

// NewEngine builds an engine from options. Out-of-range options are clamped.
func NewEngine(opts Options) *Engine {
	opts.Clamp()

	index := NewShared(NewInvertedIndex())
	pool := NewWorkerPool(opts.Threads)
	return &Engine{
		opts:    opts,
		index:   index,
		pool:    pool,
		queries: NewQueryProcessor(index, pool),
	}
}

// BuildText indexes every text file under root and waits for the build to
// quiesce. Per-file failures are logged and skipped; only an unusable root is
// an error.
func (e *Engine) BuildText(root string) error {
	ingester := NewIngester(e.index, e.pool)
	if err := ingester.Build(root); err != nil {
		return err
	}
	e.pool.Finish()
	return nil
}

// Crawl indexes pages reachable from seed, up to the configured visit budget,
// using the default HTTP collaborators.
func (e *Engine) Crawl(seed string) {
	e.CrawlWith(seed,
		NewHTTPFetcher(e.opts.Redirects, 30*time.Second),
		HTMLLinkExtractor{},
		HTMLCleaner{})
}

// CrawlWith is Crawl with injected collaborators. It waits for the crawl to
// quiesce before returning.
func (e *Engine) CrawlWith(seed string, fetcher Fetcher, links LinkExtractor, cleaner Cleaner) {
	ingester := NewWebIngester(e.index, e.pool, e.opts.Crawl, fetcher, links, cleaner)
	ingester.Crawl(seed)
	e.pool.Finish()
}

// ProcessQueries runs every query line in a file and waits for the answers.
func (e *Engine) ProcessQueries(path string, partial bool) error {
	if err := e.queries.ProcessFile(path, partial); err != nil {
		return err
	}
	e.pool.Finish()
	return nil
}

// ProcessQuery answers a single query line synchronously.
func (e *Engine) ProcessQuery(line string, partial bool) []SearchResult {
	return e.queries.ProcessLine(line, partial)
}

// WriteIndex emits the index JSON to the configured or given path.
func (e *Engine) WriteIndex(path string) error {
	if path == "" {
		path = e.opts.IndexPath
	}
	var err error
	e.index.Read(func(idx *InvertedIndex) {
		err = WriteIndexFile(idx, path)
	})
	return err
}

// WriteCounts emits the counts JSON to the configured or given path.
func (e *Engine) WriteCounts(path string) error {
	if path == "" {
		path = e.opts.CountsPath
	}
	var err error
	e.index.Read(func(idx *InvertedIndex) {
		err = WriteCountsFile(idx, path)
	})
	return err
}

// WriteResults emits one mode's memoised results to the configured or given
// path.
func (e *Engine) WriteResults(path string, partial bool) error {
	if path == "" {
		path = e.opts.ResultsPath
	}
	return WriteResultsFile(e.queries.Results(partial), path)
}

// Queries exposes the query processor, mainly for instrumentation.
func (e *Engine) Queries() *QueryProcessor {
	return e.queries
}

// Index exposes the shared index handle.
func (e *Engine) Index() *Shared[*InvertedIndex] {
	return e.index
}

// Close drains and stops the worker pool. The engine is done after Close.
func (e *Engine) Close() {
	e.pool.Join()
}
