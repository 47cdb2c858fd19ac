// ═══════════════════════════════════════════════════════════════════════════════
// WEB INGESTION: Bounded Breadth-First Crawl
// ═══════════════════════════════════════════════════════════════════════════════
// The web ingester feeds the index from crawled pages instead of files. It
// shares the ingester's merge protocol: every page builds a task-local index
// against its URL and merges once under the write lock.
//
// CRAWL SHAPE:
// ------------
//   seed ──▶ visit task ──▶ fetch ──▶ clean ──▶ index ──▶ extract links
//                 ▲                                            │
//                 └──────── one new task per unseen link ◀─────┘
//
// A shared visited set (its own mutex, never held across a fetch) stops
// revisits, and a total-visit budget stops the crawl from running away. A
// fetch failure logs the URL and ends that branch; nothing propagates.
//
// The fetching, link extraction and HTML cleaning are collaborator
// interfaces. Production uses the net/http and x/net/html implementations
// below; tests inject canned ones. Link discovery order depends on the
// cleaner and scheduler, so the order of visits is not deterministic. The SET
// of visited URLs is deterministic for a given graph only while the budget is
// not exhausted; once it is, which URLs made the cut depends on scheduling.
// ═══════════════════════════════════════════════════════════════════════════════

package beacon

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// Page is one fetched web page. URL is the final URL after redirects; the
// page's outgoing links resolve against it. The page itself indexes under the
// URL that was requested, not under this one.
type Page struct {
	URL         string
	Status      int
	ContentType string
	Body        string
}

// Fetcher retrieves a page over the network.
type Fetcher interface {
	Fetch(url string) (*Page, error)
}

// LinkExtractor pulls outgoing links from an HTML document, resolved against
// the URL it was fetched from.
type LinkExtractor interface {
	ExtractLinks(base, doc string) []string
}

// Cleaner reduces an HTML document to its visible text.
type Cleaner interface {
	StripHTML(doc string) string
}

// ═══════════════════════════════════════════════════════════════════════════════
// DEFAULT COLLABORATORS
// ═══════════════════════════════════════════════════════════════════════════════

// HTTPFetcher fetches pages with net/http, following a bounded number of
// redirects.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher that follows at most maxRedirects
// redirects and gives up on a page after the timeout.
func NewHTTPFetcher(maxRedirects int, timeout time.Duration) *HTTPFetcher {
	if maxRedirects < 0 {
		maxRedirects = 0
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// Fetch performs a GET and returns the page, whatever its status code.
// Deciding what to do with a 404 or a PDF is the caller's business.
func (f *HTTPFetcher) Fetch(target string) (*Page, error) {
	resp, err := f.client.Get(target)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Page{
		URL:         resp.Request.URL.String(),
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
	}, nil
}

// HTMLLinkExtractor walks an HTML token stream collecting anchor targets.
type HTMLLinkExtractor struct{}

// ExtractLinks returns the http(s) links of a document, resolved against the
// base URL, with fragments dropped so "#section" anchors don't multiply
// visits to one page.
func (HTMLLinkExtractor) ExtractLinks(base, doc string) []string {
	parsed, err := url.Parse(base)
	if err != nil {
		return nil
	}

	var links []string
	tokenizer := html.NewTokenizer(strings.NewReader(doc))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "a" {
				continue
			}
			for _, attr := range token.Attr {
				if attr.Key != "href" {
					continue
				}
				resolved, err := parsed.Parse(attr.Val)
				if err != nil {
					continue
				}
				if resolved.Scheme != "http" && resolved.Scheme != "https" {
					continue
				}
				resolved.Fragment = ""
				links = append(links, resolved.String())
			}
		}
	}
}

// HTMLCleaner strips tags from a document, keeping text nodes.
type HTMLCleaner struct{}

// StripHTML returns the visible text of a document. Script and style bodies
// are skipped; a space separates adjacent text nodes so words from different
// elements never fuse.
func (HTMLCleaner) StripHTML(doc string) string {
	var b strings.Builder
	skip := 0

	tokenizer := html.NewTokenizer(strings.NewReader(doc))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			token := tokenizer.Token()
			if token.Data == "script" || token.Data == "style" {
				skip++
			}
		case html.EndTagToken:
			token := tokenizer.Token()
			if (token.Data == "script" || token.Data == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.WriteString(tokenizer.Token().Data)
				b.WriteByte(' ')
			}
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// THE INGESTER
// ═══════════════════════════════════════════════════════════════════════════════

// WebIngester crawls from a seed URL, indexing every HTML page it reaches
// within its visit budget.
type WebIngester struct {
	index   *Shared[*InvertedIndex]
	pool    *WorkerPool
	fetcher Fetcher
	links   LinkExtractor
	cleaner Cleaner

	mu      sync.Mutex
	visited map[string]struct{}
	budget  int
}

// NewWebIngester creates a crawler with the given collaborators. Budgets
// below one clamp to one, so a crawl always at least visits its seed.
func NewWebIngester(index *Shared[*InvertedIndex], pool *WorkerPool, budget int,
	fetcher Fetcher, links LinkExtractor, cleaner Cleaner) *WebIngester {

	if budget < 1 {
		budget = 1
	}
	return &WebIngester{
		index:   index,
		pool:    pool,
		fetcher: fetcher,
		links:   links,
		cleaner: cleaner,
		visited: make(map[string]struct{}),
		budget:  budget,
	}
}

// Crawl starts the crawl at the seed. Like the file ingester's Build, it
// returns after dispatch; callers wait on the pool's Finish.
func (wi *WebIngester) Crawl(seed string) {
	wi.dispatch(seed)
}

// Visited returns the URLs claimed so far, sorted.
func (wi *WebIngester) Visited() []string {
	wi.mu.Lock()
	defer wi.mu.Unlock()

	urls := make([]string, 0, len(wi.visited))
	for u := range wi.visited {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// dispatch submits one per-URL visit task.
func (wi *WebIngester) dispatch(target string) {
	if err := wi.pool.Execute(func() { wi.visit(target) }); err != nil {
		slog.Warn("url not dispatched", slog.String("url", target), slog.Any("error", err))
	}
}

// visit is the per-URL task body.
func (wi *WebIngester) visit(target string) {
	// Claim the URL before fetching. The mutex guards the set and the budget
	// check only; it is released before any network I/O.
	wi.mu.Lock()
	if _, seen := wi.visited[target]; seen || len(wi.visited) >= wi.budget {
		wi.mu.Unlock()
		return
	}
	wi.visited[target] = struct{}{}
	wi.mu.Unlock()

	page, err := wi.fetcher.Fetch(target)
	if err != nil {
		// A dead URL is terminal for its branch, not for the crawl.
		slog.Error("fetch failed", slog.String("url", target), slog.Any("error", err))
		return
	}
	if page.Status != http.StatusOK || !isHTML(page.ContentType) {
		slog.Info("skipping non-HTML page",
			slog.String("url", target),
			slog.Int("status", page.Status),
			slog.String("type", page.ContentType))
		return
	}

	stems := Parse(wi.cleaner.StripHTML(page.Body))
	local := NewInvertedIndex()
	local.AddAll(stems, target)
	wi.index.Write(func(shared *InvertedIndex) {
		shared.Merge(local)
	})

	for _, link := range wi.links.ExtractLinks(page.URL, page.Body) {
		wi.dispatch(link)
	}
}

// isHTML reports whether a Content-Type header denotes an HTML document.
func isHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}
