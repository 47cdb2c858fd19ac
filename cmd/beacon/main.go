// Command beacon builds a positional inverted index over a text corpus or a
// crawled website and answers exact or prefix queries against it.
//
// Usage:
//
//	beacon -text corpus/ -query queries.txt -partial -threads 8
//	beacon -html https://example.org -crawl 50 -index web-index.json
//
// Outputs are three pretty JSON files: the index, the per-document token
// counts, and the ranked results. The process exits 0 on normal completion
// even when individual files or URLs failed; those are logged and skipped.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	beacon "github.com/DemetriusChatterjee/beacon"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("beacon", flag.ContinueOnError)
	var (
		text       = fs.String("text", "", "corpus root: directory tree (or single file) to index")
		queryPath  = fs.String("query", "", "query file, one query per line")
		partial    = fs.Bool("partial", false, "treat query stems as prefixes")
		countsPath = fs.String("counts", "", "counts JSON output path (default counts.json)")
		indexPath  = fs.String("index", "", "index JSON output path (default index.json)")
		results    = fs.String("results", "", "results JSON output path (default results.json)")
		threads    = fs.Int("threads", 0, "worker pool size (default 5)")
		htmlSeed   = fs.String("html", "", "seed URL to crawl and index")
		crawl      = fs.Int("crawl", 0, "maximum URLs to visit from the seed (default 1)")
		configPath = fs.String("config", "", "YAML config file with defaults for the options above")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts := beacon.DefaultOptions()
	if *configPath != "" {
		loaded, err := beacon.LoadOptions(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		opts = loaded
	}

	// Explicit flags override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "threads":
			opts.Threads = *threads
		case "counts":
			opts.CountsPath = *countsPath
		case "index":
			opts.IndexPath = *indexPath
		case "results":
			opts.ResultsPath = *results
		case "crawl":
			opts.Crawl = *crawl
		}
	})
	opts.Clamp()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: opts.Level(),
	})))

	engine := beacon.NewEngine(opts)
	defer engine.Close()

	start := time.Now()
	built := false

	if *text != "" {
		if err := engine.BuildText(*text); err != nil {
			// Per-file failures inside the tree are logged and skipped, but
			// an unusable root means the whole build was impossible.
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		built = true
	}
	if *htmlSeed != "" {
		engine.Crawl(*htmlSeed)
		built = true
	}

	queried := false
	if *queryPath != "" {
		if err := engine.ProcessQueries(*queryPath, *partial); err != nil {
			fmt.Fprintln(os.Stderr, err)
		} else {
			queried = true
		}
	}

	if built {
		if err := engine.WriteIndex(""); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		if err := engine.WriteCounts(""); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	if queried {
		if err := engine.WriteResults("", *partial); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	fmt.Printf("Elapsed: %.3f seconds\n", time.Since(start).Seconds())
	return 0
}
