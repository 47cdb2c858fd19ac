package beacon

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Options configures an Engine. Zero or negative numeric fields are clamped
// to their minimums rather than rejected, so a sloppy config file degrades to
// a working single-threaded engine instead of an error.
type Options struct {
	// Threads is the worker pool size.
	Threads int `yaml:"threads"`

	// IndexPath, CountsPath and ResultsPath are where the engine writes its
	// three JSON outputs.
	IndexPath   string `yaml:"index"`
	CountsPath  string `yaml:"counts"`
	ResultsPath string `yaml:"results"`

	// Crawl caps the total URLs a web crawl may visit.
	Crawl int `yaml:"crawl"`

	// Redirects caps redirect-following per fetched page.
	Redirects int `yaml:"redirects"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log-level"`
}

// DefaultOptions returns the standard engine configuration.
func DefaultOptions() Options {
	return Options{
		Threads:     5,
		IndexPath:   "index.json",
		CountsPath:  "counts.json",
		ResultsPath: "results.json",
		Crawl:       1,
		Redirects:   3,
		LogLevel:    "info",
	}
}

// LoadOptions reads a YAML config file over the defaults. Keys absent from
// the file keep their default values.
//
// Example file:
//
//	threads: 8
//	index: out/index.json
//	log-level: warn
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("config file %s: %w", path, err)
	}

	opts.Clamp()
	return opts, nil
}

// Clamp silently pulls out-of-range numeric options back to their minimums.
func (o *Options) Clamp() {
	if o.Threads < 1 {
		o.Threads = 1
	}
	if o.Crawl < 1 {
		o.Crawl = 1
	}
	if o.Redirects < 0 {
		o.Redirects = 0
	}
}

// Level translates the configured log level name for slog. Unknown names mean
// info.
func (o *Options) Level() slog.Level {
	switch o.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
