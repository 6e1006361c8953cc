// Package loader fetches, decodes and validates fabric topology documents.
package loader

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"fabricview/internal/codec"
	"fabricview/internal/domain"
	"fabricview/internal/metrics"
)

// Remapper rewrites node descriptions by GUID
type Remapper interface {
	RemapNodeName(guid uint64, desc string) string
}

// Options configures a Loader
type Options struct {
	// BaseDir resolves relative file sources
	BaseDir string
	// Timeout bounds http fetches
	Timeout time.Duration
	// SSH enables ssh:// sources when set
	SSH *SSHConfig
	// Remapper, when set, rewrites node descriptions after decoding
	Remapper Remapper
}

// Loader turns a source reference into a validated Graph
type Loader struct {
	files    *FileFetcher
	fetchers map[string]Fetcher
	remapper Remapper
}

// New creates a loader
func New(opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	files := &FileFetcher{BaseDir: opts.BaseDir}
	web := NewHTTPFetcher(opts.Timeout)

	l := &Loader{
		files: files,
		fetchers: map[string]Fetcher{
			"file":  files,
			"http":  web,
			"https": web,
		},
		remapper: opts.Remapper,
	}

	if opts.SSH != nil {
		l.fetchers["ssh"] = NewSSHFetcher(*opts.SSH)
	}

	return l
}

// WithFetcher registers a fetcher for a URL scheme
func (l *Loader) WithFetcher(scheme string, f Fetcher) *Loader {
	l.fetchers[scheme] = f
	return l
}

// Load fetches the source, decodes it and checks referential integrity.
// An empty source returns ErrNoSource. Every other failure is a *LoadError.
func (l *Loader) Load(ctx context.Context, source string) (*domain.Graph, error) {
	if source == "" {
		return nil, ErrNoSource
	}

	start := time.Now()
	defer func() {
		metrics.LoadDuration.Observe(time.Since(start).Seconds())
	}()

	fetcher, ref, err := l.fetcherFor(source)
	if err != nil {
		return nil, l.fail(source, OpFetch, err)
	}

	data, err := fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, l.fail(source, OpFetch, err)
	}
	log.Printf("Fetched %s (%s)", source, humanize.Bytes(uint64(len(data))))

	graph, err := codec.ForSource(ref).Parse(bytes.NewReader(data))
	if err != nil {
		return nil, l.fail(source, OpDecode, err)
	}

	if err := graph.Validate(); err != nil {
		return nil, l.fail(source, OpValidate, err)
	}

	l.remap(graph)

	log.Printf("Loaded %s: %d nodes, %d links in %s",
		source, len(graph.Nodes), len(graph.Links), time.Since(start).Round(time.Millisecond))
	return graph, nil
}

// LocalPath returns the file path of a local source
func (l *Loader) LocalPath(source string) (string, bool) {
	if source == "" {
		return "", false
	}
	scheme, ref := splitScheme(source)
	if scheme != "file" {
		return "", false
	}
	return l.files.Path(ref), true
}

func (l *Loader) fetcherFor(source string) (Fetcher, string, error) {
	scheme, ref := splitScheme(source)
	f, ok := l.fetchers[scheme]
	if !ok {
		return nil, "", errors.New("unsupported source scheme " + scheme)
	}
	return f, ref, nil
}

func (l *Loader) remap(graph *domain.Graph) {
	if l.remapper == nil {
		return
	}
	for i := range graph.Nodes {
		node := &graph.Nodes[i]
		if guid, ok := node.GUID(); ok {
			node.Desc = l.remapper.RemapNodeName(guid, node.Desc)
		}
	}
}

func (l *Loader) fail(source, op string, err error) error {
	metrics.LoadErrorsTotal.WithLabelValues(op).Inc()
	return &LoadError{Source: source, Op: op, Err: err}
}

// splitScheme separates the URL scheme from a source. Plain paths and
// file:// URLs report "file" with the path as reference; other URLs keep
// the full source as reference.
func splitScheme(source string) (string, string) {
	i := strings.Index(source, "://")
	if i <= 0 {
		return "file", source
	}

	u, err := url.Parse(source)
	if err != nil {
		return "file", source
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "file" {
		return "file", u.Path
	}
	return scheme, source
}
