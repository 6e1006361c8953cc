// Package codec decodes and encodes fabric topology documents.
package codec

import (
	"errors"
	"io"
	"path"
	"strings"

	"fabricview/internal/domain"
)

// ErrEmptyDocument is returned for an empty or null topology document
var ErrEmptyDocument = errors.New("empty topology document")

// Importer parses a topology document into a Graph
type Importer interface {
	Parse(r io.Reader) (*domain.Graph, error)
	Format() string
}

// Exporter writes a Graph as a topology document
type Exporter interface {
	Export(graph *domain.Graph, w io.Writer) error
	Format() string
}

// Codec is both an Importer and an Exporter
type Codec interface {
	Importer
	Exporter
}

// ForSource picks a codec from the file extension of a source reference.
// YAML is used for .yaml and .yml, JSON for everything else.
func ForSource(source string) Codec {
	// Strip query strings so "fabric.yaml?rev=2" still resolves
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}

	switch strings.ToLower(path.Ext(source)) {
	case ".yaml", ".yml":
		return NewYAMLCodec()
	default:
		return NewJSONCodec()
	}
}

// ForFormat returns the codec for a format name ("json" or "yaml")
func ForFormat(format string) (Codec, bool) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), true
	case "yaml", "yml":
		return NewYAMLCodec(), true
	default:
		return nil, false
	}
}
