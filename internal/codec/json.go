package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"fabricview/internal/domain"
)

// JSONCodec handles the d3 force-graph JSON document
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse decodes a topology document from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Graph, error) {
	var graph *domain.Graph
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&graph); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if graph == nil {
		return nil, ErrEmptyDocument
	}

	// Anything after the document is a malformed payload
	var extra json.RawMessage
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("failed to parse JSON: trailing data after topology document")
	}

	normalize(graph)
	return graph, nil
}

// Export writes graph data as indented JSON
func (c *JSONCodec) Export(graph *domain.Graph, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(graph); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// normalize replaces nil collections so an empty document and "{}" decode alike
func normalize(graph *domain.Graph) {
	if graph.Nodes == nil {
		graph.Nodes = make([]domain.Node, 0)
	}
	if graph.Links == nil {
		graph.Links = make([]domain.Link, 0)
	}
}
