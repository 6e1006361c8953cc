package codec

import (
	"errors"
	"fmt"
	"io"

	"fabricview/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles topology documents written as YAML
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlTopology mirrors the JSON document field for field
type yamlTopology struct {
	Nodes []yamlNode `yaml:"nodes"`
	Links []yamlLink `yaml:"links"`
}

type yamlNode struct {
	ID       string  `yaml:"id"`
	NodeType int     `yaml:"nodetype,omitempty"`
	Desc     string  `yaml:"desc"`
	VendorID *uint32 `yaml:"vendor_id,omitempty"`
	DeviceID *uint32 `yaml:"device_id,omitempty"`
}

type yamlLink struct {
	Source string   `yaml:"source"`
	Target string   `yaml:"target"`
	Value  *float64 `yaml:"value,omitempty"`
}

// Parse decodes a topology document from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Graph, error) {
	var yt *yamlTopology
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&yt); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if yt == nil {
		return nil, ErrEmptyDocument
	}

	graph := domain.NewGraph()

	for _, yn := range yt.Nodes {
		graph.AddNode(domain.Node{
			ID:       yn.ID,
			Type:     domain.NodeType(yn.NodeType),
			Desc:     yn.Desc,
			VendorID: yn.VendorID,
			DeviceID: yn.DeviceID,
		})
	}

	for _, yl := range yt.Links {
		graph.AddLink(domain.Link{
			Source: yl.Source,
			Target: yl.Target,
			Value:  yl.Value,
		})
	}

	return graph, nil
}

// Export writes graph data as YAML
func (c *YAMLCodec) Export(graph *domain.Graph, w io.Writer) error {
	yt := yamlTopology{
		Nodes: make([]yamlNode, 0, len(graph.Nodes)),
		Links: make([]yamlLink, 0, len(graph.Links)),
	}

	for _, node := range graph.Nodes {
		yt.Nodes = append(yt.Nodes, yamlNode{
			ID:       node.ID,
			NodeType: int(node.Type),
			Desc:     node.Desc,
			VendorID: node.VendorID,
			DeviceID: node.DeviceID,
		})
	}

	for _, link := range graph.Links {
		yt.Links = append(yt.Links, yamlLink{
			Source: link.Source,
			Target: link.Target,
			Value:  link.Value,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(yt); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return encoder.Close()
}
