package scene

import (
	"math"
	"regexp"

	"fabricview/internal/domain"
)

// UnknownNodeType is the tooltip for nodes without a recognized type
const UnknownNodeType = "Unknown node type"

// hcaSuffix matches the port/adapter suffix appended to host descriptions
var hcaSuffix = regexp.MustCompile(` HCA-\d+.*`)

// Label strips the " HCA-<n>..." suffix from a node description
func Label(desc string) string {
	return hcaSuffix.ReplaceAllString(desc, "")
}

// Tooltip returns the human name of a node type
func Tooltip(t domain.NodeType) string {
	if name := t.Name(); name != "" {
		return name
	}
	return UnknownNodeType
}

// Width returns the stroke width for a link weight: sqrt(value), or 1 when
// the weight is absent or zero. Negative weights have no square root and
// also draw at width 1.
func Width(value *float64) float64 {
	if value == nil || *value <= 0 {
		return 1
	}
	return math.Sqrt(*value)
}
