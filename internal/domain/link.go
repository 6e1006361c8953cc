package domain

// Link represents a cable between two nodes, referenced by node id
type Link struct {
	Source string   `json:"source" yaml:"source"`
	Target string   `json:"target" yaml:"target"`
	Value  *float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

// NewLink creates an unweighted link
func NewLink(source, target string) *Link {
	return &Link{Source: source, Target: target}
}

// WithValue sets the link weight and returns the link
func (l *Link) WithValue(v float64) *Link {
	l.Value = &v
	return l
}

// Touches reports whether id is either endpoint of the link
func (l *Link) Touches(id string) bool {
	return l.Source == id || l.Target == id
}
