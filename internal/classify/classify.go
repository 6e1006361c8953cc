// Package classify resolves the icon drawn for a fabric node.
//
// Switches and routers always get their fixed icon. Every other node is
// matched against an ordered rule list by description; the first matching
// rule wins. The final rule must match any description, so resolution is
// total and deterministic.
package classify

import (
	"errors"
	"fmt"
	"regexp"

	"fabricview/internal/domain"
)

// Default icon references, relative to the web root
const (
	IconSwitch  = "img/switch.svg"
	IconRouter  = "img/router.svg"
	IconCPU     = "img/cpu.svg"
	IconHDD     = "img/hdd.svg"
	IconDefault = "img/default.svg"
)

// ErrNoCatchAll is returned when the last rule does not match every description
var ErrNoCatchAll = errors.New("last icon rule is not a catch-all")

// catchAllProbes are descriptions the final rule has to accept
var catchAllProbes = []string{"", "x", "node42 HCA-1", "MF0;sw01:IS5030/U1", "\n"}

// Rule maps a description pattern to an icon reference
type Rule struct {
	Pattern *regexp.Regexp
	Icon    string
}

// RuleSpec is the uncompiled form of a Rule as found in configuration
type RuleSpec struct {
	Pattern string `yaml:"pattern" toml:"pattern" json:"pattern"`
	Icon    string `yaml:"icon" toml:"icon" json:"icon"`
}

// Classifier resolves node icons
type Classifier struct {
	switchIcon string
	routerIcon string
	rules      []Rule
}

// New creates a classifier. The rule list must be non-empty and end with a catch-all.
func New(switchIcon, routerIcon string, rules []Rule) (*Classifier, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no rules", ErrNoCatchAll)
	}

	last := rules[len(rules)-1]
	for _, probe := range catchAllProbes {
		if !last.Pattern.MatchString(probe) {
			return nil, fmt.Errorf("%w: %q does not match %q", ErrNoCatchAll, last.Pattern.String(), probe)
		}
	}

	return &Classifier{
		switchIcon: switchIcon,
		routerIcon: routerIcon,
		rules:      append([]Rule(nil), rules...),
	}, nil
}

// Compile builds rules from their configuration form
func Compile(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("icon rule %d: %w", i, err)
		}
		if spec.Icon == "" {
			return nil, fmt.Errorf("icon rule %d: empty icon", i)
		}
		rules = append(rules, Rule{Pattern: re, Icon: spec.Icon})
	}
	return rules, nil
}

// DefaultRules returns the stock rule table for common cluster host names
func DefaultRules() []RuleSpec {
	return []RuleSpec{
		{Pattern: `^gw(\d+[ab]-\d+|\d+)`, Icon: IconRouter},
		{Pattern: `^(n\d+[ab]-\d+|node\d+)`, Icon: IconCPU},
		{Pattern: `^(st\d+[ab]-\d+|storage\d+)`, Icon: IconHDD},
		{Pattern: `.*`, Icon: IconDefault},
	}
}

// Default returns a classifier with the stock icons and rules
func Default() *Classifier {
	rules, err := Compile(DefaultRules())
	if err != nil {
		panic(err)
	}
	c, err := New(IconSwitch, IconRouter, rules)
	if err != nil {
		panic(err)
	}
	return c
}

// Icon returns the icon reference for a node
func (c *Classifier) Icon(node *domain.Node) string {
	switch node.Type {
	case domain.NodeTypeSwitch:
		return c.switchIcon
	case domain.NodeTypeRouter:
		return c.routerIcon
	}

	for _, rule := range c.rules {
		if rule.Pattern.MatchString(node.Desc) {
			return rule.Icon
		}
	}

	// Unreachable: New guarantees a catch-all
	return c.rules[len(c.rules)-1].Icon
}

// Rules returns a copy of the ordered rule list
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}
