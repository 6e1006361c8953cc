// Package nodenames remaps node descriptions by GUID using a node name map
// file in the format read by ibnetdiscover --node-name-map:
//
//	# comment
//	0x0002c90300a1b2c3 "ibsw1 (root)"
//	0x0002c90300a1b2c4 ibsw2
package nodenames

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// DefaultPath is where OpenSM keeps its node name map
const DefaultPath = "/etc/opensm/ib-node-name-map"

// Map holds GUID to node name entries. It is safe for concurrent use and
// can be reloaded while in use.
type Map struct {
	path string

	mu    sync.RWMutex
	nodes map[uint64]string
}

// Load reads a node name map file
func Load(path string) (*Map, error) {
	m := &Map{path: path}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the file the map was loaded from
func (m *Map) Path() string {
	return m.path
}

// Reload re-reads the file. On error the previous entries are kept.
func (m *Map) Reload() error {
	f, err := os.Open(m.path)
	if err != nil {
		return fmt.Errorf("failed to open node name map: %w", err)
	}
	defer f.Close()

	nodes, err := Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse node name map %s: %w", m.path, err)
	}

	m.mu.Lock()
	m.nodes = nodes
	m.mu.Unlock()

	log.Printf("Loaded %d node names from %s", len(nodes), m.path)
	return nil
}

// Len returns the number of entries
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}

// RemapNodeName returns the mapped name for guid, or desc when the GUID is
// not in the map
func (m *Map) RemapNodeName(guid uint64, desc string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if name, ok := m.nodes[guid]; ok {
		return name
	}
	return desc
}

// Parse reads node name map entries. Lines that do not start with a
// parseable GUID are skipped. Quoted names may contain spaces; the quotes
// are removed.
func Parse(r io.Reader) (map[uint64]string, error) {
	nodes := make(map[uint64]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := splitFields(line)
		if len(fields) < 2 || strings.HasPrefix(fields[1], "#") {
			continue
		}

		guid, err := strconv.ParseUint(fields[0], 0, 64)
		if err != nil {
			continue
		}

		nodes[guid] = unquote(fields[1])
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// splitFields splits on whitespace outside quotes
func splitFields(line string) []string {
	var quote rune
	return strings.FieldsFunc(line, func(c rune) bool {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			return false
		case unicode.In(c, unicode.Quotation_Mark):
			quote = c
			return false
		default:
			return unicode.IsSpace(c)
		}
	})
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
