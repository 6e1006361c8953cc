package devices

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParsePCIIDs reads vendor and device entries in the pci.ids format:
//
//	# comment
//	02c9  Mellanox
//		1003  MT27500 Family [ConnectX-3]
//			15b3 0024  subsystem entries are skipped
//
// Parsing stops at the device class section ("C 00  ...").
func ParsePCIIDs(r io.Reader) (Table, error) {
	table := make(Table)
	scanner := bufio.NewScanner(r)

	var (
		current   uint32
		hasVendor bool
		lineNo    int
	)

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "C ") {
			break
		}

		switch {
		case strings.HasPrefix(line, "\t\t"):
			// Subsystem
			continue

		case strings.HasPrefix(line, "\t"):
			if !hasVendor {
				return nil, fmt.Errorf("line %d: device entry without vendor", lineNo)
			}
			id, name, err := splitEntry(strings.TrimPrefix(line, "\t"))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			table[current].Devices[id] = name

		default:
			id, name, err := splitEntry(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current, hasVendor = id, true
			if _, ok := table[id]; !ok {
				table[id] = Vendor{Name: name, Devices: make(map[uint32]string)}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pci.ids: %w", err)
	}

	return table, nil
}

func splitEntry(s string) (uint32, string, error) {
	fields := strings.SplitN(s, " ", 2)
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("malformed entry %q", s)
	}

	id, err := strconv.ParseUint(fields[0], 16, 32)
	if err != nil {
		return 0, "", fmt.Errorf("bad id %q: %w", fields[0], err)
	}

	name := strings.TrimSpace(fields[1])
	if name == "" {
		return 0, "", fmt.Errorf("entry %q has no name", s)
	}
	return uint32(id), name, nil
}

// Merge copies every vendor and device from other into t
func (t Table) Merge(other Table) {
	for id, v := range other {
		existing, ok := t[id]
		if !ok {
			existing = Vendor{Name: v.Name}
		}
		if existing.Devices == nil {
			existing.Devices = make(map[uint32]string, len(v.Devices))
		}
		for devID, model := range v.Devices {
			existing.Devices[devID] = model
		}
		t[id] = existing
	}
}

// FabricVendorIDs maps PCI vendor ids to the vendor ids the same vendors
// report on the InfiniBand fabric
var FabricVendorIDs = map[uint32]uint32{
	0x15b3: 0x2c9, // Mellanox
	0x1077: 0x66a, // QLogic
}

// AliasFabricVendors copies the devices of every PCI vendor in
// FabricVendorIDs to its fabric vendor id, so a table parsed from pci.ids
// can name fabric nodes. The PCI entries are kept.
func (t Table) AliasFabricVendors() {
	for pciID, fabricID := range FabricVendorIDs {
		v, ok := t[pciID]
		if !ok {
			continue
		}
		t.Merge(Table{fabricID: v})
	}
}
