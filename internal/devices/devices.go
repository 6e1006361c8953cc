// Package devices resolves InfiniBand vendor and device ids to human names.
//
// Note that the InfiniBand vendor id is not the same as the PCI vendor id:
// Mellanox is 0x2c9 on the fabric but 0x15b3 on the PCI bus.
package devices

import (
	"context"
	"log"
	"time"

	"fabricview/internal/metrics"
)

// Lookuper resolves a vendor/device id pair to a display string
type Lookuper interface {
	Lookup(vendorID, deviceID uint32) string
}

// Source is a two-level vendor/device catalogue
type Source interface {
	VendorName(ctx context.Context, vendorID uint32) (string, bool, error)
	DeviceName(ctx context.Context, vendorID, deviceID uint32) (string, bool, error)
}

// Vendor holds a vendor name and its known device models
type Vendor struct {
	Name    string
	Devices map[uint32]string
}

// Table is an in-memory vendor/device catalogue keyed by vendor id
type Table map[uint32]Vendor

// Builtin returns the table shipped with fabricview.
// Device ids from https://pci-ids.ucw.cz/
func Builtin() Table {
	return Table{
		0x2c9: {
			Name: "Mellanox",
			Devices: map[uint32]string{
				0x1003: "MT27500 Family [ConnectX-3]",
				0x1011: "MT27600 [Connect-IB]",
				0x1013: "MT27700 Family [ConnectX-4]",
				0x1017: "MT27800 Family [ConnectX-5]",
				0x673c: "MT26428 [ConnectX VPI PCIe 2.0 5GT/s - IB QDR / 10GigE]",
				0xc738: "MT51136 SwitchX-2, 40GbE switch",
				0xcb20: "MT52100 [Switch-IB]",
			},
		},
		0x66a: {
			Name: "QLogic",
			Devices: map[uint32]string{
				0x7322: "IBA7322 QDR InfiniBand HCA",
			},
		},
	}
}

// VendorName implements Source
func (t Table) VendorName(_ context.Context, vendorID uint32) (string, bool, error) {
	v, ok := t[vendorID]
	return v.Name, ok, nil
}

// DeviceName implements Source
func (t Table) DeviceName(_ context.Context, vendorID, deviceID uint32) (string, bool, error) {
	v, ok := t[vendorID]
	if !ok {
		return "", false, nil
	}
	name, ok := v.Devices[deviceID]
	return name, ok, nil
}

// Lookup implements Lookuper
func (t Table) Lookup(vendorID, deviceID uint32) string {
	return Resolve(context.Background(), t, vendorID, deviceID)
}

// Resolve looks up a vendor/device pair in src.
//
//   - unknown vendor: "Unknown"
//   - known vendor, unknown device: "Unknown <vendor>"
//   - both known: "<vendor> <model>"
//
// Every miss is logged with both ids in hex. A failing Source is treated as a miss.
func Resolve(ctx context.Context, src Source, vendorID, deviceID uint32) string {
	vendor, ok, err := src.VendorName(ctx, vendorID)
	if err != nil {
		log.Printf("Device lookup failed for %x:%x: %v", vendorID, deviceID, err)
	}
	if !ok {
		logMiss(vendorID, deviceID)
		return "Unknown"
	}

	model, ok, err := src.DeviceName(ctx, vendorID, deviceID)
	if err != nil {
		log.Printf("Device lookup failed for %x:%x: %v", vendorID, deviceID, err)
	}
	if !ok {
		logMiss(vendorID, deviceID)
		return "Unknown " + vendor
	}

	return vendor + " " + model
}

func logMiss(vendorID, deviceID uint32) {
	log.Printf("Unknown vendor:device %x:%x", vendorID, deviceID)
	metrics.DeviceLookupMissesTotal.Inc()
}

// StoreLookup adapts a context-aware Source to Lookuper with a per-lookup timeout
type StoreLookup struct {
	src     Source
	timeout time.Duration
}

// NewStoreLookup creates a Lookuper backed by src
func NewStoreLookup(src Source, timeout time.Duration) *StoreLookup {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &StoreLookup{src: src, timeout: timeout}
}

// Lookup implements Lookuper
func (s *StoreLookup) Lookup(vendorID, deviceID uint32) string {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return Resolve(ctx, s.src, vendorID, deviceID)
}
