package repository

import (
	"context"
	"time"

	"fabricview/internal/devices"
)

// ImportStats summarises a catalogue import
type ImportStats struct {
	Vendors int
	Devices int
}

// DeviceRepository stores the vendor/device catalogue
type DeviceRepository interface {
	devices.Source

	// ImportTable replaces the stored catalogue with table
	ImportTable(ctx context.Context, table devices.Table, source string) (ImportStats, error)

	// Stats counts stored vendors and devices
	Stats(ctx context.Context) (ImportStats, error)

	// ImportedFrom returns the source and time of the last import
	ImportedFrom(ctx context.Context) (string, time.Time, bool, error)

	// Close releases resources
	Close() error
}
