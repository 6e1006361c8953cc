package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"fabricview/internal/devices"
	"fabricview/internal/repository"
)

const (
	metaSource     = "import_source"
	metaImportedAt = "imported_at"
)

// Repository implements repository.DeviceRepository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.DeviceRepository = (*Repository)(nil)

// New opens (creating if needed) the device catalogue at dbPath.
// ":memory:" gives a private in-memory catalogue.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vendors (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS devices (
		vendor_id INTEGER NOT NULL,
		device_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (vendor_id, device_id),
		FOREIGN KEY (vendor_id) REFERENCES vendors(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := r.db.Exec(schema)
	return err
}

// VendorName implements devices.Source
func (r *Repository) VendorName(ctx context.Context, vendorID uint32) (string, bool, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM vendors WHERE id = ?`, vendorID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query vendor: %w", err)
	}
	return name, true, nil
}

// DeviceName implements devices.Source
func (r *Repository) DeviceName(ctx context.Context, vendorID, deviceID uint32) (string, bool, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT name FROM devices WHERE vendor_id = ? AND device_id = ?`,
		vendorID, deviceID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query device: %w", err)
	}
	return name, true, nil
}

// ImportTable replaces the catalogue with table in one transaction
func (r *Repository) ImportTable(ctx context.Context, table devices.Table, source string) (repository.ImportStats, error) {
	var stats repository.ImportStats

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM devices`); err != nil {
		return stats, fmt.Errorf("failed to clear devices: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vendors`); err != nil {
		return stats, fmt.Errorf("failed to clear vendors: %w", err)
	}

	vendorStmt, err := tx.PrepareContext(ctx, `INSERT INTO vendors (id, name) VALUES (?, ?)`)
	if err != nil {
		return stats, fmt.Errorf("failed to prepare vendor insert: %w", err)
	}
	defer vendorStmt.Close()

	deviceStmt, err := tx.PrepareContext(ctx, `INSERT INTO devices (vendor_id, device_id, name) VALUES (?, ?, ?)`)
	if err != nil {
		return stats, fmt.Errorf("failed to prepare device insert: %w", err)
	}
	defer deviceStmt.Close()

	for vendorID, vendor := range table {
		if _, err := vendorStmt.ExecContext(ctx, vendorID, vendor.Name); err != nil {
			return stats, fmt.Errorf("failed to insert vendor %x: %w", vendorID, err)
		}
		stats.Vendors++

		for deviceID, name := range vendor.Devices {
			if _, err := deviceStmt.ExecContext(ctx, vendorID, deviceID, name); err != nil {
				return stats, fmt.Errorf("failed to insert device %x:%x: %w", vendorID, deviceID, err)
			}
			stats.Devices++
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range map[string]string{metaSource: source, metaImportedAt: now} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
		`, key, value); err != nil {
			return stats, fmt.Errorf("failed to record %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit import: %w", err)
	}

	return stats, nil
}

// Stats counts stored vendors and devices
func (r *Repository) Stats(ctx context.Context) (repository.ImportStats, error) {
	var stats repository.ImportStats
	err := r.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM vendors), (SELECT COUNT(*) FROM devices)
	`).Scan(&stats.Vendors, &stats.Devices)
	if err != nil {
		return stats, fmt.Errorf("failed to count catalogue: %w", err)
	}
	return stats, nil
}

// ImportedFrom returns the source and time of the last import
func (r *Repository) ImportedFrom(ctx context.Context) (string, time.Time, bool, error) {
	var source, at string

	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, metaSource).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("failed to query import source: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, metaImportedAt).Scan(&at); err != nil {
		return "", time.Time{}, false, fmt.Errorf("failed to query import time: %w", err)
	}

	importedAt, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("invalid import time %q: %w", at, err)
	}

	return source, importedAt, true, nil
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}
