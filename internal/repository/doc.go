// Package repository defines the data access interfaces for fabricview.
//
// The only persisted data is the vendor/device catalogue used to name
// hardware in the detail panel. Topologies and layouts are never stored.
//
// # SQLite Implementation
//
// The sqlite subpackage stores the catalogue in two tables, vendors and
// devices, plus a metadata table recording where the catalogue was
// imported from. The schema is migrated on open. Imports replace the
// whole catalogue inside one transaction so that lookups never observe a
// half-imported table.
//
// # Testing
//
// The sqlite repository is tested with in-memory databases.
package repository
