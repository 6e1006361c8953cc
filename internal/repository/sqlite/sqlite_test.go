package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fabricview/internal/devices"
)

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmptyCatalogue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, ok, err := repo.VendorName(ctx, 0x2c9)
	assertNoError(t, err)
	if ok {
		t.Error("expected no vendor in empty catalogue")
	}

	_, _, ok, err = repo.ImportedFrom(ctx)
	assertNoError(t, err)
	if ok {
		t.Error("expected no import recorded")
	}

	stats, err := repo.Stats(ctx)
	assertNoError(t, err)
	if stats.Vendors != 0 || stats.Devices != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}

func TestImportTable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stats, err := repo.ImportTable(ctx, devices.Builtin(), "builtin")
	assertNoError(t, err)
	if stats.Vendors != 2 || stats.Devices != 8 {
		t.Errorf("unexpected import stats %+v", stats)
	}

	name, ok, err := repo.VendorName(ctx, 0x2c9)
	assertNoError(t, err)
	if !ok || name != "Mellanox" {
		t.Errorf("VendorName(0x2c9) = %q, %v", name, ok)
	}

	model, ok, err := repo.DeviceName(ctx, 0x2c9, 0x1003)
	assertNoError(t, err)
	if !ok || model != "MT27500 Family [ConnectX-3]" {
		t.Errorf("DeviceName(0x2c9, 0x1003) = %q, %v", model, ok)
	}

	_, ok, err = repo.DeviceName(ctx, 0x2c9, 0xffff)
	assertNoError(t, err)
	if ok {
		t.Error("expected unknown device")
	}

	source, at, ok, err := repo.ImportedFrom(ctx)
	assertNoError(t, err)
	if !ok || source != "builtin" {
		t.Errorf("ImportedFrom() = %q, %v", source, ok)
	}
	if time.Since(at) > time.Minute {
		t.Errorf("unexpected import time %v", at)
	}
}

func TestImportReplacesCatalogue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.ImportTable(ctx, devices.Builtin(), "builtin")
	assertNoError(t, err)

	replacement := devices.Table{
		0x8f1: {Name: "Intel", Devices: map[uint32]string{0x1: "Omni-Path HFI"}},
	}
	stats, err := repo.ImportTable(ctx, replacement, "pci.ids")
	assertNoError(t, err)
	if stats.Vendors != 1 || stats.Devices != 1 {
		t.Errorf("unexpected import stats %+v", stats)
	}

	if _, ok, _ := repo.VendorName(ctx, 0x2c9); ok {
		t.Error("expected old vendors removed")
	}

	total, err := repo.Stats(ctx)
	assertNoError(t, err)
	if total != stats {
		t.Errorf("Stats() = %+v, want %+v", total, stats)
	}

	source, _, _, err := repo.ImportedFrom(ctx)
	assertNoError(t, err)
	if source != "pci.ids" {
		t.Errorf("expected source pci.ids, got %q", source)
	}
}

func TestResolveAgreesWithTable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	table := devices.Builtin()
	_, err := repo.ImportTable(ctx, table, "builtin")
	assertNoError(t, err)

	lookup := devices.NewStoreLookup(repo, time.Second)

	pairs := [][2]uint32{
		{0x2c9, 0x1003},
		{0x2c9, 0xcb20},
		{0x2c9, 0xffff},
		{0x66a, 0x7322},
		{0x1234, 0x1},
	}
	for _, p := range pairs {
		if got, want := lookup.Lookup(p[0], p[1]), table.Lookup(p[0], p[1]); got != want {
			t.Errorf("Lookup(%x, %x) = %q, table gives %q", p[0], p[1], got, want)
		}
	}
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.db")
	ctx := context.Background()

	repo, err := New(path)
	assertNoError(t, err)
	_, err = repo.ImportTable(ctx, devices.Builtin(), "builtin")
	assertNoError(t, err)
	assertNoError(t, repo.Close())

	repo, err = New(path)
	assertNoError(t, err)
	defer repo.Close()

	name, ok, err := repo.VendorName(ctx, 0x66a)
	assertNoError(t, err)
	if !ok || name != "QLogic" {
		t.Errorf("VendorName(0x66a) = %q, %v", name, ok)
	}
}
