package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/erp/ledger-engine/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"add ledger index":   "add_ledger_index",
		"Add-Ledger-Index":   "add_ledger_index",
		"ADD__LEDGER__INDEX": "add_ledger_index",
		"stock items 2":      "stock_items_2",
		"   spaces   ":       "spaces",
		"special!@#$chars":   "specialchars",
		"trailing_":          "trailing",
		"_leading":           "leading",
		"":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeName(in), "input %q", in)
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	mf, err := createMigrationAt(dir, "add invoice due index", "Speed up overdue invoice queries", now)
	require.NoError(t, err)

	assert.Equal(t, "20250203040506", mf.Version)
	assert.Equal(t, filepath.Join(dir, "20250203040506_add_invoice_due_index.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "20250203040506_add_invoice_due_index.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add invoice due index")
	assert.Contains(t, string(up), "Speed up overdue invoice queries")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	names, err := ListMigrations(os.DirFS(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"20250203040506_add_invoice_due_index"}, names)
}

func TestCreateMigration_Rejections(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	_, err := createMigrationAt(dir, "!!!", "", now)
	require.Error(t, err)

	_, err = createMigrationAt(dir, "same", "", now)
	require.NoError(t, err)
	_, err = createMigrationAt(dir, "same", "", now)
	require.Error(t, err, "existing files are never overwritten")
}

func TestListMigrations(t *testing.T) {
	t.Run("sorted and ignores other files", func(t *testing.T) {
		fsys := fstest.MapFS{
			"2_b.up.sql":   {},
			"2_b.down.sql": {},
			"1_a.up.sql":   {},
			"1_a.down.sql": {},
			"README.md":    {},
			"embed.go":     {},
			"dir.up.sql/x": {},
		}
		names, err := ListMigrations(fsys)
		require.NoError(t, err)
		assert.Equal(t, []string{"1_a", "2_b"}, names)
	})

	t.Run("missing down migration", func(t *testing.T) {
		_, err := ListMigrations(fstest.MapFS{"1_a.up.sql": {}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no down migration")
	})
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"20250101000001_create_finance_tables",
		"20250101000002_create_inventory_tables",
		"20250101000003_create_trade_tables",
	}, names)
}
