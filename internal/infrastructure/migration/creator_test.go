package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/procurement/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add suppliers index", "add_suppliers_index"},
		{"Add-Contract-Owner", "add_contract_owner"},
		{"add__spend__currency", "add_spend_currency"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add supplier rating", "cached rating column")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_supplier_rating.up.sql"), first.UpPath)

	second, err := CreateMigration(dir, "index spend", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	content, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "add_supplier_rating (down)")
	assert.Contains(t, string(content), "cached rating column")

	list, err := ListMigrations(os.DirFS(dir))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "index_spend", list[1].Name)
	assert.True(t, list[1].HasDown)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations_IgnoresNoise(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_b.up.sql":   {Data: []byte("--")},
		"000001_a.up.sql":   {Data: []byte("--")},
		"000001_a.down.sql": {Data: []byte("--")},
		"README.md":         {Data: []byte("#")},
		"embed.go":          {Data: []byte("package x")},
		"bad.up.sql":        {Data: []byte("--")},
	}
	list, err := ListMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint(1), list[0].Version)
	assert.True(t, list[0].HasDown)
	assert.False(t, list[1].HasDown)
}

func TestEmbeddedMigrations_ArePaired(t *testing.T) {
	list, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	for i, m := range list {
		assert.Equal(t, uint(i+1), m.Version, "versions are contiguous")
		assert.True(t, m.HasDown, "migration %d has a down file", m.Version)
	}
}
