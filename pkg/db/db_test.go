package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	fsys, err := Migrations()
	require.NoError(t, err)

	files, err := fs.Glob(fsys, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_sectors.sql", "00002_laia_assessments.sql"}, files)

	for _, name := range files {
		body, err := fs.ReadFile(fsys, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestMigrations_SectorCodesAreUniquePerTenant(t *testing.T) {
	fsys, err := Migrations()
	require.NoError(t, err)

	body, err := fs.ReadFile(fsys, "00001_sectors.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "(tenant_id, upper(code))"))
}
