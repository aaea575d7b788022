package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"IMPORT_MAX_FILE_BYTES", "IMPORT_MAX_ROWS", "IMPORT_WRITES_PER_SECOND", "IMPORT_DUPLICATE_CHECK", "UPLOAD_RETENTION_DAYS", "UPLOAD_SWEEP_SCHEDULE", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(10<<20), cfg.Import.MaxFileBytes)
	assert.Equal(t, 5000, cfg.Import.MaxRows)
	assert.Zero(t, cfg.Import.WritesPerSec)
	assert.True(t, cfg.Import.DuplicateCheck)
	assert.Equal(t, 90, cfg.Storage.RetentionDays)
	assert.Equal(t, "0 3 * * *", cfg.Storage.SweepSchedule)
	assert.Equal(t, slog.LevelInfo, cfg.Observability.LogLevel)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("IMPORT_MAX_ROWS", "200")
	t.Setenv("IMPORT_WRITES_PER_SECOND", "12.5")
	t.Setenv("IMPORT_DUPLICATE_CHECK", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Import.MaxRows)
	assert.Equal(t, 12.5, cfg.Import.WritesPerSec)
	assert.False(t, cfg.Import.DuplicateCheck)
	assert.Equal(t, slog.LevelDebug, cfg.Observability.LogLevel)
	assert.Equal(t, "host=db port=6543 user=postgres password=postgres dbname=esg-dev sslmode=disable", cfg.Database.DSN())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero rows", "IMPORT_MAX_ROWS", "0"},
		{"negative throttle", "IMPORT_WRITES_PER_SECOND", "-1"},
		{"negative retention", "UPLOAD_RETENTION_DAYS", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}
