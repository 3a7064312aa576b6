package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"orgunit-sync/feature/orgunit/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	syncDryRun = false
	schemaMigrate = false

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func TestCommands_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_NAME", filepath.Join(dir, "units.db"))
	t.Setenv("SNAPSHOT_DEFAULT_PATH", filepath.Join(dir, "default.xml"))
	t.Setenv("LOG_LEVEL", "error")

	_, err := run(t, "schema")
	assert.ErrorContains(t, err, "missing columns")

	out, err := run(t, "schema", "--migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema OK")

	input := filepath.Join(dir, "input.xml")
	require.NoError(t, os.WriteFile(input, []byte(`<?xml version="1.0" encoding="UTF-8"?>
<departments>
  <department><depCode>HR</depCode><depJob>Manager</depJob><description>People</description></department>
  <department><depCode>IT</depCode><depJob>Admin</depJob><description>Systems</description></department>
</departments>
`), 0o644))

	out, err = run(t, "sync", input, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "State:      planned")
	assert.Contains(t, out, "Inserted:   2")

	out, err = run(t, "sync", input)
	require.NoError(t, err)
	assert.Contains(t, out, "State:      committed")
	assert.Contains(t, out, "Inserted:   2")

	out, err = run(t, "export")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 records")

	data, err := os.ReadFile(filepath.Join(dir, "default.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<depCode>HR</depCode>")

	// Syncing the export back is a no-op.
	out, err = run(t, "sync", filepath.Join(dir, "default.xml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Unchanged:  2")
}

func TestSync_MissingFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_NAME", filepath.Join(dir, "units.db"))
	t.Setenv("LOG_LEVEL", "error")

	_, err := run(t, "schema", "--migrate")
	require.NoError(t, err)

	_, err = run(t, "sync", filepath.Join(dir, "absent.xml"))
	assert.ErrorContains(t, err, "invalid snapshot")
}

func TestSync_RequiresFile(t *testing.T) {
	_, err := run(t, "sync")
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Bad snapshot", &models.FormatError{Source: "x.xml", Err: errors.New("bad")}, exitBadSnapshot},
		{"Duplicate key", &models.DuplicateKeyError{Key: models.Key{Code: "A", Job: "B"}, Source: "x.xml"}, exitBadSnapshot},
		{"Unreachable", fmt.Errorf("bootstrap: %w", &models.ConnectivityError{Err: errors.New("refused")}), exitUnreachable},
		{"Other", &models.StoreError{Op: "insert", Err: errors.New("boom")}, exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
