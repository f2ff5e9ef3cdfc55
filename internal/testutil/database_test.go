package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMigrationsPath(t *testing.T) {
	path := getMigrationsPath("postgresql")
	assert.NotEmpty(t, path)

	_, err := os.Stat(path)
	assert.NoError(t, err, "migrations path should exist")
	assert.Contains(t, path, "postgresql")
}

func TestGetMigrationsPathPanicsOnUnknownType(t *testing.T) {
	assert.Panics(t, func() {
		getMigrationsPath("nonexistent")
	})
}

func TestGetMigrationsPathFromDifferentWorkingDir(t *testing.T) {
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	subDir := filepath.Join(originalWd, "testdata")
	//nolint:gosec // 0755 is appropriate for test directories
	err = os.MkdirAll(subDir, 0755)
	require.NoError(t, err)
	defer func() {
		_ = os.RemoveAll(subDir)
	}()

	err = os.Chdir(subDir)
	require.NoError(t, err)

	path := getMigrationsPath("postgresql")
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "postgresql")
}

func TestTeardownDBWithNilDB(t *testing.T) {
	assert.NotPanics(t, func() {
		TeardownDB(t, nil)
	})
}
