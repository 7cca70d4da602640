package legacy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"111":10,"222":0}`), 0o600))

	points, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"111": 10, "222": 0}, points)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "points.json"))
	require.ErrorIs(t, err, ErrNoLegacyFile)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestMarkMigrated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	require.NoError(t, MarkMigrated(path))

	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(path + ".migrated")
	require.NoError(t, err)
}
