package iofs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/astroinject/astroinject/pkg/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirs(t *testing.T) {
	tmpDir := t.TempDir()

	// repeated calls are fine
	for range 2 {
		require.NoError(t, EnsureDirs(tmpDir))
	}

	dirs := []string{
		filepath.Join(tmpDir, ".config", "astroinject"),
		filepath.Join(tmpDir, ".local", "share", "astroinject", "logs"),
	}
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir(), dir)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm(), dir)
	}
}

func TestTouchDirExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "existing")
	require.NoError(t, os.Mkdir(dir, 0700))
	require.NoError(t, touchDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestEnsureConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, EnsureDirs(tmpDir))
	require.NoError(t, EnsureConfigFile(tmpDir))

	configPath := filepath.Join(tmpDir, ".config", "astroinject", "config.yaml")
	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, templates.ConfigYAML, string(content))
	assert.Contains(t, string(content), "database:")
	assert.Contains(t, string(content), "ingest:")

	custom := "database:\n  host: myhost\n"
	require.NoError(t, os.WriteFile(configPath, []byte(custom), 0644))
	require.NoError(t, EnsureConfigFile(tmpDir))

	content, err = os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, custom, string(content), "existing file is kept")
}

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"b.fits",
		"a.fits",
		"notes.txt",
		filepath.Join("sub", "c.fits"),
		filepath.Join("sub", "deeper", "d.fits"),
	}
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}

	res, err := FindFiles(root, "*.fits")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.fits"),
		filepath.Join(root, "b.fits"),
		filepath.Join(root, "sub", "c.fits"),
		filepath.Join(root, "sub", "deeper", "d.fits"),
	}, res)

	res, err = FindFiles(root, "")
	require.NoError(t, err)
	assert.Len(t, res, 5)

	_, err = FindFiles(root, "[")
	assert.Error(t, err)

	_, err = FindFiles(filepath.Join(root, "missing"), "*")
	assert.Error(t, err)
}
