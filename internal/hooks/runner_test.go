package hooks

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScripts_SortedAndSkipsDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package main"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))

	scripts, err := LoadScripts(dir)
	require.NoError(t, err)
	require.Len(t, scripts, 2)
	assert.Contains(t, scripts[0].Path, "a.go")
	assert.Contains(t, scripts[1].Path, "b.go")
}

func TestLoadScripts_MissingDirReturnsEmpty(t *testing.T) {
	scripts, err := LoadScripts(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, scripts)
}

func TestNewRunner_DefaultsTimeout(t *testing.T) {
	r := NewRunner(0)
	assert.Greater(t, r.Timeout, time.Duration(0))
}
