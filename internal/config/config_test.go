package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile_DecodesKnownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweers.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
format_search_root = "story-formats"
hook_timeout_seconds = 5
base64_embed = true
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "story-formats", cfg.FormatSearchRoot)
	assert.Equal(t, 5, cfg.HookTimeoutSecs)
	assert.True(t, cfg.Base64Embed)
}

func TestResolve_FlagsWinOverFileOverDefaults(t *testing.T) {
	file := Config{FormatSearchRoot: "from-file", HookTimeoutSecs: 20}
	overridden := "from-flag"
	got := Resolve(file, Overrides{FormatSearchRoot: &overridden})

	assert.Equal(t, "from-flag", got.FormatSearchRoot)
	assert.Equal(t, 20, got.HookTimeoutSecs)
	assert.Equal(t, Defaults().HookDataDir, got.HookDataDir)
}

func TestResolve_NoOverridesUsesFileOverDefaults(t *testing.T) {
	file := Config{OutputPath: "dist/story.html"}
	got := Resolve(file, Overrides{})
	assert.Equal(t, "dist/story.html", got.OutputPath)
	assert.Equal(t, Defaults().FormatSearchRoot, got.FormatSearchRoot)
}
