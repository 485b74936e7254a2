package collector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tweers-project/tweers/internal/buildmodel"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestCollect_OrdersDeterministically(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b/z.twee", ":: A\nhi\n")
	writeFile(t, root, "a.twee", ":: B\nhi\n")
	writeFile(t, root, "b/a.twee", ":: C\nhi\n")
	writeFile(t, root, "ignore.txt", "nope")

	sources, err := Collect(root, Options{})
	require.NoError(t, err)

	var names []string
	for _, s := range sources {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"a.twee", "b/a.twee", "b/z.twee"}, names)
}

func TestCollect_Base64EmbedWhitelist(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "story.twee", ":: Start\nhi\n")
	full := filepath.Join(root, "assets", "pic.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte{0x89, 'P', 'N', 'G'}, 0o644))

	without, err := Collect(root, Options{Base64Embed: false})
	require.NoError(t, err)
	assert.Len(t, without, 1)

	with, err := Collect(root, Options{Base64Embed: true})
	require.NoError(t, err)
	require.Len(t, with, 2)
	assert.Equal(t, "assets/pic.png", with[0].Name)
	assert.Equal(t, buildmodel.SourceBytes, with[0].Kind)
	assert.Equal(t, "image/png", with[0].MIME)
}

func TestCollect_NoSuchRoot(t *testing.T) {
	_, err := Collect(filepath.Join(t.TempDir(), "missing"), Options{})
	require.Error(t, err)
}

func TestMIMEForExtension_UnknownFallsBackToOctetStream(t *testing.T) {
	assert.Equal(t, "application/octet-stream", MIMEForExtension(".xyz"))
	assert.Equal(t, "image/png", MIMEForExtension(".PNG"))
}
