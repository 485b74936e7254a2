package format

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(t *testing.T, root, name, version, body string) {
	t.Helper()
	dir := filepath.Join(root, "story-format", name+"-"+version)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "format.js"), []byte(body), 0o644))
}

func TestLoad_StrictJSONEnvelope(t *testing.T) {
	root := t.TempDir()
	writeEnvelope(t, root, "snowman", "2.0.2", `window.storyFormat({
		"name": "Snowman",
		"version": "2.0.2",
		"source": "<html>{{STORY_NAME}}</html>"
	});`)

	info, err := Load(root, "Snowman", "2.0.2")
	require.NoError(t, err)
	assert.Equal(t, "<html>{{STORY_NAME}}</html>", info.Source)
}

func TestLoad_TolerantFallbackSkipsTrailingFunction(t *testing.T) {
	root := t.TempDir()
	writeEnvelope(t, root, "harlowe", "3.3.9", "window.storyFormat({\n"+
		`'name': 'Harlowe',`+"\n"+
		"'source': `<html>{{STORY_NAME}}</html>`,\n"+
		"setup: function(){ return {}; }\n"+
		"});")

	info, err := Load(root, "Harlowe", "3.3.9")
	require.NoError(t, err)
	assert.Equal(t, "<html>{{STORY_NAME}}</html>", info.Source)
}

func TestLoad_FormatNotFound(t *testing.T) {
	root := t.TempDir()
	_, err := Load(root, "Missing", "1.0.0")
	require.Error(t, err)
}

func TestLoad_SourceMissing(t *testing.T) {
	root := t.TempDir()
	writeEnvelope(t, root, "broken", "1.0.0", `window.storyFormat({"name": "Broken"});`)

	_, err := Load(root, "broken", "1.0.0")
	require.Error(t, err)
}

func TestExtractCallArgument_IgnoresBracesInStrings(t *testing.T) {
	obj, err := extractCallArgument(`storyFormat({"source": "a { b } c"});`)
	require.NoError(t, err)
	assert.Equal(t, `{"source": "a { b } c"}`, obj)
}
