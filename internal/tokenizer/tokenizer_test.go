package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_Basic(t *testing.T) {
	src := ":: StoryTitle\nDemo\n\n:: Start\nHello\n"
	passages, warnings, err := Tokenize("a.twee", src)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, passages, 2)
	assert.Equal(t, "StoryTitle", passages[0].Name)
	assert.Equal(t, "Demo", passages[0].Body)
	assert.Equal(t, "Start", passages[1].Name)
	assert.Equal(t, "Hello", passages[1].Body)
}

func TestTokenize_TagsAndPosition(t *testing.T) {
	src := ":: Room [outdoors night] {10,20 100,80}\nYou are here.\n"
	passages, _, err := Tokenize("a.twee", src)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	p := passages[0]
	assert.Equal(t, "Room", p.Name)
	assert.Equal(t, []string{"outdoors", "night"}, p.Tags)
	assert.True(t, p.Position.Set)
	assert.Equal(t, 10, p.Position.X)
	assert.Equal(t, 20, p.Position.Y)
	assert.True(t, p.Size.Set)
	assert.Equal(t, 100, p.Size.W)
	assert.Equal(t, 80, p.Size.H)
}

func TestTokenize_ChineseTags(t *testing.T) {
	src := ":: 房间 [事件 重要]\n内容\n"
	passages, _, err := Tokenize("a.twee", src)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "房间", passages[0].Name)
	assert.Equal(t, []string{"事件", "重要"}, passages[0].Tags)
}

func TestTokenize_MalformedHeader(t *testing.T) {
	src := ":: Broken [unterminated\nbody\n"
	_, _, err := Tokenize("a.twee", src)
	require.Error(t, err)
}

func TestTokenize_DuplicateWithinFile(t *testing.T) {
	src := ":: Start\nfirst\n\n:: Start\nsecond\n"
	passages, warnings, err := Tokenize("a.twee", src)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Len(t, passages, 1)
	assert.Equal(t, "second", passages[0].Body)
}

func TestTokenize_PreservesInteriorBlankLines(t *testing.T) {
	src := ":: Start\nline1\n\nline2\n"
	passages, _, err := Tokenize("a.twee", src)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "line1\n\nline2", passages[0].Body)
}

func TestTokenize_EscapedSpaceInTag(t *testing.T) {
	src := ":: Start [tag\\ with\\ space other]\nhi\n"
	passages, _, err := Tokenize("a.twee", src)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, []string{"tag with space", "other"}, passages[0].Tags)
}
