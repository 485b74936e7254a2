package storydata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tweers-project/tweers/internal/buildmodel"
)

func TestResolve_SkipsEmptyUntilNonEmpty(t *testing.T) {
	candidates := []Candidate{
		{File: "a.twee", Content: "   "},
		{File: "b.twee", Content: `{"ifid":"AAAAAAAA-AAAA-4AAA-8AAA-AAAAAAAAAAAA","format":"SugarCube","format-version":"2.37.3"}`},
	}
	sd, _, err := Resolve(candidates)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAA-AAAA-4AAA-8AAA-AAAAAAAAAAAA", sd.IFID)
	assert.Equal(t, "SugarCube", sd.Format)
	assert.False(t, sd.LenientParse)
}

func TestResolve_MissingStoryData(t *testing.T) {
	_, _, err := Resolve(nil)
	require.Error(t, err)
}

func TestResolve_MissingIfid(t *testing.T) {
	_, _, err := Resolve([]Candidate{{File: "a.twee", Content: `{"format":"Harlowe"}`}})
	require.Error(t, err)
}

func TestResolve_LenientFallbackForHarloweStyleBody(t *testing.T) {
	body := `{"ifid": "BBBBBBBB-BBBB-4BBB-8BBB-BBBBBBBBBBBB", "format": "Harlowe", extra: function(){ return 1 }}`
	sd, warnings, err := Resolve([]Candidate{{File: "a.twee", Content: body}})
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBB-BBBB-4BBB-8BBB-BBBBBBBBBBBB", sd.IFID)
	assert.True(t, sd.LenientParse)
	assert.NotEmpty(t, warnings)
}

func TestResolveStart_Precedence(t *testing.T) {
	passages := map[string]*buildmodel.Passage{
		"Start":  {Name: "Start"},
		"Custom": {Name: "Custom"},
	}

	name, err := ResolveStart("Custom", buildmodel.StoryData{Start: "Start"}, passages)
	require.NoError(t, err)
	assert.Equal(t, "Custom", name)

	name, err = ResolveStart("", buildmodel.StoryData{Start: "Start"}, passages)
	require.NoError(t, err)
	assert.Equal(t, "Start", name)

	name, err = ResolveStart("", buildmodel.StoryData{}, passages)
	require.NoError(t, err)
	assert.Equal(t, "Start", name)

	_, err = ResolveStart("", buildmodel.StoryData{}, map[string]*buildmodel.Passage{})
	require.Error(t, err)
}
