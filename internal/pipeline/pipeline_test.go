package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tweers-project/tweers/internal/buildmodel"
)

func textSource(name, text string) buildmodel.InputSource {
	return buildmodel.InputSource{Name: name, Kind: buildmodel.SourceText, Text: text}
}

func TestBuild_MinimalSugarCube(t *testing.T) {
	src := textSource("story.twee", "::StoryTitle\nDemo\n\n"+
		"::StoryData\n{\"ifid\":\"AAAAAAAA-AAAA-4AAA-8AAA-AAAAAAAAAAAA\",\"format\":\"SugarCube\",\"format-version\":\"2.37.3\"}\n\n"+
		"::Start\nHello\n")

	cfg := buildmodel.BuildConfig{
		Sources: []buildmodel.InputSource{src},
		FormatInfo: &buildmodel.StoryFormatInfo{
			Name: "SugarCube", Version: "2.37.3",
			Source: "<html>{{STORY_NAME}}{{STORY_DATA}}</html>",
		},
	}

	result, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.Contains(t, result.HTML, `name="Demo"`)
	assert.Contains(t, result.HTML, `ifid="AAAAAAAA-AAAA-4AAA-8AAA-AAAAAAAAAAAA"`)
	assert.Contains(t, result.HTML, `startnode="1"`)
	assert.Contains(t, result.HTML, `<tw-passagedata pid="1" name="Start"`)
	assert.Contains(t, result.HTML, ">Hello\n</tw-passagedata>")
}

func TestBuild_MultiFileStoryDataFixesHistoricalBug(t *testing.T) {
	a := textSource("a.twee", "::Start\nHi\n")
	b := textSource("b.twee", "::StoryData\n{\"ifid\":\"BBBBBBBB-BBBB-4BBB-8BBB-BBBBBBBBBBBB\",\"format\":\"Harlowe\",\"format-version\":\"3.3.9\"}\n")

	cfg := buildmodel.BuildConfig{
		Sources: []buildmodel.InputSource{a, b},
		FormatInfo: &buildmodel.StoryFormatInfo{
			Name: "Harlowe", Version: "3.3.9",
			Source: "{{STORY_DATA}}",
		},
	}

	result, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.Contains(t, result.HTML, `ifid="BBBBBBBB-BBBB-4BBB-8BBB-BBBBBBBBBBBB"`)
}

func TestBuild_ChineseTags(t *testing.T) {
	src := textSource("story.twee", "::StoryData\n{\"ifid\":\"CCCCCCCC-CCCC-4CCC-8CCC-CCCCCCCCCCCC\",\"format\":\"SugarCube\",\"format-version\":\"2.37.3\",\"start\":\"房间\"}\n\n"+
		"::房间 [事件 重要]\n你好\n")

	cfg := buildmodel.BuildConfig{
		Sources:    []buildmodel.InputSource{src},
		FormatInfo: &buildmodel.StoryFormatInfo{Name: "SugarCube", Version: "2.37.3", Source: "{{STORY_DATA}}"},
	}

	result, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.Contains(t, result.HTML, `name="房间"`)
	assert.Contains(t, result.HTML, `tags="事件 重要"`)
}

func TestBuild_Base64EmbeddingInlinesAsset(t *testing.T) {
	src := textSource("story.twee", "::StoryData\n{\"ifid\":\"DDDDDDDD-DDDD-4DDD-8DDD-DDDDDDDDDDDD\",\"format\":\"SugarCube\",\"format-version\":\"2.37.3\"}\n\n"+
		"::Start\n<img src=\"assets/pic.png\">\n")
	img := buildmodel.InputSource{Name: "assets/pic.png", Kind: buildmodel.SourceBytes, Bytes: []byte{0x89, 'P', 'N', 'G'}, MIME: "image/png"}

	cfg := buildmodel.BuildConfig{
		Sources:     []buildmodel.InputSource{src, img},
		Base64Embed: true,
		FormatInfo:  &buildmodel.StoryFormatInfo{Name: "SugarCube", Version: "2.37.3", Source: "{{STORY_DATA}}"},
	}

	result, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.Contains(t, result.HTML, `src="data:image/png;base64,`)
	assert.NotContains(t, result.HTML, `assets/pic.png`)
}

func TestBuild_MissingStoryDataFails(t *testing.T) {
	src := textSource("story.twee", "::Start\nHi\n")
	cfg := buildmodel.BuildConfig{
		Sources:    []buildmodel.InputSource{src},
		FormatInfo: &buildmodel.StoryFormatInfo{Name: "SugarCube", Version: "2.37.3", Source: "{{STORY_DATA}}"},
	}
	_, err := Build(context.Background(), cfg)
	require.Error(t, err)
}

func TestPassages_TolerantOfMissingStoryData(t *testing.T) {
	src := textSource("story.twee", "::Start\nHi\n")
	passages, err := Passages([]buildmodel.InputSource{src})
	require.NoError(t, err)
	assert.Contains(t, passages, "Start")
}
