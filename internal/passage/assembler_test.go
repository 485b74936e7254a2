package passage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tweers-project/tweers/internal/tokenizer"
)

func TestAssemble_DedupesTagsAndNormalizesContent(t *testing.T) {
	raw := tokenizer.RawPassage{
		Name: "Start",
		Tags: []string{"a", "b", "a"},
		Body: "line1   \nline2",
	}
	p := Assemble(raw, "story.twee")
	assert.Equal(t, []string{"a", "b"}, p.Tags)
	assert.Equal(t, "line1\nline2\n", p.Content)
	assert.Equal(t, "story.twee", p.SourceFile)
}

func TestAssemble_EmptyBodyGetsSingleNewline(t *testing.T) {
	p := Assemble(tokenizer.RawPassage{Name: "Start"}, "story.twee")
	assert.Equal(t, "\n", p.Content)
}
