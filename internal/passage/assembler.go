// Package passage implements the PassageAssembler stage: it normalizes
// a tokenizer.RawPassage into the canonical buildmodel.Passage record.
package passage

import (
	"strings"

	"github.com/tweers-project/tweers/internal/buildmodel"
	"github.com/tweers-project/tweers/internal/tokenizer"
)

// Assemble converts one raw passage into its canonical form: tags
// deduplicated in insertion order, content newline-normalized with
// trailing whitespace trimmed per line and a single guaranteed trailing
// newline, and provenance recorded.
func Assemble(raw tokenizer.RawPassage, sourceFile string) *buildmodel.Passage {
	return &buildmodel.Passage{
		Name:       raw.Name,
		Tags:       dedupeTags(raw.Tags),
		Position:   raw.Position,
		Size:       raw.Size,
		Content:    normalizeContent(raw.Body),
		SourceFile: sourceFile,
		SourceLine: raw.SourceLine,
	}
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// normalizeContent trims trailing whitespace from every line and guarantees
// exactly one trailing newline. The tokenizer has already normalized line
// endings to \n and stripped leading/trailing blank lines.
func normalizeContent(body string) string {
	if body == "" {
		return "\n"
	}
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.Join(lines, "\n") + "\n"
}
