// Package emitter implements the HtmlEmitter stage: composing
// the final self-contained HTML document from a format envelope's source
// template, the resolved StoryData, and the ordered passage set.
package emitter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tweers-project/tweers/internal/buildmodel"
)

const storyNamePlaceholder = "{{STORY_NAME}}"
const storyDataPlaceholder = "{{STORY_DATA}}"

// Passage is one passage in final emission order, already carrying its
// assigned pid: pid ordinals follow the FileCollector sort order with
// within-file order preserved; a name collision winner inherits the
// first-seen position. Reserved passages carry Pid 0 — they are not
// eligible as the start passage and are never emitted as
// <tw-passagedata> but must still be present so a stylesheet- or
// script-tagged reserved passage contributes to the aggregates.
type Passage struct {
	Pid int
	*buildmodel.Passage
}

// Options configures one Compose call.
type Options struct {
	StoryName      string
	StoryData      buildmodel.StoryData
	StartPid       int
	CreatorVersion string
	Debug          bool
}

// Compose substitutes {{STORY_NAME}} and {{STORY_DATA}} into the format
// envelope's source template and returns the resulting document. Passages
// must be in final emission order and include reserved passages (see the
// Passage doc) so that a stylesheet- or script-tagged reserved passage
// still contributes to the <style>/<script> aggregates; reserved entries
// are filtered out of <tw-passagedata> internally.
func Compose(source string, passages []Passage, opts Options) string {
	html := strings.Replace(source, storyNamePlaceholder, escapeText(opts.StoryName), 1)
	storyData := composeStoryData(passages, opts)
	return strings.Replace(html, storyDataPlaceholder, storyData, 1)
}

func composeStoryData(passages []Passage, opts Options) string {
	var b strings.Builder

	b.WriteString("<tw-storydata")
	writeAttr(&b, "name", opts.StoryName)
	writeAttr(&b, "startnode", strconv.Itoa(opts.StartPid))
	writeAttr(&b, "creator", "TweeRS")
	writeAttr(&b, "creator-version", opts.CreatorVersion)
	writeAttr(&b, "ifid", opts.StoryData.IFID)
	writeAttr(&b, "zoom", formatZoom(opts.StoryData))
	writeAttr(&b, "format", opts.StoryData.Format)
	writeAttr(&b, "format-version", opts.StoryData.FormatVersion)
	writeAttr(&b, "options", storyDataOptions(opts))
	writeAttr(&b, "hidden", "")
	b.WriteString(">")

	writeStylesAndScripts(&b, passages)

	for _, t := range orderedTagColorNames(opts.StoryData.TagColors) {
		b.WriteString("<tw-tag")
		writeAttr(&b, "name", t)
		writeAttr(&b, "color", opts.StoryData.TagColors[t])
		b.WriteString("></tw-tag>")
	}

	for _, p := range passages {
		if buildmodel.IsReserved(p.Passage) {
			continue
		}
		writePassageData(&b, p)
	}

	b.WriteString("</tw-storydata>")
	return b.String()
}

func writePassageData(b *strings.Builder, p Passage) {
	b.WriteString("<tw-passagedata")
	writeAttr(b, "pid", strconv.Itoa(p.Pid))
	writeAttr(b, "name", p.Name)
	writeAttr(b, "tags", strings.Join(p.Tags, " "))
	writeAttr(b, "position", positionString(p.Position))
	writeAttr(b, "size", sizeString(p.Size))
	b.WriteString(">")
	b.WriteString(escapeText(p.Content))
	b.WriteString("</tw-passagedata>")
}

func writeStylesAndScripts(b *strings.Builder, passages []Passage) {
	var styles, scripts []string
	for _, p := range passages {
		if hasTag(p.Tags, "stylesheet") {
			styles = append(styles, p.Content)
		}
		if hasTag(p.Tags, "script") {
			scripts = append(scripts, p.Content)
		}
	}
	b.WriteString("<style>")
	b.WriteString(strings.Join(styles, ""))
	b.WriteString("</style>")
	b.WriteString("<script>")
	b.WriteString(strings.Join(scripts, ""))
	b.WriteString("</script>")
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func storyDataOptions(opts Options) string {
	if opts.Debug {
		return "debug"
	}
	return ""
}

func formatZoom(sd buildmodel.StoryData) string {
	if !sd.ZoomSet {
		return "1"
	}
	return strconv.FormatFloat(sd.Zoom, 'g', -1, 64)
}

func positionString(pos buildmodel.Position) string {
	if !pos.Set {
		return ""
	}
	return fmt.Sprintf("%d,%d", pos.X, pos.Y)
}

func sizeString(sz buildmodel.Size) string {
	if !sz.Set {
		return ""
	}
	return fmt.Sprintf("%d,%d", sz.W, sz.H)
}

func orderedTagColorNames(colors map[string]string) []string {
	if len(colors) == 0 {
		return nil
	}
	names := make([]string, 0, len(colors))
	for k := range colors {
		names = append(names, k)
	}
	// Map iteration order is unspecified, but output must be deterministic;
	// sort lexicographically.
	sort.Strings(names)
	return names
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(escapeAttr(value))
	b.WriteString(`"`)
}

// escapeAttr escapes &, <, >, " for use inside a double-quoted attribute
// value. It never re-encodes UTF-8: non-ASCII runes pass through
// untouched.
func escapeAttr(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeText escapes &, <, > for a text node. Like escapeAttr, it never
// re-encodes UTF-8.
func escapeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
