// Package buildmodel holds the data types shared across every pipeline
// stage: input sources, the canonical Passage record, story metadata, the
// resolved story format envelope, and the configuration/result shapes that
// tie a build together.
package buildmodel

// SourceKind distinguishes the two kinds of input a build can consume.
type SourceKind int

const (
	// SourceText is a UTF-8 Twee source file, read by the tokenizer.
	SourceText SourceKind = iota
	// SourceBytes is an opaque binary asset, referenced by name from
	// passage bodies and never tokenized.
	SourceBytes
)

func (k SourceKind) String() string {
	switch k {
	case SourceText:
		return "text"
	case SourceBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// InputSource is an in-memory file with a logical name, a declared kind,
// and a payload. Name is a `/`-normalized relative path from the source
// root; it is also the identity used for asset-reference matching in
// internal/asset.
type InputSource struct {
	Name string
	Kind SourceKind

	// Text holds the UTF-8 content when Kind == SourceText.
	Text string
	// Bytes holds the raw payload when Kind == SourceBytes.
	Bytes []byte
	// MIME is the inferred MIME type when Kind == SourceBytes.
	MIME string
}

// Position is an opaque "x,y" pair forwarded verbatim to the emitted HTML.
type Position struct {
	X, Y int
	// Set reports whether the position was present in the header.
	Set bool
}

// Size is an opaque "x,y" pair, analogous to Position, used for a
// passage's declared editor size.
type Size struct {
	W, H int
	Set  bool
}

// Passage is a named unit of story content, normalized by the
// PassageAssembler.
type Passage struct {
	Name     string
	Tags     []string // insertion-preserving order, deduplicated
	Position Position
	Size     Size
	Content  string // newline-normalized, trailing-whitespace trimmed per line, single trailing \n

	SourceFile string
	SourceLine int
}

// StoryData is the record extracted from the first non-empty StoryData
// passage.
type StoryData struct {
	IFID          string
	Format        string
	FormatVersion string
	Name          string
	Start         string
	TagColors     map[string]string
	Zoom          float64
	ZoomSet       bool

	// Unknown carries any JSON keys not recognized above, as decoded by
	// the strict parse (the lenient parse leaves it nil). The emitter does
	// not write these keys into <tw-storydata>.
	Unknown map[string]any

	// LenientParse records that the lenient (string-scan) fallback parser
	// produced this record rather than a strict JSON decode.
	LenientParse bool
}

// StoryFormatInfo is the resolved story format envelope.
type StoryFormatInfo struct {
	Name    string
	Version string
	// Source is the envelope's HTML template (the storyFormat({...}).source
	// field). It may be empty when the caller supplies format info out of
	// band (see ParseOutput) and intends to fill it before emission.
	Source string
}

// BuildConfig is the top-level input to a single build invocation.
type BuildConfig struct {
	Sources []InputSource

	// FormatInfo, when non-nil, replaces the name and version taken from
	// StoryData. If its Source is non-empty the FormatLoader is not
	// consulted; if Source is empty the FormatLoader loads the envelope
	// for FormatInfo's name and version.
	FormatInfo *StoryFormatInfo

	// FormatSearchRoot is the directory under which
	// story-format/<name>-<version>/format.js is resolved.
	FormatSearchRoot string

	// HookDataDir and HookHTMLDir are the directories scanned for
	// data-stage and html-stage hook scripts respectively.
	HookDataDir string
	HookHTMLDir string

	// Base64Embed enables the AssetEmbedder.
	Base64Embed bool

	// Debug sets options="debug" on the emitted <tw-storydata> element.
	// It is not copied into ParseOutput.Debug.
	Debug bool

	// StartPassageOverride takes precedence over StoryData.Start and the
	// literal Start passage fallback.
	StartPassageOverride string

	// HookTimeoutSeconds bounds a single hook script's wall-clock
	// execution; 0 means the internal/hooks default (10s) applies.
	HookTimeoutSeconds int
}

// ParseOutput is the intermediate value produced by Parse and consumed by
// BuildFromParsed: a caller may parse once and emit multiple
// times.
type ParseOutput struct {
	Passages   map[string]*Passage
	StoryData  StoryData
	FormatInfo StoryFormatInfo
	Debug      bool

	// Order records passage names in first-seen order across the source
	// set. A later file's redefinition of a name overwrites the Passages
	// entry but does not move its slot here — pid assignment during
	// emission follows this order so that a dedup winner inherits the
	// first-seen position.
	Order []string

	// Warnings accumulates recovered, non-fatal diagnostics.
	Warnings []error
}

// BuildResult is the output of a successful build.
type BuildResult struct {
	HTML     string
	Warnings []error
}

// ReservedPassageNames is the fixed set of passage names with special
// meaning to the story format. They are preserved in the passage map
// but never eligible as the start passage.
var ReservedPassageNames = map[string]bool{
	"StoryTitle":    true,
	"StoryData":     true,
	"StoryIncludes": true,
	"StoryInit":     true,
	"StorySettings": true,
	"PassageReady":  true,
	"PassageHeader": true,
	"PassageFooter": true,
	"PassageDone":   true,
	"StoryBanner":   true,
	"StoryCaption":  true,
	"StoryMenu":     true,
	"StoryShare":    true,
	"StorySubtitle": true,
	"StoryAuthor":   true,
}

// IsReserved reports whether a passage is reserved: either by name, or by
// carrying the Twine.private tag.
func IsReserved(p *Passage) bool {
	if ReservedPassageNames[p.Name] {
		return true
	}
	for _, t := range p.Tags {
		if t == "Twine.private" {
			return true
		}
	}
	return false
}
