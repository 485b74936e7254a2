// Package format implements the FormatLoader stage: locating
// a story format envelope on disk and extracting its JSON argument without
// executing arbitrary JavaScript.
//
// The tolerant fallback's quote- and brace-aware top-level splitting
// generalizes the classic macro-argument-list splitter (originally built
// for Harlowe-style `"a", "b", 10` argument lists) to JS object-literal
// key/value pairs, so it can skip over the trailing function values a
// format.js sometimes embeds alongside its JSON-ish fields.
package format

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/tweers-project/tweers/internal/builderrors"
	"github.com/tweers-project/tweers/internal/buildmodel"
)

const envelopeCallMarker = "storyFormat("

// EnvelopePath returns story-format/<name-lower>-<version>/format.js
// under root, the fixed script directory layout a story format is
// loaded from.
func EnvelopePath(root, name, version string) string {
	dir := strings.ToLower(name) + "-" + version
	return filepath.Join(root, "story-format", dir, "format.js")
}

// Installed identifies one discovered format envelope by directory name.
type Installed struct {
	Name    string
	Version string
}

// DiscoverInstalled lists every story-format/<name>-<version>/format.js
// directory under root, splitting the directory name on its last hyphen
// into (name, version). Unparseable directory names are skipped.
func DiscoverInstalled(root string) ([]Installed, error) {
	dir := filepath.Join(root, "story-format")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &builderrors.IoError{Path: dir, Err: err}
	}

	var out []Installed
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		idx := strings.LastIndex(e.Name(), "-")
		if idx <= 0 || idx == len(e.Name())-1 {
			continue
		}
		out = append(out, Installed{Name: e.Name()[:idx], Version: e.Name()[idx+1:]})
	}
	return out, nil
}

// Load resolves and parses the format envelope for (name, version).
func Load(root, name, version string) (buildmodel.StoryFormatInfo, error) {
	path := EnvelopePath(root, name, version)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return buildmodel.StoryFormatInfo{}, &builderrors.FormatNotFound{Path: path}
		}
		return buildmodel.StoryFormatInfo{}, &builderrors.IoError{Path: path, Err: err}
	}

	obj, err := extractCallArgument(string(data))
	if err != nil {
		return buildmodel.StoryFormatInfo{}, &builderrors.FormatMalformed{Path: path, Err: err}
	}

	fields, err := parseTolerantObject(obj)
	if err != nil {
		return buildmodel.StoryFormatInfo{}, &builderrors.FormatMalformed{Path: path, Err: err}
	}

	source, _ := fields["source"].(string)
	if source == "" {
		return buildmodel.StoryFormatInfo{}, &builderrors.FormatSourceMissing{Path: path}
	}

	return buildmodel.StoryFormatInfo{Name: name, Version: version, Source: source}, nil
}

// extractCallArgument locates the outermost balanced {...} after the first
// occurrence of "storyFormat(" in js, honoring string/template literals so
// braces inside them don't confuse the scan.
func extractCallArgument(js string) (string, error) {
	callIdx := strings.Index(js, envelopeCallMarker)
	if callIdx == -1 {
		return "", fmt.Errorf("no storyFormat( call found")
	}
	rest := js[callIdx+len(envelopeCallMarker):]

	braceStart := strings.IndexByte(rest, '{')
	if braceStart == -1 {
		return "", fmt.Errorf("no JSON object argument found after storyFormat(")
	}

	runes := []rune(rest[braceStart:])
	depth := 0
	var quote rune
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return string(runes[:i+1]), nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced braces in storyFormat( argument")
}

// parseTolerantObject tries a strict JSON decode first; on failure it
// falls back to a top-level key/value scan that keeps every field whose
// value is valid JSON and silently drops the rest (trailing functions,
// bare identifiers, etc., as Harlowe's format.js embeds).
func parseTolerantObject(obj string) (map[string]any, error) {
	var strict map[string]any
	if err := gojson.Unmarshal([]byte(obj), &strict); err == nil {
		return strict, nil
	}

	inner := strings.TrimSpace(obj)
	inner = strings.TrimPrefix(inner, "{")
	inner = strings.TrimSuffix(inner, "}")

	fields := map[string]any{}
	for _, pair := range splitTopLevel(inner) {
		key, rawValue, ok := splitKeyValue(pair)
		if !ok {
			continue
		}
		var v any
		if err := gojson.Unmarshal([]byte(rawValue), &v); err != nil {
			// Not valid JSON (a function literal, a bare identifier, an
			// unquoted template string) — tolerated and dropped, unless
			// it is a backtick template literal, which we treat as a
			// plain string since that's how format.js commonly spells
			// `source`.
			if s, ok := asTemplateLiteral(rawValue); ok {
				fields[key] = s
			}
			continue
		}
		fields[key] = v
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no recognizable JSON fields in envelope object")
	}
	return fields, nil
}

func asTemplateLiteral(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '`' && raw[len(raw)-1] == '`' {
		return raw[1 : len(raw)-1], true
	}
	return "", false
}

// splitTopLevel splits s on commas at nesting depth 0, respecting quotes
// (", ', `) and nested {}, [], () — a generalization of a macro-argument
// splitter that only had to handle " and ' around quoted arguments.
func splitTopLevel(s string) []string {
	runes := []rune(s)
	var parts []string
	var cur strings.Builder
	depth := 0
	var quote rune
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if quote != 0 {
			cur.WriteRune(c)
			if c == '\\' && i+1 < len(runes) {
				i++
				cur.WriteRune(runes[i])
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
			cur.WriteRune(c)
		case '{', '[', '(':
			depth++
			cur.WriteRune(c)
		case '}', ']', ')':
			depth--
			cur.WriteRune(c)
		case ',':
			if depth == 0 {
				if trimmed := strings.TrimSpace(cur.String()); trimmed != "" {
					parts = append(parts, trimmed)
				}
				cur.Reset()
				continue
			}
			cur.WriteRune(c)
		default:
			cur.WriteRune(c)
		}
	}
	if trimmed := strings.TrimSpace(cur.String()); trimmed != "" {
		parts = append(parts, trimmed)
	}
	return parts
}

// splitKeyValue splits a "key": value pair on the first unquoted colon.
func splitKeyValue(pair string) (key, value string, ok bool) {
	runes := []rune(pair)
	var quote rune
	for i, c := range runes {
		if quote != 0 {
			if c == '\\' {
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case ':':
			key = strings.TrimSpace(string(runes[:i]))
			value = strings.TrimSpace(string(runes[i+1:]))
			key = strings.Trim(key, `"'`)
			return key, value, true
		}
	}
	return "", "", false
}
