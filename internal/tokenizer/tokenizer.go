// Package tokenizer implements the Tokenizer stage: it splits
// a single Twee source file into raw passage headers and bodies.
//
// Header grammar:
//
//	HEADER    := "::" SP NAME (SP "[" TAGS "]")? (SP "{" POS (SP SIZE)? "}")?
//	NAME      := any characters up to the first unescaped " [" or " {" or end-of-line
//	TAGS      := space-separated list of tag tokens; backslash-escaped spaces allowed
//	POS, SIZE := "<int>,<int>"
//
// Header parsing operates on Unicode scalar values (runes), not bytes, so
// non-ASCII tag and name text (e.g. Chinese) parses correctly.
package tokenizer

import (
	"strconv"
	"strings"

	"github.com/tweers-project/tweers/internal/builderrors"
	"github.com/tweers-project/tweers/internal/buildmodel"
)

// RawPassage is an untrimmed passage as produced by the tokenizer, before
// PassageAssembler normalization.
type RawPassage struct {
	Name       string
	Tags       []string
	Position   buildmodel.Position
	Size       buildmodel.Size
	Body       string
	SourceLine int
}

// Tokenize splits the text of a single source file into raw passages.
// Warnings contains recovered DuplicatePassageWithinFile diagnostics; err
// is non-nil only for a fatal MalformedHeader.
func Tokenize(file, text string) (passages []RawPassage, warnings []error, err error) {
	lines := splitNormalizedLines(text)

	index := map[string]int{} // name -> slot in passages
	var bodyLines []string
	var current *RawPassage

	flush := func() {
		if current == nil {
			return
		}
		current.Body = trimBlankLines(bodyLines)
		if slot, ok := index[current.Name]; ok {
			warnings = append(warnings, &builderrors.DuplicatePassageWithinFile{File: file, Name: current.Name})
			passages[slot] = *current
		} else {
			index[current.Name] = len(passages)
			passages = append(passages, *current)
		}
		current = nil
		bodyLines = nil
	}

	for i, line := range lines {
		lineNo := i + 1
		if strings.HasPrefix(line, "::") {
			flush()
			rp, perr := parseHeader(line, lineNo)
			if perr != nil {
				return nil, warnings, &builderrors.MalformedHeader{File: file, Line: lineNo, Msg: perr.Error()}
			}
			current = rp
			bodyLines = nil
			continue
		}
		if current != nil {
			bodyLines = append(bodyLines, line)
		}
	}
	flush()

	return passages, warnings, nil
}

func splitNormalizedLines(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.Split(normalized, "\n")
}

// trimBlankLines strips leading and trailing blank lines while preserving
// interior blank lines.
func trimBlankLines(lines []string) string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

type headerParseError struct{ msg string }

func (e *headerParseError) Error() string { return e.msg }

// parseHeader parses one "::" header line. It operates on []rune so that
// multi-byte scalar values (e.g. CJK tag text) are handled correctly.
func parseHeader(line string, lineNo int) (*RawPassage, error) {
	runes := []rune(line)
	// Consume "::"
	i := 2
	// Consume exactly one separating space if present; tolerate its
	// absence rather than failing, since the body of the grammar is SP
	// NAME and a header with no content after "::" is still well formed.
	// An empty name is passed through as-is; neither the tokenizer nor the
	// assembler rejects it.
	if i < len(runes) && runes[i] == ' ' {
		i++
	}

	nameStart := i
	nameEnd := -1
	tagsStart, tagsEnd := -1, -1
	posStart, posEnd := -1, -1

	for i < len(runes) {
		if runes[i] == '\\' && i+1 < len(runes) {
			i += 2
			continue
		}
		if runes[i] == ' ' && i+1 < len(runes) && runes[i+1] == '[' {
			nameEnd = i
			break
		}
		if runes[i] == ' ' && i+1 < len(runes) && runes[i+1] == '{' {
			nameEnd = i
			break
		}
		i++
	}
	if nameEnd == -1 {
		nameEnd = len(runes)
	}
	name := unescapeName(string(runes[nameStart:nameEnd]))
	name = strings.TrimSpace(name)

	i = nameEnd
	if i < len(runes) && runes[i] == ' ' {
		i++
	}

	var tags []string
	if i < len(runes) && runes[i] == '[' {
		tagsStart = i + 1
		depthClose := -1
		for j := tagsStart; j < len(runes); j++ {
			if runes[j] == '\\' && j+1 < len(runes) {
				j++
				continue
			}
			if runes[j] == ']' {
				depthClose = j
				break
			}
		}
		if depthClose == -1 {
			return nil, &headerParseError{msg: "unbalanced '[' in tags section"}
		}
		tagsEnd = depthClose
		tags = splitTags(string(runes[tagsStart:tagsEnd]))
		i = tagsEnd + 1
	}

	if i < len(runes) && runes[i] == ' ' {
		i++
	}

	var pos buildmodel.Position
	var size buildmodel.Size
	if i < len(runes) && runes[i] == '{' {
		posStart = i + 1
		closeIdx := -1
		for j := posStart; j < len(runes); j++ {
			if runes[j] == '}' {
				closeIdx = j
				break
			}
		}
		if closeIdx == -1 {
			return nil, &headerParseError{msg: "unbalanced '{' in position/size section"}
		}
		posEnd = closeIdx
		inner := strings.TrimSpace(string(runes[posStart:posEnd]))
		fields := strings.Fields(inner)
		if len(fields) >= 1 {
			if x, y, ok := parseIntPair(fields[0]); ok {
				pos = buildmodel.Position{X: x, Y: y, Set: true}
			}
		}
		if len(fields) >= 2 {
			if w, h, ok := parseIntPair(fields[1]); ok {
				size = buildmodel.Size{W: w, H: h, Set: true}
			}
		}
	}

	return &RawPassage{
		Name:       name,
		Tags:       tags,
		Position:   pos,
		Size:       size,
		SourceLine: lineNo,
	}, nil
}

func parseIntPair(s string) (a, b int, ok bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	x, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return x, y, true
}

// splitTags splits a TAGS section on unescaped spaces, unescaping
// backslash-escaped spaces within each token.
func splitTags(s string) []string {
	runes := []rune(s)
	var tags []string
	var cur []rune
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) && runes[i+1] == ' ' {
			cur = append(cur, ' ')
			i++
			continue
		}
		if runes[i] == ' ' {
			if len(cur) > 0 {
				tags = append(tags, string(cur))
				cur = nil
			}
			continue
		}
		cur = append(cur, runes[i])
	}
	if len(cur) > 0 {
		tags = append(tags, string(cur))
	}
	return tags
}

func unescapeName(s string) string {
	runes := []rune(s)
	var out []rune
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) {
			out = append(out, runes[i+1])
			i++
			continue
		}
		out = append(out, runes[i])
	}
	return string(out)
}
