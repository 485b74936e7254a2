// Package storydata implements the StoryDataResolver: picking the first
// non-empty StoryData passage, parsing it (strictly, then leniently),
// and resolving the start passage.
package storydata

import (
	"regexp"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tweers-project/tweers/internal/builderrors"
	"github.com/tweers-project/tweers/internal/buildmodel"
)

// Candidate is one StoryData passage encountered during the build, kept in
// FileCollector order.
type Candidate struct {
	File    string
	Content string
}

// Resolve picks the first non-empty candidate and parses it, falling back
// to a lenient string-scan parse when strict JSON decoding fails.
// Warnings carries recovered diagnostics, including a note when a
// lenient parse succeeded in place of a strict one.
func Resolve(candidates []Candidate) (buildmodel.StoryData, []error, error) {
	var warnings []error

	var chosen *Candidate
	for i := range candidates {
		if strings.TrimSpace(candidates[i].Content) != "" {
			chosen = &candidates[i]
			break
		}
	}
	if chosen == nil {
		return buildmodel.StoryData{}, warnings, &builderrors.MissingStoryData{}
	}

	sd, strictErr := parseStrict(chosen.Content)
	if strictErr != nil {
		lenient, lerr := parseLenient(chosen.Content)
		if lerr != nil {
			return buildmodel.StoryData{}, warnings, &builderrors.StoryDataParseFailed{File: chosen.File, Err: strictErr}
		}
		lenient.LenientParse = true
		warnings = append(warnings, &lenientParseNotice{File: chosen.File})
		sd = lenient
	}

	if sd.IFID == "" {
		return buildmodel.StoryData{}, warnings, &builderrors.MissingIfid{}
	}
	if _, err := uuid.Parse(sd.IFID); err != nil {
		warnings = append(warnings, &ifidShapeWarning{IFID: sd.IFID})
	}

	return sd, warnings, nil
}

// lenientParseNotice records that the lenient fallback parser was used; it
// satisfies the error interface so it travels in the Warnings slice, and
// cmd/tweers logs it at Info level with the other build warnings.
type lenientParseNotice struct{ File string }

func (n *lenientParseNotice) Error() string {
	return "StoryData in " + n.File + " parsed via lenient fallback (non-strict JSON)"
}

type ifidShapeWarning struct{ IFID string }

func (w *ifidShapeWarning) Error() string {
	return "StoryData ifid does not look like a standard UUID: " + w.IFID
}

type rawStoryData struct {
	IFID          string            `json:"ifid"`
	Format        string            `json:"format"`
	FormatVersion string            `json:"format-version"`
	Name          string            `json:"name"`
	Start         string            `json:"start"`
	TagColors     map[string]string `json:"tag-colors"`
	Zoom          *float64          `json:"zoom"`
}

func parseStrict(body string) (buildmodel.StoryData, error) {
	trimmed := strings.TrimSpace(body)

	var generic map[string]any
	if err := gojson.Unmarshal([]byte(trimmed), &generic); err != nil {
		return buildmodel.StoryData{}, err
	}

	var typed rawStoryData
	if err := gojson.Unmarshal([]byte(trimmed), &typed); err != nil {
		return buildmodel.StoryData{}, err
	}

	known := map[string]bool{
		"ifid": true, "format": true, "format-version": true, "name": true,
		"start": true, "tag-colors": true, "zoom": true,
	}
	unknown := map[string]any{}
	for k, v := range generic {
		if !known[k] {
			unknown[k] = v
		}
	}

	sd := buildmodel.StoryData{
		IFID:          strings.ToUpper(typed.IFID),
		Format:        typed.Format,
		FormatVersion: typed.FormatVersion,
		Name:          typed.Name,
		Start:         typed.Start,
		TagColors:     typed.TagColors,
		Unknown:       unknown,
	}
	if typed.Zoom != nil {
		sd.Zoom = *typed.Zoom
		sd.ZoomSet = true
	}
	return sd, nil
}

var (
	stringFieldRe = regexp.MustCompile(`"(ifid|format|format-version|name|start)"\s*:\s*"([^"]*)"`)
	zoomFieldRe   = regexp.MustCompile(`"zoom"\s*:\s*([0-9]+(?:\.[0-9]+)?)`)
	tagColorsRe   = regexp.MustCompile(`"tag-colors"\s*:\s*\{([^}]*)\}`)
	tagColorPair  = regexp.MustCompile(`"([^"]+)"\s*:\s*"([^"]*)"`)
)

// parseLenient implements the string-scan fallback from the design: it
// tolerates unknown fields and non-standard shapes (trailing functions,
// single-quoted strings, etc. as seen in third-party formats like
// Harlowe) by scanning for the recognized keys directly instead of
// requiring the whole body to be valid JSON.
func parseLenient(body string) (buildmodel.StoryData, error) {
	sd := buildmodel.StoryData{}
	found := false

	for _, m := range stringFieldRe.FindAllStringSubmatch(body, -1) {
		found = true
		switch m[1] {
		case "ifid":
			sd.IFID = strings.ToUpper(m[2])
		case "format":
			sd.Format = m[2]
		case "format-version":
			sd.FormatVersion = m[2]
		case "name":
			sd.Name = m[2]
		case "start":
			sd.Start = m[2]
		}
	}

	if m := zoomFieldRe.FindStringSubmatch(body); m != nil {
		if z, err := strconv.ParseFloat(m[1], 64); err == nil {
			sd.Zoom = z
			sd.ZoomSet = true
			found = true
		}
	}

	if m := tagColorsRe.FindStringSubmatch(body); m != nil {
		colors := map[string]string{}
		for _, pair := range tagColorPair.FindAllStringSubmatch(m[1], -1) {
			colors[pair[1]] = pair[2]
		}
		if len(colors) > 0 {
			sd.TagColors = colors
			found = true
		}
	}

	if !found {
		return buildmodel.StoryData{}, &builderrors.StoryDataParseFailed{Err: errNoRecognizedKeys}
	}
	return sd, nil
}

var errNoRecognizedKeys = stringErr("no recognized StoryData keys found")

type stringErr string

func (e stringErr) Error() string { return string(e) }

// ResolveStart implements start-passage resolution: CLI/config
// override, then StoryData.start, then a passage literally named Start,
// then failure.
func ResolveStart(override string, sd buildmodel.StoryData, passages map[string]*buildmodel.Passage) (string, error) {
	candidates := []string{override, sd.Start, "Start"}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		p, ok := passages[c]
		if !ok || buildmodel.IsReserved(p) {
			if c == override && override != "" {
				return "", &builderrors.MissingStartPassage{Requested: c}
			}
			continue
		}
		return c, nil
	}
	return "", &builderrors.MissingStartPassage{}
}
