// Package builderrors implements the build error taxonomy as distinct Go
// types, so callers can recover the concrete kind with errors.As instead
// of string-matching messages.
package builderrors

import "fmt"

// NoSuchRoot is returned when the FileCollector's root directory does not
// exist.
type NoSuchRoot struct {
	Path string
}

func (e *NoSuchRoot) Error() string {
	return fmt.Sprintf("no such root: %s", e.Path)
}

// SymlinkCycle is returned when the FileCollector detects a symlink loop.
type SymlinkCycle struct {
	Path string
}

func (e *SymlinkCycle) Error() string {
	return fmt.Sprintf("symlink cycle detected at: %s", e.Path)
}

// IoError wraps an I/O failure encountered while reading a named path.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error on %s: %v", e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// MalformedHeader is returned when a Twee passage header has unbalanced
// brackets.
type MalformedHeader struct {
	File string
	Line int
	Msg  string
}

func (e *MalformedHeader) Error() string {
	return fmt.Sprintf("malformed header at %s:%d: %s", e.File, e.Line, e.Msg)
}

// DuplicatePassageWithinFile is a recovered warning: the same passage name
// appeared twice within one file; the last definition wins.
type DuplicatePassageWithinFile struct {
	File string
	Name string
}

func (e *DuplicatePassageWithinFile) Error() string {
	return fmt.Sprintf("duplicate passage %q within %s, last definition wins", e.Name, e.File)
}

// StoryDataParseFailed is returned when both the strict and lenient
// StoryData parses fail.
type StoryDataParseFailed struct {
	File string
	Err  error
}

func (e *StoryDataParseFailed) Error() string {
	return fmt.Sprintf("StoryData parse failed in %s: %v", e.File, e.Err)
}

func (e *StoryDataParseFailed) Unwrap() error { return e.Err }

// MissingStoryData is returned when no non-empty StoryData passage is found.
type MissingStoryData struct{}

func (e *MissingStoryData) Error() string { return "missing StoryData passage" }

// MissingStartPassage is returned when the resolved start passage does not
// exist or is reserved.
type MissingStartPassage struct {
	Requested string
}

func (e *MissingStartPassage) Error() string {
	if e.Requested == "" {
		return "missing start passage: no candidate resolved"
	}
	return fmt.Sprintf("missing start passage: %q does not exist or is reserved", e.Requested)
}

// MissingIfid is returned when StoryData carries no ifid field.
type MissingIfid struct{}

func (e *MissingIfid) Error() string { return "StoryData is missing required field: ifid" }

// FormatNotFound is returned when the format envelope file cannot be located.
type FormatNotFound struct {
	Path string
}

func (e *FormatNotFound) Error() string {
	return fmt.Sprintf("story format not found: %s", e.Path)
}

// FormatMalformed is returned when a format envelope cannot be parsed at all.
type FormatMalformed struct {
	Path string
	Err  error
}

func (e *FormatMalformed) Error() string {
	return fmt.Sprintf("story format malformed at %s: %v", e.Path, e.Err)
}

func (e *FormatMalformed) Unwrap() error { return e.Err }

// FormatSourceMissing is returned when the format envelope parses but
// carries no usable `source` field.
type FormatSourceMissing struct {
	Path string
}

func (e *FormatSourceMissing) Error() string {
	return fmt.Sprintf("story format at %s has no source template", e.Path)
}

// HookFailed is returned when a hook script throws or otherwise errors.
type HookFailed struct {
	Path string
	Msg  string
}

func (e *HookFailed) Error() string {
	return fmt.Sprintf("hook failed at %s: %s", e.Path, e.Msg)
}

// HookTimeout is returned when a hook script exceeds its wall-clock deadline.
type HookTimeout struct {
	Path string
}

func (e *HookTimeout) Error() string {
	return fmt.Sprintf("hook timed out: %s", e.Path)
}

// UnknownAssetReference is a recovered (debug-logged) warning: a passage
// referenced an asset path the collector does not know about.
type UnknownAssetReference struct {
	Ref string
}

func (e *UnknownAssetReference) Error() string {
	return fmt.Sprintf("unknown asset reference: %s", e.Ref)
}
