// Package collector implements the FileCollector stage: it
// walks a root directory and produces a deterministically ordered set of
// InputSources.
package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tweers-project/tweers/internal/builderrors"
	"github.com/tweers-project/tweers/internal/buildmodel"
)

// textExtensions are the Twee source extensions tokenized by the pipeline.
var textExtensions = map[string]bool{
	".twee": true,
	".tw":   true,
}

// assetExtensions is the whitelist of binary asset extensions eligible
// for embedding.
var assetExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".gif": true,
	".avif": true, ".svg": true, ".mp3": true, ".ogg": true, ".wav": true,
	".m4a": true, ".mp4": true, ".webm": true, ".ico": true, ".otf": true,
	".ttf": true, ".woff": true, ".woff2": true,
}

// mimeByExtension maps the whitelisted asset extensions to their MIME type.
var mimeByExtension = map[string]string{
	".png": "image/png", ".jpg": "image/jpeg", ".jpeg": "image/jpeg",
	".webp": "image/webp", ".gif": "image/gif", ".avif": "image/avif",
	".svg": "image/svg+xml", ".mp3": "audio/mpeg", ".ogg": "audio/ogg",
	".wav": "audio/wav", ".m4a": "audio/mp4", ".mp4": "video/mp4",
	".webm": "video/webm", ".ico": "image/x-icon", ".otf": "font/otf",
	".ttf": "font/ttf", ".woff": "font/woff", ".woff2": "font/woff2",
}

// MIMEForExtension returns the inferred MIME type for an extension
// (lower-cased, including the leading dot), or "application/octet-stream"
// for anything not in the whitelist.
func MIMEForExtension(ext string) string {
	if m, ok := mimeByExtension[strings.ToLower(ext)]; ok {
		return m
	}
	return "application/octet-stream"
}

// Options configures a Collect invocation.
type Options struct {
	// Base64Embed enables collecting whitelisted byte sources; when false,
	// only text sources are gathered.
	Base64Embed bool

	// ExtraIncludes are additional file paths or glob patterns (relative
	// to root) to fold in, classified as text or asset sources the same
	// way the directory walk classifies files — used by internal/pipeline
	// to implement the StoryIncludes supplement.
	ExtraIncludes []string
}

// Collect walks root and returns InputSources ordered per the FileCollector
// ordering contract: lexicographic byte-wise comparison on `/`-normalized
// paths, deterministic across operating systems.
func Collect(root string, opts Options) ([]buildmodel.InputSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &builderrors.NoSuchRoot{Path: root}
		}
		return nil, &builderrors.IoError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &builderrors.NoSuchRoot{Path: root}
	}

	seenReal := map[string]bool{}
	var sources []buildmodel.InputSource

	walkErr := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return &builderrors.IoError{Path: path, Err: err}
		}
		if fi.IsDir() {
			return nil
		}

		if fi.Mode()&os.ModeSymlink != 0 {
			real, rerr := filepath.EvalSymlinks(path)
			if rerr != nil {
				return &builderrors.IoError{Path: path, Err: rerr}
			}
			if seenReal[real] {
				return &builderrors.SymlinkCycle{Path: path}
			}
			seenReal[real] = true
		}

		ext := strings.ToLower(filepath.Ext(path))
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return &builderrors.IoError{Path: path, Err: rerr}
		}
		name := normalizeSlashes(rel)

		switch {
		case textExtensions[ext]:
			data, rerr := os.ReadFile(path)
			if rerr != nil {
				return &builderrors.IoError{Path: path, Err: rerr}
			}
			sources = append(sources, buildmodel.InputSource{
				Name: name,
				Kind: buildmodel.SourceText,
				Text: string(data),
			})
		case opts.Base64Embed && assetExtensions[ext]:
			data, rerr := os.ReadFile(path)
			if rerr != nil {
				return &builderrors.IoError{Path: path, Err: rerr}
			}
			sources = append(sources, buildmodel.InputSource{
				Name:  name,
				Kind:  buildmodel.SourceBytes,
				Bytes: data,
				MIME:  MIMEForExtension(ext),
			})
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	seenNames := make(map[string]bool, len(sources))
	for _, s := range sources {
		seenNames[s.Name] = true
	}

	for _, inc := range opts.ExtraIncludes {
		matched, err := loadExtraInclude(root, opts.Base64Embed, seenNames, inc)
		if err != nil {
			return nil, err
		}
		sources = append(sources, matched...)
	}

	sortSources(sources)
	return sources, nil
}

// hasGlobMeta reports whether inc contains a glob metacharacter, the signal
// that it should be expanded against the filesystem rather than read
// literally.
func hasGlobMeta(inc string) bool {
	return strings.ContainsAny(inc, "*?[{")
}

// loadExtraInclude resolves one StoryIncludes-style entry: a literal
// relative path is read directly, while a glob pattern (e.g. "lib/**/*.twee")
// is expanded with doublestar against root so ignore/whitelist style glob
// expressions behave the same across platforms regardless of the host
// filesystem's own glob semantics. Entries already present in seen (by
// resulting InputSource name) are skipped so an include can't duplicate a
// file the directory walk already picked up.
func loadExtraInclude(root string, base64Embed bool, seen map[string]bool, inc string) ([]buildmodel.InputSource, error) {
	inc = strings.TrimSpace(inc)
	if inc == "" {
		return nil, nil
	}

	if !hasGlobMeta(inc) {
		src, err := loadIncludeFile(root, base64Embed, inc)
		if err != nil || src == nil || seen[src.Name] {
			return nil, err
		}
		seen[src.Name] = true
		return []buildmodel.InputSource{*src}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(root), inc)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", inc, err)
	}

	var out []buildmodel.InputSource
	for _, m := range matches {
		src, err := loadIncludeFile(root, base64Embed, m)
		if err != nil {
			return nil, err
		}
		if src == nil || seen[src.Name] {
			continue
		}
		seen[src.Name] = true
		out = append(out, *src)
	}
	return out, nil
}

// loadIncludeFile reads one include path, relative to root, classifying it
// as a text or asset source the same way the directory walk does. It
// returns (nil, nil) for a path that doesn't exist (e.g. a directory
// swept up incidentally by a glob) or whose extension isn't eligible.
func loadIncludeFile(root string, base64Embed bool, relSlash string) (*buildmodel.InputSource, error) {
	rel := filepath.FromSlash(relSlash)
	full := filepath.Join(root, rel)

	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &builderrors.IoError{Path: full, Err: err}
	}
	if fi.IsDir() {
		return nil, nil
	}

	ext := strings.ToLower(filepath.Ext(full))
	name := normalizeSlashes(relSlash)

	switch {
	case textExtensions[ext]:
		data, rerr := os.ReadFile(full)
		if rerr != nil {
			return nil, &builderrors.IoError{Path: full, Err: rerr}
		}
		return &buildmodel.InputSource{Name: name, Kind: buildmodel.SourceText, Text: string(data)}, nil
	case base64Embed && assetExtensions[ext]:
		data, rerr := os.ReadFile(full)
		if rerr != nil {
			return nil, &builderrors.IoError{Path: full, Err: rerr}
		}
		return &buildmodel.InputSource{Name: name, Kind: buildmodel.SourceBytes, Bytes: data, MIME: MIMEForExtension(ext)}, nil
	default:
		return nil, nil
	}
}

func normalizeSlashes(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func sortSources(sources []buildmodel.InputSource) {
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Name < sources[j].Name
	})
}
