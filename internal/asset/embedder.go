// Package asset implements the AssetEmbedder stage: rewriting
// src=/href=/url()/data-src= references in passage and format-source text
// into self-contained data: URIs.
package asset

import (
	"encoding/base64"
	"log/slog"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tweers-project/tweers/internal/builderrors"
)

// Asset is one embeddable byte source, keyed by the name asset references
// resolve against (the InputSource.Name FileCollector produced it under).
type Asset struct {
	Name string
	MIME string
	Data []byte
}

// Embedder rewrites asset references against a fixed set of known assets.
// Reference matching against asset Names is case-sensitive: FileCollector
// preserves filesystem casing verbatim, and rewriting case-insensitively
// would silently collapse distinct files on case-sensitive filesystems.
type Embedder struct {
	assets map[string]Asset
	logger *slog.Logger
}

// New builds an Embedder over the given assets.
func New(assets []Asset, logger *slog.Logger) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}
	m := make(map[string]Asset, len(assets))
	for _, a := range assets {
		m[a.Name] = a
	}
	return &Embedder{assets: m, logger: logger}
}

// referenceRe matches src="...", href='...', data-src=..., and url(...)
// forms, capturing the attribute/function prefix and the quoted or bare
// reference value separately so the rewrite can preserve original quoting.
var referenceRe = regexp.MustCompile(
	`(?i)(src|href|data-src)\s*=\s*(["'])([^"']*)["']` +
		`|url\(\s*(["']?)([^)"']*)["']?\s*\)`,
)

// Rewrite replaces every asset reference in text with a data: URI for
// references that resolve against known assets. External URLs, anchors,
// already-embedded data: URIs and empty references are left untouched
// without a warning; any other reference that matches no known asset is
// left untouched and reported as an UnknownAssetReference warning.
func (e *Embedder) Rewrite(text string) (string, []error) {
	var warnings []error

	out := referenceRe.ReplaceAllStringFunc(text, func(match string) string {
		sub := referenceRe.FindStringSubmatch(match)
		var attr, quote, ref string
		isURLFunc := sub[1] == ""
		if isURLFunc {
			quote = sub[4]
			ref = sub[5]
		} else {
			attr = sub[1]
			quote = sub[2]
			ref = sub[3]
		}

		if shouldSkip(ref) {
			return match
		}

		a, ok := e.assets[ref]
		if !ok {
			warnings = append(warnings, &builderrors.UnknownAssetReference{Ref: ref})
			return match
		}

		checkSniff(e.logger, a)

		dataURI := "data:" + a.MIME + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
		if isURLFunc {
			return "url(" + quote + dataURI + quote + ")"
		}
		return attr + "=" + quote + dataURI + quote
	})

	return out, warnings
}

func shouldSkip(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return true
	}
	if strings.HasPrefix(ref, "#") {
		return true
	}
	if strings.HasPrefix(ref, "data:") {
		return true
	}
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//")
}

// checkSniff cross-checks the extension-inferred MIME type against a
// content sniff and logs a debug-level diagnostic on mismatch. This never
// changes the authoritative extension-based MIME type.
func checkSniff(logger *slog.Logger, a Asset) {
	sniffed := mimetype.Detect(a.Data)
	if sniffed == nil {
		return
	}
	if !sniffed.Is(a.MIME) {
		logger.Debug("asset content does not match extension-inferred MIME type",
			"asset", a.Name, "extension_mime", a.MIME, "sniffed_mime", sniffed.String())
	}
}
