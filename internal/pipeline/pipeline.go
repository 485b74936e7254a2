// Package pipeline orchestrates the full build: FileCollector output in,
// self-contained HTML out, wiring every other internal/ stage together in
// this order:
//
//	source dir -> FileCollector -> {Tokenizer -> PassageAssembler}* ->
//	passage map + StoryDataResolver -> FormatLoader -> (AssetEmbedder)
//	-> HookRunner[data] -> HtmlEmitter -> HookRunner[html] -> output HTML
//
// The FormatLoader runs in Build, before BuildFromParsed, because
// BuildFromParsed never reads from disk.
package pipeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tweers-project/tweers/internal/asset"
	"github.com/tweers-project/tweers/internal/builderrors"
	"github.com/tweers-project/tweers/internal/buildmodel"
	"github.com/tweers-project/tweers/internal/collector"
	"github.com/tweers-project/tweers/internal/emitter"
	"github.com/tweers-project/tweers/internal/format"
	"github.com/tweers-project/tweers/internal/hooks"
	"github.com/tweers-project/tweers/internal/passage"
	"github.com/tweers-project/tweers/internal/storydata"
	"github.com/tweers-project/tweers/internal/tokenizer"
)

// CreatorVersion is stamped into every emitted <tw-storydata
// creator-version="..."> attribute. cmd/tweers overrides it at init time
// from debug.BuildInfo.
var CreatorVersion = "dev"

type parsed struct {
	order      []string
	canonical  map[string]*buildmodel.Passage
	candidates []storydata.Candidate
	title      string
	hasTitle   bool
	warnings   []error
}

func collectPassages(sources []buildmodel.InputSource) (parsed, error) {
	var p parsed
	p.canonical = map[string]*buildmodel.Passage{}
	seen := map[string]bool{}

	for _, src := range sources {
		if src.Kind != buildmodel.SourceText {
			continue
		}
		raws, warnings, err := tokenizer.Tokenize(src.Name, src.Text)
		if err != nil {
			return parsed{}, err
		}
		p.warnings = append(p.warnings, warnings...)

		for _, raw := range raws {
			if raw.Name == "StoryData" {
				p.candidates = append(p.candidates, storydata.Candidate{File: src.Name, Content: raw.Body})
			}
			if raw.Name == "StoryTitle" && !p.hasTitle {
				p.title = strings.TrimSpace(raw.Body)
				p.hasTitle = true
			}
			assembled := passage.Assemble(raw, src.Name)
			if !seen[assembled.Name] {
				seen[assembled.Name] = true
				p.order = append(p.order, assembled.Name)
			}
			p.canonical[assembled.Name] = assembled
		}
	}
	return p, nil
}

// Parse implements `parse(sources) -> ParseOutput`: strict
// StoryData resolution, no format file is loaded.
func Parse(sources []buildmodel.InputSource) (buildmodel.ParseOutput, error) {
	p, err := collectPassages(sources)
	if err != nil {
		return buildmodel.ParseOutput{}, err
	}

	sd, warnings, err := storydata.Resolve(p.candidates)
	if err != nil {
		return buildmodel.ParseOutput{}, err
	}

	// Twee 3 convention: StoryData rarely carries a name, and the reserved
	// StoryTitle passage is the normal source of the story's display name.
	if sd.Name == "" && p.hasTitle {
		sd.Name = p.title
	}

	return buildmodel.ParseOutput{
		Passages:   p.canonical,
		StoryData:  sd,
		FormatInfo: buildmodel.StoryFormatInfo{Name: sd.Format, Version: sd.FormatVersion},
		Order:      p.order,
		Warnings:   append(p.warnings, warnings...),
	}, nil
}

// Passages implements `passages(sources) -> Map<name, Passage>`:
// tolerant of a missing or malformed StoryData, for editor tooling
// that only needs the passage set.
func Passages(sources []buildmodel.InputSource) (map[string]*buildmodel.Passage, error) {
	p, err := collectPassages(sources)
	if err != nil {
		return nil, err
	}
	return p.canonical, nil
}

func collectAssets(sources []buildmodel.InputSource) []asset.Asset {
	var assets []asset.Asset
	for _, src := range sources {
		if src.Kind == buildmodel.SourceBytes {
			assets = append(assets, asset.Asset{Name: src.Name, MIME: src.MIME, Data: src.Bytes})
		}
	}
	return assets
}

// BuildFromParsed implements `build_from_parsed(ParseOutput with
// format_info.source filled) -> {html}`: it never re-reads from
// disk.
func BuildFromParsed(ctx context.Context, po buildmodel.ParseOutput, cfg buildmodel.BuildConfig) (buildmodel.BuildResult, error) {
	if po.FormatInfo.Source == "" {
		return buildmodel.BuildResult{}, &builderrors.FormatSourceMissing{Path: "<parsed>"}
	}

	warnings := append([]error{}, po.Warnings...)

	order := po.Order
	if order == nil {
		order = sortedNames(po.Passages)
	}

	if cfg.Base64Embed {
		assets := collectAssets(cfg.Sources)
		if len(assets) > 0 {
			embedder := asset.New(assets, nil)
			for _, name := range order {
				pg, ok := po.Passages[name]
				if !ok {
					continue
				}
				rewritten, warn := embedder.Rewrite(pg.Content)
				pg.Content = rewritten
				warnings = append(warnings, warn...)
			}
		}
	}

	timeout := time.Duration(cfg.HookTimeoutSeconds) * time.Second
	runner := hooks.NewRunner(timeout)
	formatView := hooks.FormatView{Name: po.FormatInfo.Name, Version: po.FormatInfo.Version}

	if dataScripts, err := hooks.LoadScripts(cfg.HookDataDir); err != nil {
		return buildmodel.BuildResult{}, err
	} else if len(dataScripts) > 0 {
		dataView := toDataView(po.Passages)
		result, logs, err := runner.Run(ctx, hooks.PhaseData, dataScripts, dataView, formatView)
		_ = logs
		if err != nil {
			return buildmodel.BuildResult{}, err
		}
		if view, ok := result.(hooks.DataView); ok {
			applyDataView(po.Passages, &order, view)
		}
	}

	startName, err := storydata.ResolveStart(cfg.StartPassageOverride, po.StoryData, po.Passages)
	if err != nil {
		return buildmodel.BuildResult{}, err
	}

	emitPassages, startPid := buildEmitOrder(order, po.Passages, startName)

	html := emitter.Compose(po.FormatInfo.Source, emitPassages, emitter.Options{
		StoryName:      po.StoryData.Name,
		StoryData:      po.StoryData,
		StartPid:       startPid,
		CreatorVersion: CreatorVersion,
		Debug:          cfg.Debug,
	})

	if htmlScripts, err := hooks.LoadScripts(cfg.HookHTMLDir); err != nil {
		return buildmodel.BuildResult{}, err
	} else if len(htmlScripts) > 0 {
		result, logs, err := runner.Run(ctx, hooks.PhaseHTML, htmlScripts, html, formatView)
		_ = logs
		if err != nil {
			return buildmodel.BuildResult{}, err
		}
		if s, ok := result.(string); ok {
			html = s
		}
	}

	return buildmodel.BuildResult{HTML: html, Warnings: warnings}, nil
}

// Build implements `build(BuildConfig) -> {html}`: it loads the
// format file from FormatSearchRoot unless cfg.FormatInfo already
// supplies source text.
func Build(ctx context.Context, cfg buildmodel.BuildConfig) (buildmodel.BuildResult, error) {
	po, err := Parse(cfg.Sources)
	if err != nil {
		return buildmodel.BuildResult{}, err
	}

	if cfg.FormatInfo != nil {
		po.FormatInfo = *cfg.FormatInfo
	}

	if po.FormatInfo.Source == "" {
		loaded, err := format.Load(cfg.FormatSearchRoot, po.FormatInfo.Name, po.FormatInfo.Version)
		if err != nil {
			return buildmodel.BuildResult{}, err
		}
		po.FormatInfo = loaded
	}

	return BuildFromParsed(ctx, po, cfg)
}

func sortedNames(passages map[string]*buildmodel.Passage) []string {
	names := make([]string, 0, len(passages))
	for n := range passages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// buildEmitOrder returns every passage in emission order, assigning
// sequential pids to non-reserved passages only (reserved passages carry
// Pid 0) and reporting the pid of startName. Reserved passages are kept
// in the returned list — rather than dropped — so a stylesheet- or
// script-tagged reserved passage still reaches emitter.Compose's
// aggregation step; Compose itself omits them from <tw-passagedata>.
func buildEmitOrder(order []string, passages map[string]*buildmodel.Passage, startName string) ([]emitter.Passage, int) {
	var out []emitter.Passage
	startPid := 0
	pid := 0
	for _, name := range order {
		pg, ok := passages[name]
		if !ok {
			continue
		}
		p := emitter.Passage{Passage: pg}
		if !buildmodel.IsReserved(pg) {
			pid++
			p.Pid = pid
			if name == startName {
				startPid = pid
			}
		}
		out = append(out, p)
	}
	return out, startPid
}

func toDataView(passages map[string]*buildmodel.Passage) hooks.DataView {
	view := make(hooks.DataView, len(passages))
	for name, pg := range passages {
		view[name] = &hooks.PassageRecord{Name: pg.Name, Tags: append([]string{}, pg.Tags...), Content: pg.Content}
	}
	return view
}

// applyDataView writes a (possibly hook-mutated) DataView back onto the
// canonical passage map. Passages removed from the view are dropped from
// both the map and the emission order; passages added are appended to
// the end of the order, sorted by name, since the view is a map and
// carries no insertion order.
func applyDataView(passages map[string]*buildmodel.Passage, order *[]string, view hooks.DataView) {
	seen := map[string]bool{}
	var added []string
	for name, rec := range view {
		seen[name] = true
		pg, existed := passages[name]
		if !existed {
			pg = &buildmodel.Passage{Name: name}
			passages[name] = pg
			added = append(added, name)
		}
		pg.Name = rec.Name
		pg.Tags = rec.Tags
		pg.Content = rec.Content
	}
	sort.Strings(added)
	*order = append(*order, added...)
	for name := range passages {
		if !seen[name] {
			delete(passages, name)
		}
	}
	filtered := (*order)[:0]
	for _, name := range *order {
		if seen[name] {
			filtered = append(filtered, name)
		}
	}
	*order = filtered
}

// ListFormats scans root/story-format for installed format envelopes,
// reporting every (name, version) pair it can locate and load via a
// native directory scan.
func ListFormats(root string) ([]buildmodel.StoryFormatInfo, error) {
	names, err := format.DiscoverInstalled(root)
	if err != nil {
		return nil, err
	}
	infos := make([]buildmodel.StoryFormatInfo, 0, len(names))
	for _, n := range names {
		info, err := format.Load(root, n.Name, n.Version)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// CollectSources wires FileCollector into BuildConfig.Sources, the shape
// a filesystem-backed caller (cmd/tweers, internal/watch) actually has on
// hand. It also honors the reserved StoryIncludes passage: once the
// initial walk surfaces one, its body is read as a newline-separated list
// of additional paths or glob patterns (relative to root) and the
// collector is re-run with those entries folded into extraIncludes, so a
// story can pull in files the walk wouldn't otherwise reach.
func CollectSources(root string, base64Embed bool, extraIncludes []string) ([]buildmodel.InputSource, error) {
	sources, err := collector.Collect(root, collector.Options{Base64Embed: base64Embed, ExtraIncludes: extraIncludes})
	if err != nil {
		return nil, err
	}

	storyIncludes, err := storyIncludeEntries(sources)
	if err != nil {
		return nil, err
	}
	if len(storyIncludes) == 0 {
		return sources, nil
	}

	merged := mergeIncludes(extraIncludes, storyIncludes)
	return collector.Collect(root, collector.Options{Base64Embed: base64Embed, ExtraIncludes: merged})
}

// storyIncludeEntries extracts the StoryIncludes passage body, if any, as
// a list of trimmed, non-empty lines.
func storyIncludeEntries(sources []buildmodel.InputSource) ([]string, error) {
	p, err := collectPassages(sources)
	if err != nil {
		return nil, err
	}
	pg, ok := p.canonical["StoryIncludes"]
	if !ok {
		return nil, nil
	}

	var entries []string
	for _, line := range strings.Split(pg.Content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			entries = append(entries, line)
		}
	}
	return entries, nil
}

func mergeIncludes(existing, extra []string) []string {
	seen := map[string]bool{}
	merged := make([]string, 0, len(existing)+len(extra))
	for _, e := range append(append([]string{}, existing...), extra...) {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		merged = append(merged, e)
	}
	return merged
}
