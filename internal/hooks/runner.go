// Package hooks implements the HookRunner stage: running
// user-supplied data-stage and html-stage scripts in a sandboxed
// interpreter, each script's return value replacing the running input.
//
// No JavaScript engine exists anywhere in the retrieval corpus, so the
// sandbox is grounded on the one embeddable host-scripting substrate the
// corpus does carry: gravwell's plugin system
// (ingest/processors/plugin/plugin.go), which builds and runs untrusted
// Go-dialect source through github.com/open2b/scriggo with a native
// package of host-bound declarations. HookRunner follows the same shape —
// a native package exposing Input/Format/Console to the script and a
// registration-style callback (SetResult) the script calls to hand back
// its output — substituting scriggo's Go dialect for gravwell's plugin
// programs.
package hooks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/open2b/scriggo"
	"github.com/open2b/scriggo/native"

	"github.com/tweers-project/tweers/internal/builderrors"
)

// Phase identifies which pipeline stage a script set belongs to: hooks
// run at the data stage, after StoryDataResolver and before HtmlEmitter,
// and at the html stage, after HtmlEmitter.
type Phase string

const (
	PhaseData Phase = "data"
	PhaseHTML Phase = "html"
)

// Script is one hook script's source, named for diagnostics.
type Script struct {
	Path   string
	Source []byte
}

// LoadScripts reads every file directly under dir (no recursion) as a
// Script, sorted lexicographically by filename so phase execution order is
// deterministic.
func LoadScripts(dir string) ([]Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &builderrors.IoError{Path: dir, Err: err}
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scripts := make([]Script, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &builderrors.IoError{Path: path, Err: err}
		}
		scripts = append(scripts, Script{Path: path, Source: data})
	}
	return scripts, nil
}

// FormatView is the read-only format information exposed to hook scripts.
type FormatView struct {
	Name    string
	Version string
}

// PassageRecord is the writable, script-facing shape of one passage
// during the data phase: a mapping from passage name to a Passage-shaped
// object whose content, tags, and name fields are writable.
type PassageRecord struct {
	Name    string
	Tags    []string
	Content string
}

// DataView is the data-phase `input` global: a mapping from passage name
// to its mutable record. A script's return value (or its mutation of the
// map in place) replaces the pipeline's working passage set.
type DataView map[string]*PassageRecord

// Runner executes hook scripts with a bounded wall-clock deadline per
// script.
type Runner struct {
	Timeout time.Duration
}

// NewRunner builds a Runner; a non-positive timeout falls back to a
// default of 10 seconds.
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Runner{Timeout: timeout}
}

// Run executes scripts sequentially within one phase. Each script gets a
// fresh interpreter context (its own scriggo.Build/Run); the return value
// of one script becomes the input to the next. Console output from every
// script in the phase is collected and returned for logging by the
// caller.
func (r *Runner) Run(ctx context.Context, phase Phase, scripts []Script, input any, format FormatView) (any, []string, error) {
	var logs []string
	current := input
	for _, s := range scripts {
		out, scriptLogs, err := r.runOne(ctx, s, current, format)
		logs = append(logs, scriptLogs...)
		if err != nil {
			return nil, logs, err
		}
		current = out
	}
	return current, logs, nil
}

func (r *Runner) runOne(ctx context.Context, s Script, input any, format FormatView) (result any, logs []string, err error) {
	var (
		output    any
		hasOutput bool
	)

	setResult := func(v any) { output = v; hasOutput = true }
	consoleLog := func(args ...any) { logs = append(logs, fmt.Sprint(args...)) }

	pkgs := native.Packages{
		"hook": native.Package{
			Name: "hook",
			Declarations: native.Declarations{
				"Input":      &input,
				"Format":     &format,
				"SetResult":  setResult,
				"ConsoleLog": consoleLog,
			},
		},
	}

	fsys := scriggo.Files{"main.go": s.Source}
	prog, buildErr := scriggo.Build(fsys, &scriggo.BuildOptions{Packages: pkgs})
	if buildErr != nil {
		return nil, logs, &builderrors.HookFailed{Path: s.Path, Msg: buildErr.Error()}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("panic: %v", rec)
			}
		}()
		done <- prog.Run(&scriggo.RunOptions{Context: runCtx})
	}()

	select {
	case runErr := <-done:
		if runErr != nil {
			return nil, logs, &builderrors.HookFailed{Path: s.Path, Msg: runErr.Error()}
		}
	case <-runCtx.Done():
		return nil, logs, &builderrors.HookTimeout{Path: s.Path}
	}

	if !hasOutput {
		return input, logs, nil
	}
	return output, logs, nil
}
