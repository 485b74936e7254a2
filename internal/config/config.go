// Package config loads the optional tweers.toml project configuration:
// script directories, the story-format search path, and the hook
// timeout. Decoding uses BurntSushi/toml's decode-with-metadata so
// unrecognized keys warn instead of failing the build, keeping older
// config files forward-compatible with newer schema additions.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the decoded shape of tweers.toml. Every field has a
// zero-value default that Resolve overrides only when the caller's CLI
// flags left it unset — flags always win over the file, and the file
// always wins over these compiled-in defaults.
type Config struct {
	FormatSearchRoot string `toml:"format_search_root"`
	HookDataDir      string `toml:"hook_data_dir"`
	HookHTMLDir      string `toml:"hook_html_dir"`
	HookTimeoutSecs  int    `toml:"hook_timeout_seconds"`
	Base64Embed      bool   `toml:"base64_embed"`
	OutputPath       string `toml:"output_path"`
}

// Defaults returns the compiled-in fallback configuration.
func Defaults() Config {
	return Config{
		FormatSearchRoot: ".",
		HookDataDir:      "scripts/data",
		HookHTMLDir:      "scripts/html",
		HookTimeoutSecs:  10,
		OutputPath:       "output.html",
	}
}

// LoadFromFile reads and decodes a tweers.toml file. A missing file is
// returned as an error wrapping fs.ErrNotExist, like any other read or
// parse failure; callers that treat the file as optional check for that
// with errors.Is and fall back to Defaults().
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	warnUndecodedKeys(meta, path)
	return cfg, nil
}

func warnUndecodedKeys(meta toml.MetaData, source string) {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return
	}
	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}
	slog.Warn("unknown config keys will be ignored", "source", source, "keys", strings.Join(keys, ", "))
}

// Overrides carries CLI flag values; a field's zero value means "not
// passed on the command line" and therefore yields to the file/default
// layer beneath it.
type Overrides struct {
	FormatSearchRoot *string
	HookDataDir      *string
	HookHTMLDir      *string
	HookTimeoutSecs  *int
	Base64Embed      *bool
	OutputPath       *string
}

// Resolve layers flags over file over defaults (the design:
// "flags win > file > defaults").
func Resolve(file Config, overrides Overrides) Config {
	cfg := Defaults()
	merge(&cfg, file)

	if overrides.FormatSearchRoot != nil {
		cfg.FormatSearchRoot = *overrides.FormatSearchRoot
	}
	if overrides.HookDataDir != nil {
		cfg.HookDataDir = *overrides.HookDataDir
	}
	if overrides.HookHTMLDir != nil {
		cfg.HookHTMLDir = *overrides.HookHTMLDir
	}
	if overrides.HookTimeoutSecs != nil {
		cfg.HookTimeoutSecs = *overrides.HookTimeoutSecs
	}
	if overrides.Base64Embed != nil {
		cfg.Base64Embed = *overrides.Base64Embed
	}
	if overrides.OutputPath != nil {
		cfg.OutputPath = *overrides.OutputPath
	}
	return cfg
}

// merge overlays non-zero fields of file onto cfg.
func merge(cfg *Config, file Config) {
	if file.FormatSearchRoot != "" {
		cfg.FormatSearchRoot = file.FormatSearchRoot
	}
	if file.HookDataDir != "" {
		cfg.HookDataDir = file.HookDataDir
	}
	if file.HookHTMLDir != "" {
		cfg.HookHTMLDir = file.HookHTMLDir
	}
	if file.HookTimeoutSecs != 0 {
		cfg.HookTimeoutSecs = file.HookTimeoutSecs
	}
	if file.Base64Embed {
		cfg.Base64Embed = true
	}
	if file.OutputPath != "" {
		cfg.OutputPath = file.OutputPath
	}
}
