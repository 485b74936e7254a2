package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tweers-project/tweers/internal/builderrors"
	"github.com/tweers-project/tweers/internal/buildmodel"
	"github.com/tweers-project/tweers/internal/pipeline"
)

func newBuildCommand() *cobra.Command {
	var (
		output      string
		start       string
		base64Embed bool
		watchFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "build <source_dir>",
		Short: "Compile a Twee 3 source tree into a self-contained HTML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceDir := args[0]
			logger := newLogger()

			if watchFlag {
				return runWatchLoop(cmd.Context(), sourceDir, output, start, base64Embed, logger, false)
			}
			return runBuildOnce(cmd.Context(), sourceDir, output, start, base64Embed, logger)
		},
	}

	cmd.Flags().StringVarP(&output, "output-path", "o", "output.html", "output HTML file path")
	cmd.Flags().StringVarP(&start, "start-passage", "s", "", "override the start passage")
	cmd.Flags().BoolVarP(&base64Embed, "base64", "b", false, "embed binary assets as data: URIs")
	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "rebuild automatically on source changes")

	return cmd
}

func runBuildOnce(ctx context.Context, sourceDir, output, start string, base64Embed bool, logger *slog.Logger) error {
	sources, err := pipeline.CollectSources(sourceDir, base64Embed, nil)
	if err != nil {
		return err
	}

	cfg := buildmodel.BuildConfig{
		Sources:              sources,
		Base64Embed:          base64Embed,
		StartPassageOverride: start,
		FormatSearchRoot:     sourceDir,
		HookDataDir:          "scripts/data",
		HookHTMLDir:          "scripts/html",
		Debug:                debugFlag,
	}

	result, err := pipeline.Build(ctx, cfg)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		var unknownRef *builderrors.UnknownAssetReference
		if errors.As(w, &unknownRef) {
			logger.Debug("build warning", "warning", w.Error())
			continue
		}
		logger.Info("build warning", "warning", w.Error())
	}

	if err := os.WriteFile(output, []byte(result.HTML), 0o644); err != nil {
		return err
	}
	logger.Info("build complete", "output", output)
	return nil
}
