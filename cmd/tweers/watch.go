package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tweers-project/tweers/internal/api"
	"github.com/tweers-project/tweers/internal/buildmodel"
	"github.com/tweers-project/tweers/internal/pipeline"
	"github.com/tweers-project/tweers/internal/watch"
)

func newWatchCommand() *cobra.Command {
	var (
		output      string
		start       string
		base64Embed bool
		serve       bool
		port        int
	)

	cmd := &cobra.Command{
		Use:   "watch <source_dir>",
		Short: "Watch a source tree and rebuild on change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			return runWatchLoop(cmd.Context(), args[0], output, start, base64Embed, logger, serve, port)
		},
	}

	cmd.Flags().StringVarP(&output, "output-path", "o", "output.html", "output HTML file path")
	cmd.Flags().StringVarP(&start, "start-passage", "s", "", "override the start passage")
	cmd.Flags().BoolVarP(&base64Embed, "base64", "b", false, "embed binary assets as data: URIs")
	cmd.Flags().BoolVar(&serve, "serve", false, "also run the dev HTTP/websocket server")
	cmd.Flags().IntVar(&port, "port", 8080, "dev server port, used only with --serve")

	return cmd
}

// runWatchLoop drives internal/watch.Watcher, writing every successful
// rebuild to output and, when serve is true, fronting it with
// internal/api's dev server so a browser tab gets live websocket
// notifications.
func runWatchLoop(ctx context.Context, sourceDir, output, start string, base64Embed bool, logger *slog.Logger, serve bool, port ...int) error {
	buildFn := func(ctx context.Context) (buildmodel.BuildResult, error) {
		sources, err := pipeline.CollectSources(sourceDir, base64Embed, nil)
		if err != nil {
			return buildmodel.BuildResult{}, err
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
			return buildmodel.BuildResult{}, err
		}
		if werr := os.WriteFile(output, []byte(result.HTML), 0o644); werr != nil {
			return buildmodel.BuildResult{}, werr
		}
		return result, nil
	}

	w, err := watch.New([]string{sourceDir}, buildFn, logger)
	if err != nil {
		return err
	}

	watchCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w.Start(watchCtx)
	logger.Info("watching for changes", "source_dir", sourceDir)

	if serve && len(port) > 0 {
		srv := api.New(api.Config{Port: port[0], EnableCORS: true, Debug: debugFlag, Logger: logger})
		srv.AttachWatcher(w)
		go func() {
			if err := srv.Run(); err != nil {
				logger.Error("dev server stopped", "error", err)
			}
		}()
	}

	<-watchCtx.Done()
	return w.Stop()
}
