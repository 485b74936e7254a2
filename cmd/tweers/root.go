package main

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/tweers-project/tweers/internal/logging"
	"github.com/tweers-project/tweers/internal/pipeline"
)

// errUsage marks a cobra argument-validation failure so main can map it
// to the usage-error exit code.
var errUsage = errors.New("usage error")

var debugFlag bool

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tweers",
		Short:         "Compile Twee 3 source into a self-contained HTML story",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       moduleVersion(),
	}

	root.PersistentFlags().BoolVarP(&debugFlag, "is-debug", "t", false, "enable debug diagnostics")

	root.AddCommand(newBuildCommand())
	root.AddCommand(newWatchCommand())
	root.AddCommand(newPackCommand())
	root.AddCommand(newUpdateCommand())

	for _, sub := range root.Commands() {
		if validate := sub.Args; validate != nil {
			sub.Args = func(cmd *cobra.Command, args []string) error {
				if err := validate(cmd, args); err != nil {
					return fmt.Errorf("%w: %v", errUsage, err)
				}
				return nil
			}
		}
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	return root
}

func moduleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "dev"
	}
	return info.Main.Version
}

func init() {
	pipeline.CreatorVersion = moduleVersion()
}

func newLogger() *slog.Logger {
	return logging.New(logging.Options{Debug: debugFlag})
}
