package main

import (
	"errors"

	"github.com/spf13/cobra"
)

// ErrNotImplemented is returned by commands that sit outside the
// compiler core: packaging and self-update are thin external
// collaborators, not part of the Twee-to-HTML build pipeline.
var ErrNotImplemented = errors.New("not implemented: outside the compiler core")

func newPackCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "pack <source_dir>",
		Short:  "Package a built story with its assets into a zip archive",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ErrNotImplemented
		},
	}
}

func newUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "update",
		Short:  "Self-update the tweers binary",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ErrNotImplemented
		},
	}
}
