// Command tweers compiles Twee 3 source trees into self-contained HTML
// story files. Argument parsing, packaging, and self-update are thin
// wrappers outside the compiler core; this package wires them onto the
// native pipeline in internal/pipeline.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tweers-project/tweers/internal/builderrors"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		var ioErr *builderrors.IoError
		if errors.As(err, &ioErr) {
			fmt.Fprintln(os.Stderr, err)
			return 3
		}
		var noRoot *builderrors.NoSuchRoot
		if errors.As(err, &noRoot) {
			fmt.Fprintln(os.Stderr, err)
			return 3
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
