// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command crf packs, inspects, verifies, and mounts resource archives.
package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/crf/cmd/crf/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that report their own failures (like verify) return
		// an error carrying the exit code. Don't print a redundant
		// "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root(commands.DefaultEnvironment()).Execute(os.Args[1:])
}
