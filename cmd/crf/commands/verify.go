// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/crf/cmd/crf/cli"
)

func verifyCommand(env *Environment) *cli.Command {
	var archive archiveFlags

	return &cli.Command{
		Name:    "verify",
		Summary: "Check every entry against its content id",
		Description: `Load the archive, which checks its structure and trailer, then rehash
every entry's decompressed bytes and compare with its content id.

Exits 1 after listing the entries that fail.`,
		Usage: "crf verify ARCHIVE [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("verify", pflag.ContinueOnError)
			archive.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive path\n\nUsage: crf verify ARCHIVE")
			}

			session, err := archive.start(env, "verify")
			if err != nil {
				return err
			}
			defer session.Close()

			container, err := session.open(args[0])
			if err != nil {
				return err
			}

			entries := container.Entries()
			failures := 0
			for _, entry := range entries {
				if err := entry.Verify(); err != nil {
					failures++
					fmt.Fprintf(env.Stdout, "FAIL %s: %v\n", strings.Join(entry.Aliases(), ", "), err)
				}
			}
			if failures > 0 {
				fmt.Fprintf(env.Stdout, "%d of %d entries failed verification\n", failures, len(entries))
				return &cli.ExitError{Code: 1}
			}
			fmt.Fprintf(env.Stdout, "ok: %d entries verified\n", len(entries))
			return nil
		},
	}
}
