// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/crf/cmd/crf/cli"
)

func catCommand(env *Environment) *cli.Command {
	var archive archiveFlags

	return &cli.Command{
		Name:    "cat",
		Summary: "Write one entry to stdout",
		Description: `Write the decompressed bytes of one entry to stdout. NAME is an alias
or a full content id.`,
		Usage: "crf cat ARCHIVE NAME [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cat", pflag.ContinueOnError)
			archive.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected an archive path and an entry name\n\nUsage: crf cat ARCHIVE NAME")
			}

			session, err := archive.start(env, "cat")
			if err != nil {
				return err
			}
			defer session.Close()

			container, err := session.open(args[0])
			if err != nil {
				return err
			}
			entry, err := lookupEntry(container, args[1])
			if err != nil {
				return err
			}

			reader, err := entry.Open()
			if err != nil {
				return err
			}
			defer reader.Close()
			if _, err := io.Copy(env.Stdout, reader); err != nil {
				return fmt.Errorf("reading %s: %w", args[1], err)
			}
			return nil
		},
	}
}
