// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/crf/cmd/crf/cli"
	"github.com/bureau-foundation/crf/lib/crf"
)

func extractCommand(env *Environment) *cli.Command {
	var (
		archive archiveFlags
		output  string
		force   bool
	)

	return &cli.Command{
		Name:    "extract",
		Summary: "Write every entry to a directory",
		Description: `Write each alias of each entry as a file under the output directory.
Aliases with "/" become subdirectories. Aliases that are not local
relative paths (absolute, or climbing out with "..") are skipped with a
warning. Existing files are left alone unless --force is given.`,
		Usage: "crf extract ARCHIVE [-o DIR] [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("extract", pflag.ContinueOnError)
			archive.register(flagSet)
			flagSet.StringVarP(&output, "output", "o", ".", "output directory")
			flagSet.BoolVar(&force, "force", false, "overwrite existing files")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive path\n\nUsage: crf extract ARCHIVE -o DIR")
			}

			session, err := archive.start(env, "extract")
			if err != nil {
				return err
			}
			defer session.Close()

			container, err := session.open(args[0])
			if err != nil {
				return err
			}

			written := 0
			for _, entry := range container.Entries() {
				for _, alias := range entry.Aliases() {
					relative := filepath.FromSlash(alias)
					if !filepath.IsLocal(relative) {
						session.logger.Warn("skipping alias that is not a local path", "alias", alias)
						continue
					}
					if err := extractEntry(entry, filepath.Join(output, relative), force); err != nil {
						return fmt.Errorf("extracting %s: %w", alias, err)
					}
					written++
				}
			}

			session.logger.Debug("extraction complete", "files", written, "output", output)
			fmt.Fprintf(env.Stdout, "extracted %d files to %s\n", written, output)
			return nil
		},
	}
}

// extractEntry writes entry's bytes to target. The file is removed if
// the copy fails partway.
func extractEntry(entry *crf.Entry, target string, force bool) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	file, err := os.OpenFile(target, flags, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s exists (use --force to overwrite)", target)
	}
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(target)
		}
	}()

	reader, err := entry.Open()
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = io.Copy(file, reader)
	return err
}
