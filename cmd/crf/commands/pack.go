// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/crf/cmd/crf/cli"
	"github.com/bureau-foundation/crf/lib/crf"
)

// listItem is one element of a --list file.
type listItem struct {
	// Path is the file to add. Relative paths resolve against the
	// directory holding the list file.
	Path string `json:"path"`

	// Aliases name the entry. Empty means the file's base name.
	Aliases []string `json:"aliases"`
}

func packCommand(env *Environment) *cli.Command {
	var (
		archive  archiveFlags
		listFile string
		prefix   string
		plain    bool
		level    int
	)

	return &cli.Command{
		Name:    "pack",
		Summary: "Add files to an archive and write it",
		Description: `Add files to an archive, creating it if needed, and write it back
atomically.

A file argument is added under its base name. A directory argument is
walked recursively and each regular file is added under its slash
path relative to that directory. --prefix is prepended to every
generated alias.

--list reads a JSONC file of {"path": ..., "aliases": [...]} objects,
for files that need several aliases or names unrelated to their path.

With a seed the archive is written enciphered; --plain writes it in
the clear even when a seed is given (use it to decrypt an archive).`,
		Usage: "crf pack ARCHIVE [PATH...] [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("pack", pflag.ContinueOnError)
			archive.register(flagSet)
			flagSet.StringVar(&listFile, "list", "", "JSONC file listing paths and aliases to add")
			flagSet.StringVar(&prefix, "prefix", "", "prefix prepended to generated aliases")
			flagSet.BoolVar(&plain, "plain", false, "write without encryption even when a seed is set")
			flagSet.IntVar(&level, "compression-level", 0, "gzip level, -2 (Huffman only) to 9 (default from config)")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Pack a directory under a prefix",
				Command:     "crf pack game.crf ./assets --prefix assets/",
			},
			{
				Description: "Pack from a list file, enciphered with a seed",
				Command:     "crf pack game.crf --list files.jsonc --seed-file seed.bin",
			},
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("archive path required\n\nUsage: crf pack ARCHIVE [PATH...]")
			}
			if len(args) == 1 && listFile == "" {
				return fmt.Errorf("nothing to pack: give paths or --list")
			}

			session, err := archive.start(env, "pack")
			if err != nil {
				return err
			}
			defer session.Close()
			if level != 0 {
				session.config.Compression.Level = level
			}

			container, err := session.open(args[0])
			if err != nil {
				return err
			}
			before := container.Len()

			for _, argument := range args[1:] {
				if err := packPath(container, argument, prefix); err != nil {
					return err
				}
			}
			if listFile != "" {
				if err := packList(container, listFile); err != nil {
					return err
				}
			}

			if plain {
				err = container.WriteWithSeed(nil)
			} else {
				err = container.Write()
			}
			if err != nil {
				return err
			}

			session.logger.Info("archive written",
				"path", container.Path(),
				"entries", container.Len(),
				"new_entries", container.Len()-before,
				"encrypted", container.Encrypted(),
			)
			fmt.Fprintf(env.Stdout, "%s: %d entries (%d new)\n",
				container.Path(), container.Len(), container.Len()-before)
			return nil
		},
	}
}

// packPath adds a file, or every regular file under a directory.
func packPath(container *crf.Container, root, prefix string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		_, err := container.AddFile(root, prefix+filepath.Base(root))
		return err
	}

	return filepath.WalkDir(root, func(current string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		// The archive being written may live inside the packed tree.
		if absolute, err := filepath.Abs(current); err == nil && absolute == container.Path() {
			return nil
		}
		relative, err := filepath.Rel(root, current)
		if err != nil {
			return err
		}
		_, err = container.AddFile(current, prefix+filepath.ToSlash(relative))
		return err
	})
}

// packList adds the files named by a JSONC list file.
func packList(container *crf.Container, listFile string) error {
	data, err := os.ReadFile(listFile)
	if err != nil {
		return fmt.Errorf("reading list: %w", err)
	}
	var items []listItem
	if err := json.Unmarshal(jsonc.ToJSON(data), &items); err != nil {
		return fmt.Errorf("parsing list %s: %w", listFile, err)
	}

	base := filepath.Dir(listFile)
	for i, item := range items {
		if item.Path == "" {
			return fmt.Errorf("list %s item %d: path is required", listFile, i)
		}
		source := item.Path
		if !filepath.IsAbs(source) {
			source = filepath.Join(base, source)
		}
		aliases := item.Aliases
		if len(aliases) == 0 {
			aliases = []string{path.Base(filepath.ToSlash(item.Path))}
		}
		for _, alias := range aliases {
			if _, err := container.AddFile(source, alias); err != nil {
				return fmt.Errorf("list %s item %d: %w", listFile, i, err)
			}
		}
	}
	return nil
}
