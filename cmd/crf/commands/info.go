// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/crf/cmd/crf/cli"
	"github.com/bureau-foundation/crf/lib/crf"
)

// archiveInfo is the summary printed by "crf info".
type archiveInfo struct {
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	Version     int    `json:"version"`
	Encrypted   bool   `json:"encrypted"`
	Entries     int    `json:"entries"`
	Aliases     int    `json:"aliases"`
	Fingerprint string `json:"fingerprint"`
}

func infoCommand(env *Environment) *cli.Command {
	var (
		archive    archiveFlags
		outputJSON bool
	)

	return &cli.Command{
		Name:    "info",
		Summary: "Summarize an archive",
		Description: `Print the archive's format version, encryption, entry and alias
counts, and a BLAKE3 fingerprint of the whole file. The fingerprint
identifies the exact bytes on disk, so two archives with the same
entries written with different seeds have different fingerprints.`,
		Usage: "crf info ARCHIVE [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("info", pflag.ContinueOnError)
			archive.register(flagSet)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive path\n\nUsage: crf info ARCHIVE")
			}

			session, err := archive.start(env, "info")
			if err != nil {
				return err
			}
			defer session.Close()

			container, err := session.open(args[0])
			if err != nil {
				return err
			}
			stat, err := os.Stat(container.Path())
			if err != nil {
				return err
			}
			fingerprint, err := crf.Fingerprint(container.Path())
			if err != nil {
				return err
			}

			info := archiveInfo{
				Path:        container.Path(),
				Size:        stat.Size(),
				Version:     container.Version(),
				Encrypted:   container.Encrypted(),
				Entries:     container.Len(),
				Fingerprint: fingerprint,
			}
			for _, entry := range container.Entries() {
				info.Aliases += len(entry.Aliases())
			}

			if outputJSON {
				return cli.WriteJSON(env.Stdout, info)
			}
			tw := tabwriter.NewWriter(env.Stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "path:\t%s\n", info.Path)
			fmt.Fprintf(tw, "size:\t%d\n", info.Size)
			fmt.Fprintf(tw, "version:\t%d\n", info.Version)
			fmt.Fprintf(tw, "encrypted:\t%t\n", info.Encrypted)
			fmt.Fprintf(tw, "entries:\t%d\n", info.Entries)
			fmt.Fprintf(tw, "aliases:\t%d\n", info.Aliases)
			fmt.Fprintf(tw, "blake3:\t%s\n", info.Fingerprint)
			return tw.Flush()
		},
	}
}
