// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/crf/cmd/crf/cli"
	"github.com/bureau-foundation/crf/lib/codec"
	"github.com/bureau-foundation/crf/lib/crf"
)

func listCommand(env *Environment) *cli.Command {
	var (
		archive    archiveFlags
		outputJSON bool
		outputCBOR bool
		diagnose   bool
	)

	return &cli.Command{
		Name:    "list",
		Summary: "List archive entries",
		Description: `List every entry with its content id, aliases, compression, and sizes.

--json and --cbor emit the full manifest. --cbor writes binary CBOR
(Core Deterministic Encoding) to stdout; add --diagnose to print it in
CBOR diagnostic notation instead.`,
		Usage: "crf list ARCHIVE [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			archive.register(flagSet)
			flagSet.BoolVar(&outputJSON, "json", false, "output the manifest as JSON")
			flagSet.BoolVar(&outputCBOR, "cbor", false, "output the manifest as CBOR")
			flagSet.BoolVar(&diagnose, "diagnose", false, "with --cbor, print diagnostic notation")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive path\n\nUsage: crf list ARCHIVE")
			}
			if outputJSON && outputCBOR {
				return fmt.Errorf("--json and --cbor are mutually exclusive")
			}
			if diagnose && !outputCBOR {
				return fmt.Errorf("--diagnose requires --cbor")
			}

			session, err := archive.start(env, "list")
			if err != nil {
				return err
			}
			defer session.Close()

			container, err := session.open(args[0])
			if err != nil {
				return err
			}
			manifest, err := container.Manifest()
			if err != nil {
				return err
			}

			switch {
			case outputJSON:
				return cli.WriteJSON(env.Stdout, manifest)
			case outputCBOR:
				return writeCBOR(env.Stdout, manifest, diagnose)
			case isTerminal(env.Stdout):
				return writeStyledTable(env.Stdout, manifest)
			default:
				return writePlainTable(env.Stdout, manifest)
			}
		},
	}
}

func writeCBOR(w io.Writer, manifest *crf.Manifest, diagnose bool) error {
	data, err := codec.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if !diagnose {
		_, err = w.Write(data)
		return err
	}
	notation, err := codec.Diagnose(data)
	if err != nil {
		return fmt.Errorf("diagnosing manifest: %w", err)
	}
	_, err = fmt.Fprintln(w, notation)
	return err
}

var listHeaders = []string{"CONTENT ID", "GZIP", "LENGTH", "STORED", "ALIASES"}

func manifestRows(manifest *crf.Manifest) [][]string {
	rows := make([][]string, 0, len(manifest.Entries))
	for _, entry := range manifest.Entries {
		stored := "-"
		if entry.StoredLength > 0 {
			stored = strconv.FormatInt(entry.StoredLength, 10)
		}
		gzipped := "no"
		if entry.Compressed {
			gzipped = "yes"
		}
		rows = append(rows, []string{
			entry.ContentID[:16],
			gzipped,
			strconv.FormatInt(entry.Length, 10),
			stored,
			strings.Join(entry.Aliases, ", "),
		})
	}
	return rows
}

func writePlainTable(w io.Writer, manifest *crf.Manifest) error {
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, strings.Join(listHeaders, "\t"))
	for _, row := range manifestRows(manifest) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func writeStyledTable(w io.Writer, manifest *crf.Manifest) error {
	renderer := lipgloss.NewRenderer(w)
	headerStyle := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	idStyle := renderer.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	cellStyle := renderer.NewStyle().Padding(0, 1)

	rendered := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(renderer.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(listHeaders...).
		Rows(manifestRows(manifest)...).
		StyleFunc(func(row, column int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case column == 0:
				return idStyle
			default:
				return cellStyle
			}
		}).
		Render()

	encryption := "plain"
	if manifest.Encrypted {
		encryption = "enciphered"
	}
	summary := renderer.NewStyle().Faint(true).Render(
		fmt.Sprintf("%s  version %d  %s  %d entries", manifest.Path, manifest.Version, encryption, len(manifest.Entries)))

	_, err := fmt.Fprintf(w, "%s\n%s\n", rendered, summary)
	return err
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
