// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/crf/cmd/crf/cli"
	"github.com/bureau-foundation/crf/lib/version"
)

// Environment carries the process endpoints commands use.
type Environment struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// ReadPassphrase prompts for and returns a passphrase. The caller
	// zeroes the returned slice.
	ReadPassphrase func(prompt string) ([]byte, error)
}

// DefaultEnvironment returns the process's standard streams and a
// terminal passphrase prompt.
func DefaultEnvironment() *Environment {
	return &Environment{
		Stdin:          os.Stdin,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		ReadPassphrase: terminalPassphrase,
	}
}

// terminalPassphrase reads a passphrase from the controlling terminal
// without echo. The prompt goes to stderr so stdout stays clean for
// piped output.
func terminalPassphrase(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("--passphrase requires an interactive terminal on stdin")
	}
	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	return passphrase, nil
}

// Root returns the top-level crf command with all subcommands.
func Root(env *Environment) *cli.Command {
	var showVersion bool

	return &cli.Command{
		Name:    "crf",
		Summary: "Resource archive tool",
		Description: `Pack, inspect, verify, and mount resource archives (.crf).

An archive holds content-addressed entries, each reachable by one or
more aliases. Entries over 32 bytes are gzip compressed, and the entry
region can be enciphered with a seed supplied via --seed-file,
--seed-age/--identity, or --passphrase.`,
		HelpOutput: env.Stderr,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("crf", pflag.ContinueOnError)
			flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
			return flagSet
		},
		Subcommands: []*cli.Command{
			packCommand(env),
			listCommand(env),
			catCommand(env),
			extractCommand(env),
			verifyCommand(env),
			infoCommand(env),
			mountCommand(env),
			seedCommand(env),
			versionCommand(env),
		},
		Examples: []cli.Example{
			{
				Description: "Pack a directory tree into a new archive",
				Command:     "crf pack assets.crf ./assets",
			},
			{
				Description: "Pack with an age-sealed seed and list the result",
				Command:     "crf list assets.crf --seed-age seed.age --identity key.txt",
			},
			{
				Description: "Print one entry",
				Command:     "crf cat assets.crf textures/grass.png > grass.png",
			},
		},
		Run: func(args []string) error {
			if showVersion {
				fmt.Fprintf(env.Stdout, "crf %s\n", version.Info())
				return nil
			}
			if len(args) > 0 {
				return fmt.Errorf("unknown command %q\n\nRun 'crf --help' for usage.", args[0])
			}
			return fmt.Errorf("subcommand required\n\nRun 'crf --help' for usage.")
		},
	}
}

func versionCommand(env *Environment) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print build information",
		Usage:   "crf version",
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			fmt.Fprintf(env.Stdout, "crf %s\n", version.Full())
			return nil
		},
	}
}
