// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/crf/cmd/crf/cli"
	"github.com/bureau-foundation/crf/lib/keystream"
	"github.com/bureau-foundation/crf/lib/sealed"
	"github.com/bureau-foundation/crf/lib/secret"
)

func seedCommand(env *Environment) *cli.Command {
	return &cli.Command{
		Name:    "seed",
		Summary: "Create key material for enciphered archives",
		Description: `Create age identities and age-sealed seeds.

A sealed seed is a random seed encrypted to one or more age recipients.
Pass it to archive commands with --seed-age FILE --identity KEY, so the
raw seed never needs to be stored in the clear.`,
		Subcommands: []*cli.Command{
			seedKeygenCommand(env),
			seedGenerateCommand(env),
		},
		Examples: []cli.Example{
			{
				Description: "Create an identity and a seed sealed to it",
				Command:     "crf seed keygen -o key.txt && crf seed generate -o seed.age --recipient age1...",
			},
		},
	}
}

func seedKeygenCommand(env *Environment) *cli.Command {
	var output string

	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate an age identity",
		Description: `Generate an age x25519 identity. The private key is written to the
output file (mode 0600); the public recipient is printed to stdout.`,
		Usage: "crf seed keygen -o FILE",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", "", "identity file to create (required)")
			return flagSet
		},
		Run: func(args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			keypair, err := sealed.GenerateKeypair()
			if err != nil {
				return err
			}
			defer keypair.Close()

			contents := fmt.Appendf(nil, "# public key: %s\n%s\n", keypair.PublicKey, keypair.PrivateKey.Bytes())
			defer secret.Zero(contents)
			if err := writeNewFile(output, contents); err != nil {
				return err
			}
			fmt.Fprintln(env.Stdout, keypair.PublicKey)
			return nil
		},
	}
}

func seedGenerateCommand(env *Environment) *cli.Command {
	var (
		output     string
		recipients []string
		size       int
	)

	return &cli.Command{
		Name:    "generate",
		Summary: "Generate a random seed sealed to age recipients",
		Usage:   "crf seed generate -o FILE --recipient age1... [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("generate", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", "", "sealed seed file to create, - for stdout (required)")
			flagSet.StringArrayVar(&recipients, "recipient", nil, "age recipient (repeatable)")
			flagSet.IntVar(&size, "size", keystream.DerivedSeedSize, "seed length in bytes")
			return flagSet
		},
		Run: func(args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			if len(recipients) == 0 {
				return fmt.Errorf("at least one --recipient is required")
			}
			if size < keystream.MinSeedSize || size > keystream.MaxSeedSize {
				return fmt.Errorf("--size must be between %d and %d", keystream.MinSeedSize, keystream.MaxSeedSize)
			}
			for _, recipient := range recipients {
				if err := sealed.ParsePublicKey(recipient); err != nil {
					return err
				}
			}

			seed, err := secret.New(size)
			if err != nil {
				return err
			}
			defer seed.Close()
			if _, err := io.ReadFull(rand.Reader, seed.Bytes()); err != nil {
				return fmt.Errorf("generating seed: %w", err)
			}

			if output == "-" {
				return sealed.SealSeed(env.Stdout, seed.Bytes(), recipients)
			}
			file, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if err != nil {
				return err
			}
			if err := sealed.SealSeed(file, seed.Bytes(), recipients); err != nil {
				file.Close()
				os.Remove(output)
				return err
			}
			return file.Close()
		},
	}
}

// writeNewFile creates path with mode 0600, refusing to overwrite.
func writeNewFile(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}
