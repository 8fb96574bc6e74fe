// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/crf/cmd/crf/cli"
	"github.com/bureau-foundation/crf/lib/config"
	"github.com/bureau-foundation/crf/lib/crf"
	"github.com/bureau-foundation/crf/lib/keystream"
	"github.com/bureau-foundation/crf/lib/sealed"
	"github.com/bureau-foundation/crf/lib/secret"
)

// archiveFlags are the configuration and key material flags shared by
// every command that opens an archive.
type archiveFlags struct {
	configPath string
	seedFile   string
	seedAge    string
	identity   string
	passphrase bool
}

func (a *archiveFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&a.configPath, "config", "", "YAML config file (default $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&a.seedFile, "seed-file", "", "file holding the raw seed bytes (- for stdin)")
	flagSet.StringVar(&a.seedAge, "seed-age", "", "age-encrypted seed file (requires --identity)")
	flagSet.StringVar(&a.identity, "identity", "", "age identity file that decrypts --seed-age")
	flagSet.BoolVar(&a.passphrase, "passphrase", false, "derive the seed from a passphrase read from the terminal")
}

// session is the state an archive command runs with: the loaded
// configuration, the logger built from it, and the resolved seed.
type session struct {
	config *config.Config
	logger *slog.Logger
	seed   *secret.Buffer
}

// start loads configuration and resolves the seed. The caller must
// Close the session.
func (a *archiveFlags) start(env *Environment, command string) (*session, error) {
	var cfg *config.Config
	var err error
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	logger := cli.NewCommandLogger(cfg.SlogLevel(), cfg.Log.Format).With("command", command)

	seed, err := a.resolveSeed(env, cfg)
	if err != nil {
		return nil, err
	}
	return &session{config: cfg, logger: logger, seed: seed}, nil
}

// resolveSeed returns the seed named by the flags, or by the config
// file when no seed flag is set. A nil buffer means no seed.
func (a *archiveFlags) resolveSeed(env *Environment, cfg *config.Config) (*secret.Buffer, error) {
	sources := 0
	for _, set := range []bool{a.seedFile != "", a.seedAge != "", a.passphrase} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, fmt.Errorf("--seed-file, --seed-age and --passphrase are mutually exclusive")
	}

	seedFile, seedAge, identity := a.seedFile, a.seedAge, a.identity
	if sources == 0 {
		seedFile, seedAge = cfg.Seed.File, cfg.Seed.AgeFile
	}
	if identity == "" {
		identity = cfg.Seed.IdentityFile
	}

	switch {
	case a.passphrase:
		return passphraseSeed(env)
	case seedFile != "":
		seed, err := secret.ReadFile(seedFile, keystream.MaxSeedSize)
		if err != nil {
			return nil, fmt.Errorf("reading seed: %w", err)
		}
		return seed, nil
	case seedAge != "":
		if identity == "" {
			return nil, fmt.Errorf("--seed-age requires --identity")
		}
		identityFile, err := sealed.ReadIdentityFile(identity)
		if err != nil {
			return nil, err
		}
		defer identityFile.Close()
		seed, err := sealed.OpenSeedFile(seedAge, identityFile)
		if err != nil {
			return nil, fmt.Errorf("opening sealed seed %s: %w", seedAge, err)
		}
		if seed.Len() > keystream.MaxSeedSize {
			seed.Close()
			return nil, fmt.Errorf("sealed seed %s is larger than %d bytes", seedAge, keystream.MaxSeedSize)
		}
		return seed, nil
	}
	return nil, nil
}

func passphraseSeed(env *Environment) (*secret.Buffer, error) {
	if env.ReadPassphrase == nil {
		return nil, fmt.Errorf("--passphrase is not available here")
	}
	passphrase, err := env.ReadPassphrase("Passphrase: ")
	if err != nil {
		return nil, err
	}
	defer secret.Zero(passphrase)
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("passphrase is empty")
	}

	derived := keystream.DeriveSeed(passphrase)
	defer secret.Zero(derived)
	return secret.NewFromBytes(derived)
}

// open opens the archive at path with the session's seed and config.
func (s *session) open(path string) (*crf.Container, error) {
	var seed []byte
	if s.seed != nil {
		seed = s.seed.Bytes()
	}
	return crf.Open(path, crf.Config{
		Seed:             seed,
		Logger:           s.logger,
		TempDir:          s.config.Paths.TempDir,
		CompressionLevel: s.config.Compression.Level,
	})
}

// Close releases the seed.
func (s *session) Close() {
	if s.seed != nil {
		if err := s.seed.Close(); err != nil {
			s.logger.Warn("releasing seed buffer", "error", err)
		}
	}
}

// lookupEntry resolves name as an alias, falling back to a content id.
func lookupEntry(container *crf.Container, name string) (*crf.Entry, error) {
	if entry, ok := container.Lookup(name); ok {
		return entry, nil
	}
	if entry, ok := container.LookupID(name); ok {
		return entry, nil
	}
	return nil, fmt.Errorf("%s: no entry with alias or content id %q", container.Path(), name)
}
