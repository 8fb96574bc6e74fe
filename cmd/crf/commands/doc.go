// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the crf command tree.
//
// Every command that opens an archive shares the same key material
// flags (--seed-file, --seed-age with --identity, --passphrase) and
// --config. Flags take precedence over the seed section of the config
// file; at most one seed source may be given on the command line.
//
// Commands write results to [Environment.Stdout] and diagnostics to
// the structured logger on stderr, so tests drive the whole tree with
// in-memory buffers.
package commands
