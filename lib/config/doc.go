// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the crf
// command.
//
// Configuration is loaded from a single file named by either the
// CRF_CONFIG environment variable (via [Load]) or a --config flag (via
// [LoadFile]). There are no fallbacks, no ~/.config discovery, and no
// automatic file search. Without a file, the command runs on
// [Default] values.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No environment
// variable overrides a config value directly.
//
// Key exports:
//
//   - [Config] -- master struct with Compression, Paths, Log, Seed, Mount
//   - [Default] -- returns a Config with built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package has no module-internal dependencies.
package config
