// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the crf
// binary.
//
// Three package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// When GitCommit is not injected, it is filled from the VCS stamp the
// Go toolchain records in the binary, if any.
//
// [Info] formats a one-line string for --version; [Full] adds the Go
// version and platform. The archive format version is separate and
// lives in lib/crf.
package version
