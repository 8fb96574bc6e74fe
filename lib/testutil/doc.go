// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for archive packages.
//
// [Compressible] and [Incompressible] build deterministic payloads on
// either side of gzip's usefulness, so tests can check the stored
// compression tag and sizes without depending on random input.
//
// [WriteFile] and [ReadAllAndClose] cover the file setup and stream
// draining that nearly every archive test repeats.
//
// [RequireFUSE] skips a test when /dev/fuse is absent, and
// [MountDir] creates a short mountpoint directory outside the
// build system's nested temp tree.
//
// [UniqueAlias] generates distinct entry names for tests that add many
// entries.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no module-internal dependencies.
package testutil
