// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archivefs exposes a resource archive as a read-only FUSE
// filesystem.
//
// The mount has two top-level directories:
//
//   - alias/ holds one file per alias. Aliases containing "/" become
//     nested directories, so an archive packed from a directory tree
//     mounts back as that tree.
//   - id/ holds one file per entry, named by its content id.
//
// The tree is built once, from the container's entries at mount time.
// Entries added to the container afterwards do not appear until the
// archive is mounted again. File reads stream through [crf.Entry.Open];
// sequential reads cost one pass over the payload, and a backwards seek
// reopens the entry.
package archivefs
