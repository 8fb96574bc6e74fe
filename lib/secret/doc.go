// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds archive seeds and passphrases in memory that is
// kept out of swap and core dumps.
//
// [Buffer] allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock, and marks it excluded from
// core dumps via madvise(MADV_DONTDUMP). On Close, the memory is
// zeroed, unlocked, and unmapped. Because the memory lives outside the
// Go heap, the garbage collector cannot copy or relocate it.
//
// Constructors:
//
//   - [New] -- allocates a zero-filled buffer of a given size
//   - [NewFromBytes] -- copies into protected memory, zeros the source
//   - [ReadFile] -- reads a seed file (or stdin) byte-exact
//
// Seeds are binary. Unlike text credentials they are never trimmed:
// a seed file is used exactly as stored.
//
// Depends on golang.org/x/sys/unix. No module-internal dependencies.
package secret
