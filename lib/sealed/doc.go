// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed stores archive seeds encrypted with age, so a seed
// can sit next to the archives it opens without being readable by
// anyone lacking the matching age identity.
//
// A sealed seed is an ASCII-armored age file encrypted to one or more
// x25519 recipients. [SealSeed] writes one; [OpenSeed] reads armored
// or binary age input with identities from [ReadIdentityFile] and
// returns the seed in a [secret.Buffer] (mmap memory outside the Go
// heap, locked against swap, excluded from core dumps, zeroed on
// Close).
//
// Key exports:
//
//   - [GenerateKeypair] -- new age x25519 keypair in a secret.Buffer
//   - [SealSeed] / [OpenSeed] -- encrypt and decrypt seeds
//   - [ReadIdentityFile] -- load an age identity file
//   - [ParsePublicKey] -- recipient validation
//
// Depends on lib/secret for secure memory allocation.
package sealed
