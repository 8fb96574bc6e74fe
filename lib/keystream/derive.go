// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keystream

import (
	"golang.org/x/crypto/argon2"
)

// DerivedSeedSize is the length of seeds produced by DeriveSeed.
const DerivedSeedSize = 32

// passphraseSalt is fixed because the archive format has no field to
// carry a per-archive salt. The same passphrase must always produce
// the same seed or archives could not be reopened. Changing this
// value makes every passphrase-sealed archive unreadable.
var passphraseSalt = []byte("crf.keystream.passphrase.v1")

// Argon2id cost parameters (RFC 9106 second recommended option).
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// DeriveSeed stretches a passphrase into a DerivedSeedSize-byte seed
// with Argon2id. The result is deterministic for a given passphrase.
func DeriveSeed(passphrase []byte) []byte {
	return argon2.IDKey(passphrase, passphraseSalt, argonTime, argonMemory, argonThreads, DerivedSeedSize)
}
