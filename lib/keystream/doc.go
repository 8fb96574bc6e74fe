// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package keystream implements the symmetric stream cipher used by
// encrypted resource archives: RC4 with the first 1024 keystream bytes
// discarded (often called RC4-drop1024).
//
// A [Cipher] is stateful and strictly sequential. Every call to
// [Cipher.Encrypt] or [Cipher.Decrypt] consumes keystream, and the two
// operations are the same XOR. There is no seek or reset: a reader and
// a writer interoperate only when both are freshly constructed from
// the same seed and process bytes in the same order.
//
// The cipher is not authenticated and RC4 has well-known biases. The
// archive format fixes the algorithm, so this package exists for
// compatibility, not as a recommendation. Integrity is provided
// separately by the archive's SHA-512 trailer.
//
// [DeriveSeed] stretches a human passphrase into a seed with Argon2id
// for callers that prompt interactively.
//
// This package has no module-internal dependencies.
package keystream
