// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream provides the composable byte-stream wrappers used to
// read and write resource archives.
//
// The wrappers stack: a [PositionReader] counts the bytes it has
// delivered, a [DelayedCipherReader] switches a PositionReader from
// plaintext to deciphered reads once a fixed offset is crossed, and a
// [BoundedReader] exposes a fixed-length window of whatever is
// beneath it. [CipherReader] and [CipherWriter] apply a
// [keystream.Cipher] to everything that passes through them.
//
// Skipping is first-class because the keystream cannot seek: skipping
// enciphered bytes must still consume the keystream, so every Skip in
// this package is implemented by reading and discarding. Skip may stop
// short at end of data; ForceSkip either discards exactly the
// requested count or fails with [ErrUnexpectedEndOfData].
//
// None of the types are safe for concurrent use. Each archive read
// opens its own stack.
package stream
