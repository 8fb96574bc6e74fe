// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crf

import "fmt"

// Format constants. Changing any of these breaks compatibility with
// existing archives.
const (
	// FormatVersion is the only version this package reads and
	// writes.
	FormatVersion = 1

	// EncryptionOffset is the file offset at which the enciphered
	// region begins: 8 magic bytes, 4 version bytes, 1 flag byte.
	EncryptionOffset = 13

	// CompressionThreshold is the largest decompressed length stored
	// without compression. Longer entries are gzip compressed.
	CompressionThreshold = 32

	// trailerSize is the length of the SHA-512 trailer.
	trailerSize = 64

	flagPlain      byte = 0x00
	flagEnciphered byte = 0x01
)

// archiveMagic is the 8-byte file signature.
var archiveMagic = [8]byte{0x00, 0x04, 'C', 'R', 'F', 0x27, 0x44, 0x02}

// placeholderSeed deciphers an enciphered archive opened without a
// seed. The result is garbage, which the index and trailer checks
// report as an integrity failure.
var placeholderSeed = []byte{0x00}

// CompressionTag identifies how an entry's payload is stored. Tags
// are one byte on disk.
type CompressionTag uint8

const (
	// CompressionNone stores the payload as-is.
	CompressionNone CompressionTag = 0

	// CompressionGzip stores the payload as a gzip stream.
	CompressionGzip CompressionTag = 1
)

// String returns the human-readable name of a compression tag.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// compressionTagFor maps the per-entry compression decision to its
// tag.
func compressionTagFor(compressed bool) CompressionTag {
	if compressed {
		return CompressionGzip
	}
	return CompressionNone
}
