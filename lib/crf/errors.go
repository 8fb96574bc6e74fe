// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crf

import (
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/crf/lib/stream"
	"github.com/bureau-foundation/crf/lib/wire"
)

var (
	// ErrInvalidFormat means the file is not a resource archive or
	// its structure is malformed: bad magic, unknown flag or
	// compression tag, negative counts, or truncation.
	ErrInvalidFormat = errors.New("invalid archive format")

	// ErrUnsupportedVersion means the header names a format version
	// this package does not read.
	ErrUnsupportedVersion = errors.New("unsupported archive version")

	// ErrIntegrityCheckFailed means stored data does not match its
	// recorded hash. For enciphered archives every structural failure
	// inside the enciphered region is also reported this way, since a
	// wrong seed garbles the region.
	ErrIntegrityCheckFailed = errors.New("archive integrity check failed")

	// ErrEmptyAlias is returned when an entry is added without a name.
	ErrEmptyAlias = errors.New("entry alias is empty")

	// ErrEntryTooLarge is returned by Write when an entry's stored
	// payload does not fit the format's int32 length field.
	ErrEntryTooLarge = errors.New("entry payload exceeds format limit")

	// ErrUnexpectedEndOfData is the stream package's sentinel for a
	// read that ends before its fixed or recorded length. Index
	// failures of this kind also match ErrInvalidFormat.
	ErrUnexpectedEndOfData = stream.ErrUnexpectedEndOfData
)

// indexError wraps a failure to decode part of the archive index.
// Truncation and garbage lengths are format errors, and truncation
// also matches ErrUnexpectedEndOfData. Anything else (an I/O failure
// on the file) passes through with context only.
func indexError(what string, err error) error {
	if (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) &&
		!errors.Is(err, ErrUnexpectedEndOfData) {
		return fmt.Errorf("%w: %w: reading %s: %w", ErrInvalidFormat, ErrUnexpectedEndOfData, what, err)
	}
	if errors.Is(err, stream.ErrUnexpectedEndOfData) ||
		errors.Is(err, wire.ErrNegativeLength) ||
		errors.Is(err, wire.ErrStringTooLong) {
		return fmt.Errorf("%w: reading %s: %w", ErrInvalidFormat, what, err)
	}
	return fmt.Errorf("reading %s: %w", what, err)
}
