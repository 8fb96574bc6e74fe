// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire encodes the primitive values of the resource archive
// format: big-endian int32 and int64, single bytes, and UTF-8 strings
// prefixed by their int32 byte length.
//
// Readers use io.ReadFull. A value cut off after its first byte
// surfaces as io.ErrUnexpectedEOF; a value that could not start
// surfaces as io.EOF, so callers can tell a clean end from a
// truncated one.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// MaxStringLength caps the byte length of a length-prefixed string.
// Archive strings are content identifiers and alias names; a prefix
// larger than this means the data is corrupt or enciphered with a
// different key, and must not drive a huge allocation.
const MaxStringLength = 1 << 20

var (
	// ErrNegativeLength is returned when a length prefix is negative.
	ErrNegativeLength = errors.New("negative length prefix")

	// ErrStringTooLong is returned when a string exceeds
	// MaxStringLength, on read or write.
	ErrStringTooLong = errors.New("string exceeds maximum length")
)

// ReadInt32 reads a big-endian int32.
func ReadInt32(r io.Reader) (int32, error) {
	var buffer [4]byte
	if _, err := io.ReadFull(r, buffer[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buffer[:])), nil
}

// WriteInt32 writes v big-endian.
func WriteInt32(w io.Writer, v int32) error {
	var buffer [4]byte
	binary.BigEndian.PutUint32(buffer[:], uint32(v))
	_, err := w.Write(buffer[:])
	return err
}

// ReadInt64 reads a big-endian int64.
func ReadInt64(r io.Reader) (int64, error) {
	var buffer [8]byte
	if _, err := io.ReadFull(r, buffer[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buffer[:])), nil
}

// WriteInt64 writes v big-endian.
func WriteInt64(w io.Writer, v int64) error {
	var buffer [8]byte
	binary.BigEndian.PutUint64(buffer[:], uint64(v))
	_, err := w.Write(buffer[:])
	return err
}

// ReadByte reads a single byte.
func ReadByte(r io.Reader) (byte, error) {
	var buffer [1]byte
	if _, err := io.ReadFull(r, buffer[:]); err != nil {
		return 0, err
	}
	return buffer[0], nil
}

// WriteByte writes a single byte.
func WriteByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

// ReadString reads an int32 byte length followed by that many bytes.
// The bytes are returned as-is; no UTF-8 validation is performed.
func ReadString(r io.Reader) (string, error) {
	length, err := ReadInt32(r)
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", fmt.Errorf("%w: %d", ErrNegativeLength, length)
	}
	if length > MaxStringLength {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrStringTooLong, length, MaxStringLength)
	}
	buffer := make([]byte, length)
	if _, err := io.ReadFull(r, buffer); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	return string(buffer), nil
}

// WriteString writes the byte length of s as an int32 followed by the
// bytes of s.
func WriteString(w io.Writer, s string) error {
	if len(s) > MaxStringLength {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrStringTooLong, len(s), MaxStringLength)
	}
	if err := WriteInt32(w, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// CloseQuietly closes c and logs a failure at Warn instead of
// returning it. Use it on read paths where a close error cannot
// change the outcome.
func CloseQuietly(c io.Closer, logger *slog.Logger, what string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil && logger != nil {
		logger.Warn("close failed", "what", what, "error", err)
	}
}
