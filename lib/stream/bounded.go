// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"fmt"
	"io"
)

// Marker is implemented by readers that can remember a position and
// return to it.
type Marker interface {
	Mark() error
	Reset() error
}

// BoundedReader exposes at most a fixed number of bytes from an
// underlying reader. Reads at the bound return io.EOF without touching
// the underlying reader, so the bytes after the window stay unread.
type BoundedReader struct {
	source   io.Reader
	limit    int64
	position int64

	marked       bool
	markPosition int64
	markOffset   int64
}

// NewBoundedReader returns a reader over the next maxLength bytes of
// r. A negative maxLength is treated as zero.
func NewBoundedReader(r io.Reader, maxLength int64) *BoundedReader {
	return &BoundedReader{source: r, limit: max(maxLength, 0)}
}

// Read reads at most the bytes remaining in the window.
func (b *BoundedReader) Read(buffer []byte) (int, error) {
	remaining := b.limit - b.position
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(buffer)) > remaining {
		buffer = buffer[:remaining]
	}
	n, err := b.source.Read(buffer)
	b.position += int64(n)
	return n, err
}

// Skip discards up to n bytes without crossing the bound.
func (b *BoundedReader) Skip(n int64) (int64, error) {
	return discard(b, min(n, b.Remaining()))
}

// ForceSkip discards exactly n bytes or fails with
// [ErrUnexpectedEndOfData], including when n exceeds the window.
func (b *BoundedReader) ForceSkip(n int64) error {
	return forceSkip(b, n)
}

// Remaining returns the number of bytes left in the window.
func (b *BoundedReader) Remaining() int64 {
	return max(b.limit-b.position, 0)
}

// MarkSupported reports whether the underlying reader implements
// [Marker] or io.Seeker.
func (b *BoundedReader) MarkSupported() bool {
	switch b.source.(type) {
	case Marker, io.Seeker:
		return true
	}
	return false
}

// Mark remembers the current position so Reset can return to it.
func (b *BoundedReader) Mark() error {
	switch source := b.source.(type) {
	case Marker:
		if err := source.Mark(); err != nil {
			return err
		}
	case io.Seeker:
		offset, err := source.Seek(0, io.SeekCurrent)
		if err != nil {
			return fmt.Errorf("recording mark offset: %w", err)
		}
		b.markOffset = offset
	default:
		return ErrMarkNotSupported
	}
	b.marked = true
	b.markPosition = b.position
	return nil
}

// Reset returns to the position recorded by the most recent Mark.
func (b *BoundedReader) Reset() error {
	if !b.marked {
		return fmt.Errorf("reset without mark: %w", ErrMarkNotSupported)
	}
	switch source := b.source.(type) {
	case Marker:
		if err := source.Reset(); err != nil {
			return err
		}
	case io.Seeker:
		if _, err := source.Seek(b.markOffset, io.SeekStart); err != nil {
			return fmt.Errorf("seeking to mark offset %d: %w", b.markOffset, err)
		}
	default:
		return ErrMarkNotSupported
	}
	b.position = b.markPosition
	return nil
}

// Close closes the underlying reader if it implements io.Closer.
func (b *BoundedReader) Close() error {
	if closer, ok := b.source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
