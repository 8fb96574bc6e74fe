// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"errors"
	"fmt"
	"io"
)

// ErrUnexpectedEndOfData is returned by ForceSkip when the underlying
// data ends before the requested number of bytes could be discarded.
var ErrUnexpectedEndOfData = errors.New("unexpected end of data")

// ErrMarkNotSupported is returned by Mark and Reset on streams that
// cannot return to an earlier position.
var ErrMarkNotSupported = errors.New("mark/reset not supported")

// skipBufferSize is the scratch size used to read-and-discard bytes.
const skipBufferSize = 32 * 1024

// PositionReader wraps a reader and counts every byte it delivers,
// including bytes discarded by Skip. The count starts at zero when
// the reader is wrapped, so callers that wrap a file from its start
// see absolute file offsets.
//
// The wrapped source can be replaced in place by code in this package
// (see [DelayedCipherReader]); the position counter is unaffected.
type PositionReader struct {
	source   io.Reader
	position int64
}

// NewPositionReader wraps r.
func NewPositionReader(r io.Reader) *PositionReader {
	return &PositionReader{source: r}
}

// Read reads from the wrapped source and advances the position by the
// number of bytes returned.
func (p *PositionReader) Read(buffer []byte) (int, error) {
	n, err := p.source.Read(buffer)
	p.position += int64(n)
	return n, err
}

// Position returns the number of bytes delivered (read or skipped)
// since the reader was wrapped.
func (p *PositionReader) Position() int64 {
	return p.position
}

// Skip discards up to n bytes and returns how many were discarded. At
// end of data it returns a short count with a nil error.
func (p *PositionReader) Skip(n int64) (int64, error) {
	return discard(p, n)
}

// ForceSkip discards exactly n bytes, or fails with
// [ErrUnexpectedEndOfData] if the data ends first.
func (p *PositionReader) ForceSkip(n int64) error {
	return forceSkip(p, n)
}

// MarkSupported reports false: a position-counting stream cannot
// rewind its count.
func (p *PositionReader) MarkSupported() bool {
	return false
}

// Close closes the wrapped source if it implements io.Closer.
func (p *PositionReader) Close() error {
	if closer, ok := p.source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// replaceSource swaps the wrapped source. The wrap function receives
// the current source and returns its replacement.
func (p *PositionReader) replaceSource(wrap func(io.Reader) io.Reader) {
	p.source = wrap(p.source)
}

// skipper is implemented by every skippable stream in this package.
type skipper interface {
	Skip(n int64) (int64, error)
}

// discard reads and drops up to n bytes from r. io.EOF is not an
// error: the short count reports it.
func discard(r io.Reader, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	buffer := make([]byte, min(n, skipBufferSize))
	var total int64
	for total < n {
		chunk := buffer[:min(n-total, int64(len(buffer)))]
		read, err := r.Read(chunk)
		total += int64(read)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// forceSkip calls Skip until n bytes are gone or Skip makes no
// progress.
func forceSkip(s skipper, n int64) error {
	var total int64
	for total < n {
		skipped, err := s.Skip(n - total)
		total += skipped
		if err != nil {
			return fmt.Errorf("skipping %d bytes (skipped %d): %w", n, total, err)
		}
		if skipped == 0 {
			return fmt.Errorf("%w: skipped %d of %d bytes", ErrUnexpectedEndOfData, total, n)
		}
	}
	return nil
}
