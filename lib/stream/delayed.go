// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/crf/lib/keystream"
)

// cipherState is the one-way state of a DelayedCipherReader.
type cipherState int

const (
	// statePlain: bytes before the encryption offset, passed through.
	statePlain cipherState = iota

	// stateCiphered: the PositionReader's source has been replaced
	// by a CipherReader. Terminal.
	stateCiphered
)

// DelayedCipherReader reads plaintext from a [PositionReader] until
// the position reaches a fixed encryption offset, then deciphers
// everything after it. This matches files whose header is stored in
// the clear and whose body is enciphered.
//
// The transition happens exactly once. When it happens, the
// PositionReader's source is replaced in place by a [CipherReader]
// over the remaining source, so the PositionReader keeps counting
// absolute offsets across the switch. A Read or Skip that straddles
// the offset is split: the plaintext part is served first, then the
// transition, then the deciphered remainder.
type DelayedCipherReader struct {
	source *PositionReader
	cipher *keystream.Cipher
	offset int64
	state  cipherState
}

// NewDelayedCipherReader wraps source so that bytes at positions
// >= encryptionOffset are deciphered with c. If the source is already
// at or past the offset, the transition happens immediately.
func NewDelayedCipherReader(source *PositionReader, c *keystream.Cipher, encryptionOffset int64) *DelayedCipherReader {
	d := &DelayedCipherReader{
		source: source,
		cipher: c,
		offset: encryptionOffset,
	}
	d.transition()
	return d
}

func (d *DelayedCipherReader) transition() {
	if d.state != statePlain || d.source.Position() < d.offset {
		return
	}
	d.source.replaceSource(func(remaining io.Reader) io.Reader {
		return NewCipherReader(remaining, d.cipher)
	})
	d.state = stateCiphered
}

// plainRemaining returns how many plaintext bytes are left before the
// offset.
func (d *DelayedCipherReader) plainRemaining() int64 {
	return d.offset - d.source.Position()
}

// Read reads from the source, deciphering bytes at or after the
// encryption offset.
func (d *DelayedCipherReader) Read(buffer []byte) (int, error) {
	d.transition()
	if d.state == stateCiphered || len(buffer) == 0 {
		return d.source.Read(buffer)
	}

	plain := d.plainRemaining()
	if int64(len(buffer)) <= plain {
		n, err := d.source.Read(buffer)
		d.transition()
		return n, err
	}

	n, err := d.source.Read(buffer[:plain])
	d.transition()
	if err != nil || int64(n) < plain {
		return n, err
	}

	m, err := d.source.Read(buffer[n:])
	if err == io.EOF && n+m > 0 {
		// The next call reports EOF again.
		err = nil
	}
	return n + m, err
}

// Skip discards up to n bytes, consuming keystream for bytes at or
// after the offset. A short count with a nil error means end of data.
func (d *DelayedCipherReader) Skip(n int64) (int64, error) {
	d.transition()
	if n <= 0 {
		return 0, nil
	}

	var skipped int64
	if d.state == statePlain {
		plain := min(n, d.plainRemaining())
		s, err := d.source.Skip(plain)
		skipped += s
		d.transition()
		if err != nil || s < plain {
			return skipped, err
		}
	}

	if skipped < n {
		s, err := d.source.Skip(n - skipped)
		skipped += s
		d.transition()
		if err != nil {
			return skipped, fmt.Errorf("skipping enciphered bytes: %w", err)
		}
	}
	return skipped, nil
}

// ForceSkip discards exactly n bytes or fails with
// [ErrUnexpectedEndOfData].
func (d *DelayedCipherReader) ForceSkip(n int64) error {
	return forceSkip(d, n)
}

// Position returns the absolute position of the underlying
// PositionReader.
func (d *DelayedCipherReader) Position() int64 {
	return d.source.Position()
}

// Ciphered reports whether the offset has been crossed.
func (d *DelayedCipherReader) Ciphered() bool {
	return d.state == stateCiphered
}

// Close closes the underlying PositionReader.
func (d *DelayedCipherReader) Close() error {
	return d.source.Close()
}
