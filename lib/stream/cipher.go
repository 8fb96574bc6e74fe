// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/crf/lib/keystream"
)

// CipherBlockSize is the number of source bytes a CipherReader reads
// and deciphers at a time.
const CipherBlockSize = 512

// cipherWriterChunk bounds the scratch buffer a CipherWriter
// allocates for one Write.
const cipherWriterChunk = 32 * 1024

// CipherReader deciphers everything read from its source. It reads
// the source in blocks of up to [CipherBlockSize] bytes and serves
// reads from the deciphered block.
type CipherReader struct {
	source io.Reader
	cipher *keystream.Cipher

	block    [CipherBlockSize]byte
	buffered []byte

	// sourceErr is the error returned alongside the last block read.
	// It is reported once the block has been drained.
	sourceErr error
}

// NewCipherReader returns a reader that deciphers r with c. The
// cipher's keystream advances as bytes are read.
func NewCipherReader(r io.Reader, c *keystream.Cipher) *CipherReader {
	return &CipherReader{source: r, cipher: c}
}

// Read serves deciphered bytes. A cipher without a key fails with
// [keystream.ErrMissingKey].
func (c *CipherReader) Read(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}
	for len(c.buffered) == 0 {
		if c.sourceErr != nil {
			return 0, c.sourceErr
		}
		if err := c.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(buffer, c.buffered)
	c.buffered = c.buffered[n:]
	return n, nil
}

// Skip discards up to n deciphered bytes. Skipped bytes consume
// keystream like read bytes.
func (c *CipherReader) Skip(n int64) (int64, error) {
	return discard(c, n)
}

// Close closes the source if it implements io.Closer.
func (c *CipherReader) Close() error {
	if closer, ok := c.source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *CipherReader) fill() error {
	if !c.cipher.Seeded() {
		return keystream.ErrMissingKey
	}
	n, err := c.source.Read(c.block[:])
	if n > 0 {
		if decryptErr := c.cipher.Decrypt(c.block[:n], c.block[:n]); decryptErr != nil {
			return fmt.Errorf("deciphering block: %w", decryptErr)
		}
	}
	c.buffered = c.block[:n]
	c.sourceErr = err
	return nil
}

// CipherWriter enciphers every byte written to it and forwards the
// result to its destination. The caller's buffer is never modified
// and nothing is buffered across Write calls.
type CipherWriter struct {
	destination io.Writer
	cipher      *keystream.Cipher
	scratch     []byte
}

// NewCipherWriter returns a writer that enciphers into w with c.
func NewCipherWriter(w io.Writer, c *keystream.Cipher) *CipherWriter {
	return &CipherWriter{destination: w, cipher: c}
}

// Write enciphers exactly len(data) bytes and writes them to the
// destination. A cipher without a key fails with
// [keystream.ErrMissingKey] before anything is written.
func (c *CipherWriter) Write(data []byte) (int, error) {
	if !c.cipher.Seeded() {
		return 0, keystream.ErrMissingKey
	}
	if c.scratch == nil && len(data) > 0 {
		c.scratch = make([]byte, min(len(data), cipherWriterChunk))
	}

	written := 0
	for written < len(data) {
		chunk := data[written:min(len(data), written+cipherWriterChunk)]
		if len(chunk) > len(c.scratch) {
			c.scratch = make([]byte, len(chunk))
		}
		out := c.scratch[:len(chunk)]
		if err := c.cipher.Encrypt(out, chunk); err != nil {
			return written, fmt.Errorf("enciphering: %w", err)
		}
		n, err := c.destination.Write(out)
		written += n
		if err != nil {
			return written, err
		}
		if n < len(out) {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// Close closes the destination if it implements io.Closer.
func (c *CipherWriter) Close() error {
	if closer, ok := c.destination.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
