// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keystream

import (
	"crypto/rc4"
	"errors"
	"fmt"
)

const (
	// MinSeedSize and MaxSeedSize bound the seed length accepted by
	// [New]. Seeds shorter than 256 bytes are reused cyclically by the
	// key schedule.
	MinSeedSize = 1
	MaxSeedSize = 256

	// DiscardBytes is the number of keystream bytes generated and
	// thrown away after the key schedule, before any data is
	// processed. The early output of RC4 leaks key-schedule bias.
	DiscardBytes = 1024
)

// ErrInvalidKeyLength is returned by [New] when the seed is outside
// [MinSeedSize, MaxSeedSize].
var ErrInvalidKeyLength = errors.New("keystream: invalid key length")

// ErrMissingKey is returned when a Cipher that was never seeded is
// asked to process data.
var ErrMissingKey = errors.New("keystream: cipher has no key")

// Cipher is a seeded keystream generator. The zero value has no key
// and fails every operation with [ErrMissingKey].
//
// A Cipher is not safe for concurrent use; interleaving calls from
// multiple goroutines would also scramble the keystream order.
type Cipher struct {
	state *rc4.Cipher
}

// New creates a Cipher from seed. The seed is not retained.
func New(seed []byte) (*Cipher, error) {
	if len(seed) < MinSeedSize || len(seed) > MaxSeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes, want %d to %d",
			ErrInvalidKeyLength, len(seed), MinSeedSize, MaxSeedSize)
	}

	state, err := rc4.NewCipher(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}

	var discard [DiscardBytes]byte
	state.XORKeyStream(discard[:], discard[:])

	return &Cipher{state: state}, nil
}

// Encrypt XORs src with the next len(src) keystream bytes and stores
// the result in dst. dst must be at least as long as src; dst and src
// may be the same slice.
func (c *Cipher) Encrypt(dst, src []byte) error {
	return c.crypt(dst, src)
}

// Decrypt is identical to [Cipher.Encrypt]. It exists so call sites
// read in the direction the data flows.
func (c *Cipher) Decrypt(dst, src []byte) error {
	return c.crypt(dst, src)
}

// Seeded reports whether the cipher has a key.
func (c *Cipher) Seeded() bool {
	return c != nil && c.state != nil
}

func (c *Cipher) crypt(dst, src []byte) error {
	if !c.Seeded() {
		return ErrMissingKey
	}
	if len(dst) < len(src) {
		return fmt.Errorf("keystream: destination is %d bytes, source is %d", len(dst), len(src))
	}
	if len(src) == 0 {
		return nil
	}
	c.state.XORKeyStream(dst[:len(src)], src)
	return nil
}
