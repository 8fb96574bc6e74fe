// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keystream

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func TestKnownAnswer(t *testing.T) {
	encryptor, err := New([]byte("Key"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	plaintext := []byte("Plaintext")
	ciphertext := make([]byte, len(plaintext))
	if err := encryptor.Encrypt(ciphertext, plaintext); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if got := strings.ToUpper(hex.EncodeToString(ciphertext)); got != "9AE466368E7EA8F2F5" {
		t.Errorf("ciphertext = %s, want 9AE466368E7EA8F2F5", got)
	}

	decryptor, err := New([]byte("Key"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	recovered := make([]byte, len(ciphertext))
	if err := decryptor.Decrypt(recovered, ciphertext); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(recovered) != "Plaintext" {
		t.Errorf("decrypted = %q, want %q", recovered, "Plaintext")
	}
}

func TestSeedLengthBounds(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"empty", 0, true},
		{"one byte", 1, false},
		{"max", MaxSeedSize, false},
		{"over max", MaxSeedSize + 1, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(bytes.Repeat([]byte{0x5a}, test.size))
			if test.wantErr {
				if !errors.Is(err, ErrInvalidKeyLength) {
					t.Fatalf("New(%d bytes) error = %v, want ErrInvalidKeyLength", test.size, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%d bytes): %v", test.size, err)
			}
		})
	}
}

func TestZeroValueHasNoKey(t *testing.T) {
	var c Cipher
	buffer := []byte("data")
	if err := c.Encrypt(buffer, buffer); !errors.Is(err, ErrMissingKey) {
		t.Errorf("Encrypt on zero Cipher: error = %v, want ErrMissingKey", err)
	}
	if c.Seeded() {
		t.Error("zero Cipher reports Seeded")
	}
}

func TestCipherIsStateful(t *testing.T) {
	// Encrypting the same block twice on one instance must not
	// produce the same output: the keystream advances.
	c, err := New([]byte("stateful"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	block := bytes.Repeat([]byte{0}, 16)
	first := make([]byte, len(block))
	second := make([]byte, len(block))
	if err := c.Encrypt(first, block); err != nil {
		t.Fatal(err)
	}
	if err := c.Encrypt(second, block); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(first, second) {
		t.Error("two consecutive encryptions produced identical keystream")
	}
}

func TestSplitCallsMatchSingleCall(t *testing.T) {
	// The keystream depends only on byte order, not on how the data
	// is divided into calls.
	data := bytes.Repeat([]byte("split-me "), 100)

	whole, _ := New([]byte("seed"))
	expected := make([]byte, len(data))
	if err := whole.Encrypt(expected, data); err != nil {
		t.Fatal(err)
	}

	pieces, _ := New([]byte("seed"))
	actual := make([]byte, len(data))
	for offset := 0; offset < len(data); offset += 7 {
		end := min(offset+7, len(data))
		if err := pieces.Encrypt(actual[offset:end], data[offset:end]); err != nil {
			t.Fatal(err)
		}
	}

	if !bytes.Equal(expected, actual) {
		t.Error("piecewise encryption differs from single-call encryption")
	}
}

func TestInPlace(t *testing.T) {
	c1, _ := New([]byte("in place"))
	c2, _ := New([]byte("in place"))

	data := []byte("the quick brown fox")
	copied := append([]byte(nil), data...)

	if err := c1.Encrypt(copied, copied); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(copied, data) {
		t.Fatal("in-place encryption left data unchanged")
	}
	if err := c2.Decrypt(copied, copied); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(copied, data) {
		t.Errorf("in-place round trip = %q, want %q", copied, data)
	}
}

func TestShortDestination(t *testing.T) {
	c, _ := New([]byte("k"))
	if err := c.Encrypt(make([]byte, 2), make([]byte, 3)); err == nil {
		t.Error("Encrypt with short destination succeeded")
	}
}

func TestDeriveSeed(t *testing.T) {
	first := DeriveSeed([]byte("correct horse battery staple"))
	second := DeriveSeed([]byte("correct horse battery staple"))
	other := DeriveSeed([]byte("correct horse battery stapler"))

	if len(first) != DerivedSeedSize {
		t.Fatalf("derived seed is %d bytes, want %d", len(first), DerivedSeedSize)
	}
	if !bytes.Equal(first, second) {
		t.Error("DeriveSeed is not deterministic")
	}
	if bytes.Equal(first, other) {
		t.Error("different passphrases derived the same seed")
	}
	if _, err := New(first); err != nil {
		t.Errorf("derived seed rejected by New: %v", err)
	}
}
