// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestReadFile_ExactBytes(t *testing.T) {
	// Seeds are binary: trailing whitespace is part of the seed.
	seed := []byte{0x10, 0x20, ' ', '\n'}
	path := filepath.Join(t.TempDir(), "seed.bin")
	if err := os.WriteFile(path, seed, 0o600); err != nil {
		t.Fatal(err)
	}

	buffer, err := ReadFile(path, 256)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	defer buffer.Close()

	if !bytes.Equal(buffer.Bytes(), seed) {
		t.Errorf("expected %x, got %x", seed, buffer.Bytes())
	}
}

func TestReadFile_FileNotFound(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing"), 256); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestReadFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path, 256); err == nil {
		t.Fatal("expected error for empty seed file")
	}
}

func TestReadFile_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "large")
	if err := os.WriteFile(path, make([]byte, 257), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path, 256); err == nil {
		t.Fatal("expected error for 257-byte seed with 256-byte limit")
	}

	if err := os.WriteFile(path, bytes.Repeat([]byte{1}, 256), 0o600); err != nil {
		t.Fatal(err)
	}
	buffer, err := ReadFile(path, 256)
	if err != nil {
		t.Fatalf("256-byte seed rejected: %v", err)
	}
	buffer.Close()
}
