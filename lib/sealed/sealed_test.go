// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age/armor"
)

func generate(t *testing.T) *Keypair {
	t.Helper()
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	t.Cleanup(func() { keypair.Close() })
	return keypair
}

func TestGenerateKeypair(t *testing.T) {
	keypair := generate(t)

	if !bytes.HasPrefix(keypair.PrivateKey.Bytes(), []byte("AGE-SECRET-KEY-1")) {
		t.Error("PrivateKey does not start with AGE-SECRET-KEY-1")
	}
	if !strings.HasPrefix(keypair.PublicKey, "age1") {
		t.Errorf("PublicKey = %q, want prefix age1", keypair.PublicKey)
	}
	if err := ParsePublicKey(keypair.PublicKey); err != nil {
		t.Errorf("ParsePublicKey on generated key: %v", err)
	}
}

func TestSealOpenSeed(t *testing.T) {
	keypair := generate(t)
	seed := []byte{0x00, 0x01, 0x02, 0xff, '\n'}

	var sealed bytes.Buffer
	if err := SealSeed(&sealed, seed, []string{keypair.PublicKey}); err != nil {
		t.Fatalf("SealSeed: %v", err)
	}
	if !strings.HasPrefix(sealed.String(), armor.Header) {
		t.Errorf("sealed seed is not armored: %q", sealed.String()[:20])
	}
	if bytes.Contains(sealed.Bytes(), seed) {
		t.Error("sealed output contains the seed in the clear")
	}

	opened, err := OpenSeed(&sealed, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("OpenSeed: %v", err)
	}
	defer opened.Close()
	if !bytes.Equal(opened.Bytes(), seed) {
		t.Errorf("opened seed = %x, want %x", opened.Bytes(), seed)
	}
}

func TestSealSeed_MultipleRecipients(t *testing.T) {
	first := generate(t)
	second := generate(t)

	var sealed bytes.Buffer
	if err := SealSeed(&sealed, []byte("shared seed"), []string{first.PublicKey, second.PublicKey}); err != nil {
		t.Fatalf("SealSeed: %v", err)
	}

	for _, keypair := range []*Keypair{first, second} {
		opened, err := OpenSeed(bytes.NewReader(sealed.Bytes()), keypair.PrivateKey)
		if err != nil {
			t.Fatalf("OpenSeed with %s: %v", keypair.PublicKey, err)
		}
		if string(opened.Bytes()) != "shared seed" {
			t.Errorf("opened seed = %q", opened.Bytes())
		}
		opened.Close()
	}
}

func TestOpenSeed_WrongIdentity(t *testing.T) {
	owner := generate(t)
	stranger := generate(t)

	var sealed bytes.Buffer
	if err := SealSeed(&sealed, []byte("seed"), []string{owner.PublicKey}); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenSeed(&sealed, stranger.PrivateKey); err == nil {
		t.Error("OpenSeed with the wrong identity succeeded")
	}
}

func TestSealSeed_Validation(t *testing.T) {
	keypair := generate(t)

	if err := SealSeed(&bytes.Buffer{}, nil, []string{keypair.PublicKey}); err == nil {
		t.Error("SealSeed with empty seed succeeded")
	}
	if err := SealSeed(&bytes.Buffer{}, []byte("seed"), nil); err == nil {
		t.Error("SealSeed without recipients succeeded")
	}
	if err := SealSeed(&bytes.Buffer{}, []byte("seed"), []string{"age1notakey"}); err == nil {
		t.Error("SealSeed with malformed recipient succeeded")
	}
}

func TestReadIdentityFileAndOpenSeedFile(t *testing.T) {
	keypair := generate(t)
	directory := t.TempDir()

	identityPath := filepath.Join(directory, "identity.txt")
	identityContent := "# created by test\n# public key: " + keypair.PublicKey + "\n" +
		string(keypair.PrivateKey.Bytes()) + "\n"
	if err := os.WriteFile(identityPath, []byte(identityContent), 0o600); err != nil {
		t.Fatal(err)
	}

	var sealed bytes.Buffer
	if err := SealSeed(&sealed, []byte("file seed"), []string{keypair.PublicKey}); err != nil {
		t.Fatal(err)
	}
	sealedPath := filepath.Join(directory, "seed.age")
	if err := os.WriteFile(sealedPath, sealed.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	identity, err := ReadIdentityFile(identityPath)
	if err != nil {
		t.Fatalf("ReadIdentityFile: %v", err)
	}
	defer identity.Close()

	seed, err := OpenSeedFile(sealedPath, identity)
	if err != nil {
		t.Fatalf("OpenSeedFile: %v", err)
	}
	defer seed.Close()
	if string(seed.Bytes()) != "file seed" {
		t.Errorf("seed = %q", seed.Bytes())
	}
}

func TestReadIdentityFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(path, []byte("not an identity\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadIdentityFile(path); err == nil {
		t.Error("ReadIdentityFile accepted garbage")
	}
}
