// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/bureau-foundation/crf/lib/secret"
)

// maxSealedSize bounds how much age plaintext OpenSeed accepts. Seeds
// are at most 256 bytes; anything larger is not a sealed seed.
const maxSealedSize = 4096

// Keypair holds an age x25519 keypair. The private key is stored in a
// secret.Buffer; the public key is safe to publish.
//
// The caller must call Close when the keypair is no longer needed.
type Keypair struct {
	// PrivateKey is the identity in AGE-SECRET-KEY-1... format.
	PrivateKey *secret.Buffer

	// PublicKey is the recipient in age1... format.
	PublicKey string
}

// Close releases the private key memory. Idempotent.
func (k *Keypair) Close() error {
	if k.PrivateKey != nil {
		return k.PrivateKey.Close()
	}
	return nil
}

// GenerateKeypair generates a new age x25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age keypair: %w", err)
	}

	// The identity's string form is on the heap and unavoidable; the
	// buffer is the copy that lives on.
	privateKey, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("protecting private key: %w", err)
	}
	return &Keypair{
		PrivateKey: privateKey,
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// ParsePublicKey validates an age x25519 recipient string.
func ParsePublicKey(publicKey string) error {
	if _, err := age.ParseX25519Recipient(publicKey); err != nil {
		return fmt.Errorf("invalid age public key: %w", err)
	}
	return nil
}

// SealSeed encrypts seed to the given recipients and writes it to w as
// an ASCII-armored age file.
func SealSeed(w io.Writer, seed []byte, recipientKeys []string) error {
	if len(seed) == 0 {
		return fmt.Errorf("seed is empty")
	}
	if len(recipientKeys) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	armored := armor.NewWriter(w)
	encryptor, err := age.Encrypt(armored, recipients...)
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := encryptor.Write(seed); err != nil {
		return fmt.Errorf("writing seed to age encryptor: %w", err)
	}
	if err := encryptor.Close(); err != nil {
		return fmt.Errorf("finalizing age encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return fmt.Errorf("finalizing armor: %w", err)
	}
	return nil
}

// OpenSeed decrypts a sealed seed from r with the identities in
// identityFile (the contents of an age identity file). Armored and
// binary age input are both accepted. The identity buffer is borrowed,
// not closed.
func OpenSeed(r io.Reader, identityFile *secret.Buffer) (*secret.Buffer, error) {
	identities, err := age.ParseIdentities(bytes.NewReader(identityFile.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("parsing identities: %w", err)
	}

	buffered := bufio.NewReader(r)
	var source io.Reader = buffered
	if prefix, _ := buffered.Peek(len(armor.Header)); string(prefix) == armor.Header {
		source = armor.NewReader(buffered)
	}

	decrypted, err := age.Decrypt(source, identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting seed: %w", err)
	}

	plaintext := make([]byte, maxSealedSize+1)
	n, err := io.ReadFull(decrypted, plaintext)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("reading decrypted seed: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("sealed seed is empty")
	}
	if n > maxSealedSize {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("sealed plaintext exceeds %d bytes", maxSealedSize)
	}

	buffer, err := secret.NewFromBytes(plaintext[:n])
	secret.Zero(plaintext)
	if err != nil {
		return nil, fmt.Errorf("protecting decrypted seed: %w", err)
	}
	return buffer, nil
}

// OpenSeedFile is OpenSeed on the file at path.
func OpenSeedFile(path string, identityFile *secret.Buffer) (*secret.Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return OpenSeed(file, identityFile)
}

// ReadIdentityFile reads an age identity file (one or more
// AGE-SECRET-KEY-1 lines, # comments allowed) into protected memory
// and checks that it parses.
func ReadIdentityFile(path string) (*secret.Buffer, error) {
	buffer, err := secret.ReadFile(path, maxSealedSize)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}
	if _, err := age.ParseIdentities(bytes.NewReader(buffer.Bytes())); err != nil {
		buffer.Close()
		return nil, fmt.Errorf("invalid age identity file %s: %w", path, err)
	}
	return buffer, nil
}
