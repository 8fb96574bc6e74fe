// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crf

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// ContentID returns the content id of data: the lowercase hex SHA-512
// digest.
func ContentID(data []byte) string {
	digest := sha512.Sum512(data)
	return hex.EncodeToString(digest[:])
}

// canonicalID returns the form of a content id used for lookups and
// comparisons. Ids are hex and may be stored in either case; valid hex
// is lowercased and anything else is returned unchanged. The stored
// spelling is kept everywhere else, since the trailer digest covers it.
func canonicalID(contentID string) string {
	for i := 0; i < len(contentID); i++ {
		switch c := contentID[i]; {
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		default:
			return contentID
		}
	}
	return strings.ToLower(contentID)
}

// sameContentID reports whether two content ids name the same digest.
func sameContentID(a, b string) bool {
	return canonicalID(a) == canonicalID(b)
}

// contentHasher accumulates a content id and the byte count over a
// stream.
type contentHasher struct {
	digest hash.Hash
	length int64
}

func newContentHasher() *contentHasher {
	return &contentHasher{digest: sha512.New()}
}

func (h *contentHasher) Write(data []byte) (int, error) {
	h.length += int64(len(data))
	return h.digest.Write(data)
}

func (h *contentHasher) ContentID() string {
	return hex.EncodeToString(h.digest.Sum(nil))
}

// hashStream drains r and returns its content id and length.
func hashStream(r io.Reader) (string, int64, error) {
	hasher := newContentHasher()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", 0, err
	}
	return hasher.ContentID(), hasher.length, nil
}

// trailerDigest is the SHA-512 over the concatenation of the content
// ids in file order.
func trailerDigest(contentIDs []string) [trailerSize]byte {
	digest := sha512.New()
	for _, id := range contentIDs {
		io.WriteString(digest, id)
	}
	var sum [trailerSize]byte
	copy(sum[:], digest.Sum(nil))
	return sum
}

// Fingerprint returns the hex BLAKE3-256 digest of the archive file
// at path. Unlike the SHA-512 trailer, which covers only content ids,
// the fingerprint covers every byte on disk, so two archives with the
// same entries but different seeds, compression levels, or entry
// order have different fingerprints.
func Fingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
