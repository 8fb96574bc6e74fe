// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crf

import "fmt"

// Manifest describes a container's contents. Struct fields carry json
// tags only; lib/codec's CBOR encoder falls back to them, so the same
// type serializes to both.
type Manifest struct {
	Path      string          `json:"path"`
	Version   int             `json:"version"`
	Encrypted bool            `json:"encrypted"`
	Entries   []ManifestEntry `json:"entries"`
}

// ManifestEntry describes one entry.
type ManifestEntry struct {
	ContentID  string   `json:"content_id"`
	Aliases    []string `json:"aliases"`
	Compressed bool     `json:"compressed"`

	// Length is the decompressed length. Computing it for a gzip
	// entry reads the whole payload.
	Length int64 `json:"length"`

	// StoredLength is the on-disk payload length; zero for entries
	// not yet written.
	StoredLength int64 `json:"stored_length,omitempty"`

	Source string `json:"source"`
}

// Manifest builds a description of the container.
func (c *Container) Manifest() (*Manifest, error) {
	entries := c.Entries()
	manifest := &Manifest{
		Path:      c.Path(),
		Version:   c.Version(),
		Encrypted: c.Encrypted(),
		Entries:   make([]ManifestEntry, 0, len(entries)),
	}

	for i, entry := range entries {
		contentID, err := entry.ContentID()
		if err != nil {
			return nil, fmt.Errorf("entry %d content id: %w", i, err)
		}
		compressed, err := entry.IsGzip()
		if err != nil {
			return nil, fmt.Errorf("entry %.16s compression: %w", contentID, err)
		}
		length, err := entry.Length()
		if err != nil {
			return nil, fmt.Errorf("entry %.16s length: %w", contentID, err)
		}
		storedLength, _ := entry.StoredLength()

		manifest.Entries = append(manifest.Entries, ManifestEntry{
			ContentID:    contentID,
			Aliases:      entry.Aliases(),
			Compressed:   compressed,
			Length:       length,
			StoredLength: storedLength,
			Source:       entry.Source(),
		})
	}
	return manifest, nil
}
