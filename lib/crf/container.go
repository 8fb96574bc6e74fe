// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crf

import (
	"bufio"
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/bureau-foundation/crf/lib/keystream"
	"github.com/bureau-foundation/crf/lib/stream"
	"github.com/bureau-foundation/crf/lib/wire"
)

// Config configures [Open].
type Config struct {
	// Seed is the keystream seed. It deciphers an enciphered archive
	// on load, and when set, [Container.Write] enciphers with it. If
	// nil, enciphered archives are opened with a placeholder seed,
	// which fails the integrity check. Must be 1 to 256 bytes when
	// set. Open keeps its own copy.
	Seed []byte

	// Logger receives load and write lifecycle messages. If nil, a
	// no-op logger is used.
	Logger *slog.Logger

	// TempDir holds the per-entry scratch file used while writing. If
	// empty, os.TempDir is used. The replacement archive itself is
	// always staged next to the target so the final rename stays on
	// one filesystem.
	TempDir string

	// CompressionLevel is the gzip level for newly written payloads,
	// from gzip.HuffmanOnly (-2) to gzip.BestCompression (9). Zero
	// selects gzip.DefaultCompression: an entry over the threshold is
	// always stored as a gzip stream, so "no compression" is not a
	// meaningful setting here.
	CompressionLevel int
}

// Container is an in-memory index of a resource archive plus any
// entries added since it was last written.
type Container struct {
	mu sync.RWMutex

	path      string
	seed      []byte
	encrypted bool
	entries   []*Entry
	byID      map[string]*Entry

	logger           *slog.Logger
	tempDir          string
	compressionLevel int
}

// Open indexes the archive at path. Payloads are not read: each entry
// records where its bytes are and reads them on demand.
//
// If no file exists at path, Open returns an empty container bound to
// path; the file is created by the first [Container.Write].
func Open(path string, cfg Config) (*Container, error) {
	if path == "" {
		return nil, fmt.Errorf("crf: path is required")
	}
	if cfg.Seed != nil {
		if _, err := keystream.New(cfg.Seed); err != nil {
			return nil, fmt.Errorf("crf: %w", err)
		}
	}

	level := cfg.CompressionLevel
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return nil, fmt.Errorf("crf: compression level %d out of range [%d, %d]",
			level, gzip.HuffmanOnly, gzip.BestCompression)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("crf: resolving %s: %w", path, err)
	}

	container := &Container{
		path:             absolutePath,
		seed:             slices.Clone(cfg.Seed),
		byID:             make(map[string]*Entry),
		logger:           logger,
		tempDir:          cfg.TempDir,
		compressionLevel: level,
	}

	file, err := os.Open(absolutePath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("archive does not exist, starting empty", "path", absolutePath)
		return container, nil
	}
	if err != nil {
		return nil, fmt.Errorf("crf: opening %s: %w", absolutePath, err)
	}
	defer wire.CloseQuietly(file, logger, absolutePath)

	if err := container.load(file); err != nil {
		return nil, fmt.Errorf("crf: loading %s: %w", absolutePath, err)
	}

	logger.Debug("archive loaded",
		"path", absolutePath,
		"entries", len(container.entries),
		"encrypted", container.encrypted,
	)
	return container, nil
}

// indexReader is the view of the archive stream that load needs:
// plain reads, exact skips, and the absolute offset.
type indexReader interface {
	io.Reader
	ForceSkip(n int64) error
	Position() int64
}

// load reads the header and entry index from file.
func (c *Container) load(file *os.File) error {
	position := stream.NewPositionReader(bufio.NewReaderSize(file, readBufferSize))

	var magic [len(archiveMagic)]byte
	if _, err := io.ReadFull(position, magic[:]); err != nil {
		return indexError("magic", err)
	}
	if magic != archiveMagic {
		return fmt.Errorf("%w: bad magic %x", ErrInvalidFormat, magic[:])
	}

	version, err := wire.ReadInt32(position)
	if err != nil {
		return indexError("version", err)
	}
	if version != FormatVersion {
		return fmt.Errorf("%w: version %d", ErrUnsupportedVersion, version)
	}

	flag, err := wire.ReadByte(position)
	if err != nil {
		return indexError("encryption flag", err)
	}

	var body indexReader = position
	switch flag {
	case flagPlain:
	case flagEnciphered:
		seed := c.seed
		if seed == nil {
			seed = placeholderSeed
		}
		cipher, err := keystream.New(seed)
		if err != nil {
			return err
		}
		body = stream.NewDelayedCipherReader(position, cipher, EncryptionOffset)
		c.encrypted = true
	default:
		return fmt.Errorf("%w: encryption flag 0x%02x", ErrInvalidFormat, flag)
	}

	ref := archiveRef{path: c.path, encrypted: c.encrypted, seed: c.seed}
	if err := c.readIndex(body, ref); err != nil {
		if c.encrypted && !errors.Is(err, ErrIntegrityCheckFailed) {
			return fmt.Errorf("%w: enciphered region: %w", ErrIntegrityCheckFailed, err)
		}
		return err
	}
	return nil
}

// readIndex decodes the entry region and trailer and populates the
// container.
func (c *Container) readIndex(body indexReader, ref archiveRef) error {
	count, err := wire.ReadInt32(body)
	if err != nil {
		return indexError("entry count", err)
	}
	if count < 0 {
		return fmt.Errorf("%w: negative entry count %d", ErrInvalidFormat, count)
	}

	contentIDs := make([]string, 0, min(int(count), 1024))
	for i := range int(count) {
		contentID, err := wire.ReadString(body)
		if err != nil {
			return indexError(fmt.Sprintf("entry %d content id", i), err)
		}

		aliasCount, err := wire.ReadInt32(body)
		if err != nil {
			return indexError(fmt.Sprintf("entry %d alias count", i), err)
		}
		if aliasCount < 0 {
			return fmt.Errorf("%w: entry %d has negative alias count %d", ErrInvalidFormat, i, aliasCount)
		}
		aliases := make([]string, 0, min(int(aliasCount), 64))
		for j := range int(aliasCount) {
			alias, err := wire.ReadString(body)
			if err != nil {
				return indexError(fmt.Sprintf("entry %d alias %d", i, j), err)
			}
			aliases = append(aliases, alias)
		}

		tagByte, err := wire.ReadByte(body)
		if err != nil {
			return indexError(fmt.Sprintf("entry %d compression tag", i), err)
		}
		tag := CompressionTag(tagByte)
		if tag != CompressionNone && tag != CompressionGzip {
			return fmt.Errorf("%w: entry %d has compression tag %s", ErrInvalidFormat, i, tag)
		}

		storedLength, err := wire.ReadInt32(body)
		if err != nil {
			return indexError(fmt.Sprintf("entry %d payload length", i), err)
		}
		if storedLength < 0 {
			return fmt.Errorf("%w: entry %d has negative payload length %d", ErrInvalidFormat, i, storedLength)
		}

		offset := body.Position()
		if err := body.ForceSkip(int64(storedLength)); err != nil {
			return indexError(fmt.Sprintf("entry %d payload", i), err)
		}

		contentIDs = append(contentIDs, contentID)
		key := canonicalID(contentID)
		if existing, ok := c.byID[key]; ok {
			c.logger.Debug("merging duplicate entry", "content_id", contentID, "aliases", aliases)
			existing.addAliases(aliases)
			continue
		}
		entry := newArchiveEntry(ref, contentID, aliases, tag, offset, int64(storedLength))
		c.entries = append(c.entries, entry)
		c.byID[key] = entry
	}

	var trailer [trailerSize]byte
	if _, err := io.ReadFull(body, trailer[:]); err != nil {
		return indexError("trailer", err)
	}
	expected := trailerDigest(contentIDs)
	if subtle.ConstantTimeCompare(trailer[:], expected[:]) != 1 {
		return fmt.Errorf("%w: trailer does not match content ids", ErrIntegrityCheckFailed)
	}
	return nil
}

// AddBytes adds data under alias. If an entry with the same content
// already exists, alias joins that entry's aliases and the existing
// entry is returned. data is copied.
func (c *Container) AddBytes(data []byte, alias string) (*Entry, error) {
	if alias == "" {
		return nil, ErrEmptyAlias
	}
	return c.add(newMemoryEntry(bytes.Clone(data), alias)), nil
}

// AddFile adds the regular file at path under alias, or under the
// file's base name if alias is empty. The file is hashed now and read
// again when the container is written, so it must not change in
// between.
func (c *Container) AddFile(path, alias string) (*Entry, error) {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(absolutePath)
	if err != nil {
		return nil, fmt.Errorf("adding %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("adding %s: not a regular file", path)
	}
	if alias == "" {
		alias = filepath.Base(absolutePath)
	}

	entry := newFileEntry(absolutePath, alias)
	if _, err := entry.ContentID(); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	return c.add(entry), nil
}

// add inserts entry or merges its aliases into the resident entry with
// the same content id.
func (c *Container) add(entry *Entry) *Entry {
	// New entries always have their content id by now.
	key := canonicalID(entry.contentID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byID[key]; ok {
		existing.addAliases(entry.Aliases())
		return existing
	}
	c.entries = append(c.entries, entry)
	c.byID[key] = entry
	return entry
}

// Entries returns a snapshot of the container's entries in archive
// order.
func (c *Container) Entries() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.entries)
}

// Len returns the number of entries.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Lookup returns the entry with the given alias.
func (c *Container) Lookup(alias string) (*Entry, bool) {
	for _, entry := range c.Entries() {
		if entry.HasAlias(alias) {
			return entry, true
		}
	}
	return nil, false
}

// LookupID returns the entry with the given content id, in either
// hex case.
func (c *Container) LookupID(contentID string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.byID[canonicalID(contentID)]
	return entry, ok
}

// Encrypted reports whether the archive on disk is enciphered, as of
// the last load or write.
func (c *Container) Encrypted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.encrypted
}

// Version returns the archive format version.
func (c *Container) Version() int {
	return FormatVersion
}

// Path returns the absolute path the container reads from and writes
// to.
func (c *Container) Path() string {
	return c.path
}

// Verify checks every entry's bytes against its content id.
func (c *Container) Verify() error {
	for _, entry := range c.Entries() {
		if err := entry.Verify(); err != nil {
			return err
		}
	}
	return nil
}
