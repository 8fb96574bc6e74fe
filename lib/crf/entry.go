// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/bureau-foundation/crf/lib/keystream"
	"github.com/bureau-foundation/crf/lib/stream"
)

// readBufferSize is the buffer placed between an archive file and the
// stream stack that decodes it.
const readBufferSize = 32 * 1024

// backingKind says where an entry's bytes live.
type backingKind int

const (
	// backingMemory: bytes held in memory, added with AddBytes.
	backingMemory backingKind = iota

	// backingFile: an external file, added with AddFile. Read on
	// demand.
	backingFile

	// backingArchive: a slice of an archive file, recorded at load
	// or rebound after a write.
	backingArchive
)

// archiveRef is what an archive-backed entry needs to reopen its
// slice. It is a value copy, not a reference to the Container, so
// entries never hold the container's lock or keep it alive.
type archiveRef struct {
	path      string
	encrypted bool
	seed      []byte
}

// Entry is one content-addressed item in a container. An entry has at
// least one alias; all aliases name the same bytes.
//
// Entry methods are safe for concurrent use. The content id and
// length are computed at most once, by draining the entry's stream.
type Entry struct {
	mu sync.Mutex

	aliases map[string]struct{}

	kind backingKind

	// backingMemory
	data []byte

	// backingFile
	path string

	// backingArchive
	archive      archiveRef
	offset       int64
	storedLength int64

	// compressed is meaningful once compressionKnown is set. Archive
	// entries know it from their stored tag; new entries decide it
	// from their length on first use.
	compressed       bool
	compressionKnown bool

	contentID   string
	length      int64
	lengthKnown bool
}

func newMemoryEntry(data []byte, alias string) *Entry {
	return &Entry{
		aliases:     map[string]struct{}{alias: {}},
		kind:        backingMemory,
		data:        data,
		contentID:   ContentID(data),
		length:      int64(len(data)),
		lengthKnown: true,
	}
}

func newFileEntry(path, alias string) *Entry {
	return &Entry{
		aliases: map[string]struct{}{alias: {}},
		kind:    backingFile,
		path:    path,
	}
}

func newArchiveEntry(ref archiveRef, contentID string, aliases []string, tag CompressionTag, offset, storedLength int64) *Entry {
	entry := &Entry{
		aliases:          make(map[string]struct{}, len(aliases)),
		kind:             backingArchive,
		archive:          ref,
		offset:           offset,
		storedLength:     storedLength,
		compressed:       tag == CompressionGzip,
		compressionKnown: true,
		contentID:        contentID,
	}
	for _, alias := range aliases {
		entry.aliases[alias] = struct{}{}
	}
	if tag == CompressionNone {
		entry.length = storedLength
		entry.lengthKnown = true
	}
	return entry
}

// backing is a snapshot of the fields needed to open an entry's
// bytes.
type backing struct {
	kind         backingKind
	data         []byte
	path         string
	archive      archiveRef
	offset       int64
	storedLength int64
	tag          CompressionTag
}

func (e *Entry) backingLocked() backing {
	return backing{
		kind:         e.kind,
		data:         e.data,
		path:         e.path,
		archive:      e.archive,
		offset:       e.offset,
		storedLength: e.storedLength,
		tag:          compressionTagFor(e.compressed),
	}
}

func (b backing) open() (io.ReadCloser, error) {
	switch b.kind {
	case backingMemory:
		return io.NopCloser(bytes.NewReader(b.data)), nil
	case backingFile:
		file, err := os.Open(b.path)
		if err != nil {
			return nil, fmt.Errorf("opening entry source: %w", err)
		}
		return file, nil
	case backingArchive:
		return openArchiveSlice(b.archive, b.offset, b.storedLength, b.tag)
	default:
		return nil, fmt.Errorf("entry has unknown backing kind %d", b.kind)
	}
}

// Open returns a new stream over the entry's decompressed bytes. Each
// call returns an independent stream; the caller must close it.
func (e *Entry) Open() (io.ReadCloser, error) {
	e.mu.Lock()
	snapshot := e.backingLocked()
	e.mu.Unlock()
	return snapshot.open()
}

// sliceReader is the stream stack over one archive slice. Closing it
// closes the decompressor (if any) and the file.
type sliceReader struct {
	io.Reader
	decompressor io.Closer
	file         *os.File
}

func (s *sliceReader) Close() error {
	if s.decompressor != nil {
		s.decompressor.Close()
	}
	return s.file.Close()
}

// openArchiveSlice opens the archive at ref.path and positions a
// stream stack over [offset, offset+storedLength), deciphering and
// decompressing as needed.
func openArchiveSlice(ref archiveRef, offset, storedLength int64, tag CompressionTag) (io.ReadCloser, error) {
	file, err := os.Open(ref.path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	var window io.Reader
	if ref.encrypted {
		seed := ref.seed
		if len(seed) == 0 {
			seed = placeholderSeed
		}
		cipher, err := keystream.New(seed)
		if err != nil {
			file.Close()
			return nil, err
		}
		// The keystream starts at the encryption offset and cannot
		// seek, so every enciphered byte before the slice is read
		// and discarded.
		position := stream.NewPositionReader(bufio.NewReaderSize(file, readBufferSize))
		delayed := stream.NewDelayedCipherReader(position, cipher, EncryptionOffset)
		if err := delayed.ForceSkip(offset); err != nil {
			file.Close()
			return nil, fmt.Errorf("positioning at entry offset %d: %w", offset, err)
		}
		window = stream.NewBoundedReader(delayed, storedLength)
	} else {
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			file.Close()
			return nil, fmt.Errorf("seeking to entry offset %d: %w", offset, err)
		}
		window = stream.NewBoundedReader(bufio.NewReaderSize(file, readBufferSize), storedLength)
	}

	reader := &sliceReader{Reader: window, file: file}
	if tag == CompressionGzip {
		decompressor, err := gzip.NewReader(window)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("opening gzip payload at offset %d: %w", offset, err)
		}
		reader.Reader = decompressor
		reader.decompressor = decompressor
	}
	return reader, nil
}

// measureLocked drains the entry once, memoizing its length and, if
// not already known, its content id. Caller holds e.mu.
func (e *Entry) measureLocked() error {
	source, err := e.backingLocked().open()
	if err != nil {
		return err
	}
	defer source.Close()

	contentID, length, err := hashStream(source)
	if err != nil {
		return fmt.Errorf("reading entry: %w", err)
	}
	if e.contentID == "" {
		e.contentID = contentID
	}
	e.length = length
	e.lengthKnown = true
	return nil
}

// ContentID returns the hex SHA-512 of the entry's decompressed
// bytes. Computed ids are lowercase. For entries loaded from an
// archive this is the stored id as spelled on disk; [Entry.Verify]
// checks it against the bytes.
func (e *Entry) ContentID() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.contentID != "" {
		return e.contentID, nil
	}
	if err := e.measureLocked(); err != nil {
		return "", err
	}
	return e.contentID, nil
}

// Length returns the decompressed length of the entry.
func (e *Entry) Length() (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lengthKnown {
		return e.length, nil
	}
	if err := e.measureLocked(); err != nil {
		return 0, err
	}
	return e.length, nil
}

// IsGzip reports whether the entry is, or will be, stored gzip
// compressed. Entries loaded from an archive report their stored tag.
// Other entries are compressed when longer than
// [CompressionThreshold]; the answer is fixed after the first call.
func (e *Entry) IsGzip() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.compressionKnown {
		return e.compressed, nil
	}
	if !e.lengthKnown {
		if err := e.measureLocked(); err != nil {
			return false, err
		}
	}
	e.compressed = e.length > CompressionThreshold
	e.compressionKnown = true
	return e.compressed, nil
}

// Aliases returns the entry's names in sorted order.
func (e *Entry) Aliases() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	aliases := make([]string, 0, len(e.aliases))
	for alias := range e.aliases {
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)
	return aliases
}

// HasAlias reports whether name is one of the entry's aliases.
func (e *Entry) HasAlias(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.aliases[name]
	return ok
}

// StoredLength returns the on-disk payload length for entries backed
// by an archive. The boolean is false for entries not yet written.
func (e *Entry) StoredLength() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != backingArchive {
		return 0, false
	}
	return e.storedLength, true
}

// Source describes where the entry's bytes currently live: "memory",
// the external file path, or "archive@offset".
func (e *Entry) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.kind {
	case backingMemory:
		return "memory"
	case backingFile:
		return e.path
	case backingArchive:
		return fmt.Sprintf("%s@%d", e.archive.path, e.offset)
	default:
		return "unknown"
	}
}

// Verify rehashes the entry's decompressed bytes and compares the
// result with its content id and, if known, its length.
func (e *Entry) Verify() error {
	expected, err := e.ContentID()
	if err != nil {
		return err
	}

	source, err := e.Open()
	if err != nil {
		return err
	}
	defer source.Close()

	actual, length, err := hashStream(source)
	if err != nil {
		return fmt.Errorf("%w: entry %.16s: reading content: %w", ErrIntegrityCheckFailed, expected, err)
	}
	if !sameContentID(actual, expected) {
		return fmt.Errorf("%w: entry %.16s: content hashes to %.16s", ErrIntegrityCheckFailed, expected, actual)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lengthKnown && e.length != length {
		return fmt.Errorf("%w: entry %.16s: length %d, recorded %d", ErrIntegrityCheckFailed, expected, length, e.length)
	}
	e.length = length
	e.lengthKnown = true
	return nil
}

// addAliases merges names into the entry's alias set.
func (e *Entry) addAliases(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, name := range names {
		e.aliases[name] = struct{}{}
	}
}

// rebind points the entry at its slice in a freshly written archive
// and releases any in-memory payload.
func (e *Entry) rebind(ref archiveRef, offset, storedLength int64, tag CompressionTag) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kind = backingArchive
	e.data = nil
	e.path = ""
	e.archive = ref
	e.offset = offset
	e.storedLength = storedLength
	e.compressed = tag == CompressionGzip
	e.compressionKnown = true
}
