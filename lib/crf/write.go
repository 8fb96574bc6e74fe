// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crf

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/klauspost/compress/gzip"

	"github.com/bureau-foundation/crf/lib/keystream"
	"github.com/bureau-foundation/crf/lib/stream"
	"github.com/bureau-foundation/crf/lib/wire"
)

// writeBufferSize buffers archive output between the encoder and the
// temporary file.
const writeBufferSize = 64 * 1024

// entryPlacement records where Write put an entry so it can be
// rebound after the rename.
type entryPlacement struct {
	offset       int64
	storedLength int64
	tag          CompressionTag
}

// offsetWriter counts bytes written through it, starting from a base
// offset, to learn where each payload lands in the file.
type offsetWriter struct {
	destination io.Writer
	offset      int64
}

func (w *offsetWriter) Write(data []byte) (int, error) {
	n, err := w.destination.Write(data)
	w.offset += int64(n)
	return n, err
}

// Write writes the container to its path, enciphered with the
// container's seed if it has one. See [Container.WriteWithSeed].
func (c *Container) Write() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(c.seed)
}

// WriteWithSeed writes the container to its path enciphered with
// seed, or in the clear if seed is nil, and adopts seed for later
// writes.
//
// The archive is staged in a temporary file next to the target and
// renamed over it, so readers of the old file never see a partial
// archive and writing onto the file the container was loaded from is
// safe. After the rename every entry is rebound to its location in the
// new file; *Entry values held by callers remain valid.
func (c *Container) WriteWithSeed(seed []byte) error {
	if seed != nil {
		if _, err := keystream.New(seed); err != nil {
			return fmt.Errorf("crf: %w", err)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(slices.Clone(seed))
}

func (c *Container) writeLocked(seed []byte) error {
	directory := filepath.Dir(c.path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("crf: creating %s: %w", directory, err)
	}

	archiveFile, err := os.CreateTemp(directory, "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("crf: creating temp archive: %w", err)
	}
	archivePath := archiveFile.Name()

	// Clean up the temp archive on any error path.
	success := false
	defer func() {
		if !success {
			archiveFile.Close()
			os.Remove(archivePath)
		}
	}()

	scratchFile, err := os.CreateTemp(c.tempDir, "crf-entry-*.tmp")
	if err != nil {
		return fmt.Errorf("crf: creating scratch file: %w", err)
	}
	defer func() {
		scratchFile.Close()
		if err := os.Remove(scratchFile.Name()); err != nil {
			c.logger.Warn("removing scratch file failed", "path", scratchFile.Name(), "error", err)
		}
	}()

	c.logger.Debug("writing archive",
		"path", c.path,
		"temp", archivePath,
		"entries", len(c.entries),
		"encrypted", seed != nil,
	)

	buffered := bufio.NewWriterSize(archiveFile, writeBufferSize)
	placements, err := c.encode(buffered, scratchFile, seed)
	if err != nil {
		return fmt.Errorf("crf: writing %s: %w", c.path, err)
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("crf: flushing %s: %w", archivePath, err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(c.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := archiveFile.Chmod(mode); err != nil {
		return fmt.Errorf("crf: setting mode on %s: %w", archivePath, err)
	}
	if err := archiveFile.Sync(); err != nil {
		return fmt.Errorf("crf: syncing %s: %w", archivePath, err)
	}
	if err := archiveFile.Close(); err != nil {
		return fmt.Errorf("crf: closing %s: %w", archivePath, err)
	}

	if err := os.Rename(archivePath, c.path); err != nil {
		return fmt.Errorf("crf: renaming archive to %s: %w", c.path, err)
	}
	success = true

	ref := archiveRef{path: c.path, encrypted: seed != nil, seed: seed}
	for i, entry := range c.entries {
		placement := placements[i]
		entry.rebind(ref, placement.offset, placement.storedLength, placement.tag)
	}
	c.seed = seed
	c.encrypted = seed != nil

	c.logger.Debug("archive written", "path", c.path, "entries", len(c.entries))
	return nil
}

// encode writes the complete archive to w, using scratch to stage each
// payload, and returns where each entry's payload was placed.
func (c *Container) encode(w io.Writer, scratch *os.File, seed []byte) ([]entryPlacement, error) {
	if _, err := w.Write(archiveMagic[:]); err != nil {
		return nil, fmt.Errorf("writing magic: %w", err)
	}
	if err := wire.WriteInt32(w, FormatVersion); err != nil {
		return nil, fmt.Errorf("writing version: %w", err)
	}

	var body io.Writer = w
	flag := flagPlain
	if seed != nil {
		cipher, err := keystream.New(seed)
		if err != nil {
			return nil, err
		}
		body = stream.NewCipherWriter(w, cipher)
		flag = flagEnciphered
	}
	if err := wire.WriteByte(w, flag); err != nil {
		return nil, fmt.Errorf("writing encryption flag: %w", err)
	}

	counter := &offsetWriter{destination: body, offset: EncryptionOffset}
	if err := wire.WriteInt32(counter, int32(len(c.entries))); err != nil {
		return nil, fmt.Errorf("writing entry count: %w", err)
	}

	placements := make([]entryPlacement, len(c.entries))
	contentIDs := make([]string, 0, len(c.entries))
	for i, entry := range c.entries {
		contentID, err := entry.ContentID()
		if err != nil {
			return nil, fmt.Errorf("entry %d content id: %w", i, err)
		}
		compressed, err := entry.IsGzip()
		if err != nil {
			return nil, fmt.Errorf("entry %.16s compression: %w", contentID, err)
		}
		tag := compressionTagFor(compressed)

		if err := wire.WriteString(counter, contentID); err != nil {
			return nil, fmt.Errorf("writing entry %d content id: %w", i, err)
		}
		aliases := entry.Aliases()
		if err := wire.WriteInt32(counter, int32(len(aliases))); err != nil {
			return nil, fmt.Errorf("writing entry %d alias count: %w", i, err)
		}
		for _, alias := range aliases {
			if err := wire.WriteString(counter, alias); err != nil {
				return nil, fmt.Errorf("writing entry %d alias %q: %w", i, alias, err)
			}
		}
		if err := wire.WriteByte(counter, byte(tag)); err != nil {
			return nil, fmt.Errorf("writing entry %d compression tag: %w", i, err)
		}

		storedLength, err := c.stage(entry, contentID, compressed, scratch)
		if err != nil {
			return nil, fmt.Errorf("staging entry %.16s: %w", contentID, err)
		}
		if storedLength > math.MaxInt32 {
			return nil, fmt.Errorf("%w: entry %.16s stores %d bytes", ErrEntryTooLarge, contentID, storedLength)
		}
		if err := wire.WriteInt32(counter, int32(storedLength)); err != nil {
			return nil, fmt.Errorf("writing entry %d payload length: %w", i, err)
		}

		placements[i] = entryPlacement{offset: counter.offset, storedLength: storedLength, tag: tag}
		if _, err := scratch.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewinding scratch file: %w", err)
		}
		if _, err := io.CopyN(counter, scratch, storedLength); err != nil {
			return nil, fmt.Errorf("writing entry %d payload: %w", i, err)
		}
		contentIDs = append(contentIDs, contentID)
	}

	trailer := trailerDigest(contentIDs)
	if _, err := counter.Write(trailer[:]); err != nil {
		return nil, fmt.Errorf("writing trailer: %w", err)
	}
	return placements, nil
}

// stage writes the entry's stored form (gzip stream or raw bytes) to
// scratch, replacing its previous contents, and returns the stored
// length. The decompressed bytes are rehashed on the way through: an
// external file that changed since it was added fails here rather
// than producing an archive with a stale content id.
func (c *Container) stage(entry *Entry, contentID string, compressed bool, scratch *os.File) (int64, error) {
	if err := scratch.Truncate(0); err != nil {
		return 0, fmt.Errorf("truncating scratch file: %w", err)
	}
	if _, err := scratch.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding scratch file: %w", err)
	}

	source, err := entry.Open()
	if err != nil {
		return 0, err
	}
	defer source.Close()

	hasher := newContentHasher()
	tee := io.TeeReader(source, hasher)

	if compressed {
		compressor, err := gzip.NewWriterLevel(scratch, c.compressionLevel)
		if err != nil {
			return 0, fmt.Errorf("creating gzip writer: %w", err)
		}
		if _, err := io.Copy(compressor, tee); err != nil {
			return 0, fmt.Errorf("compressing: %w", err)
		}
		if err := compressor.Close(); err != nil {
			return 0, fmt.Errorf("finishing gzip stream: %w", err)
		}
	} else {
		if _, err := io.Copy(scratch, tee); err != nil {
			return 0, fmt.Errorf("copying: %w", err)
		}
	}

	if actual := hasher.ContentID(); !sameContentID(actual, contentID) {
		return 0, fmt.Errorf("%w: source now hashes to %.16s", ErrIntegrityCheckFailed, actual)
	}

	storedLength, err := scratch.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("measuring scratch file: %w", err)
	}
	return storedLength, nil
}
