// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package crf reads and writes resource archives: single files that
// hold a set of content-addressed entries, each optionally gzip
// compressed, with the whole entry region optionally enciphered.
//
// An archive is a 13-byte clear header (magic, version, encryption
// flag) followed by the entry region and a 64-byte trailer:
//
//	offset 0   magic   00 04 'C' 'R' 'F' 27 44 02
//	offset 8   version int32 big-endian, always 1
//	offset 12  flag    0x00 plain, 0x01 enciphered (RC4-drop1024)
//	offset 13  count   int32
//	           per entry:
//	             content id   int32 length + UTF-8
//	             alias count  int32
//	             aliases      int32 length + UTF-8 each
//	             compression  1 byte, 0x00 none, 0x01 gzip
//	             payload size int32
//	             payload
//	           trailer: SHA-512 over the concatenated content ids
//
// When the flag is set, every byte from offset 13 to the end of the
// file, trailer included, is enciphered with a single keystream.
//
// A content id is the lowercase hex SHA-512 of an entry's
// decompressed bytes. Entries with the same content id are merged:
// adding content that is already present adds the new alias to the
// existing entry instead of storing the bytes again. Entries are
// compressed when their decompressed length exceeds
// [CompressionThreshold]; the decision is made once per entry and
// persisted in the archive.
//
// [Open] indexes an archive without reading payloads. Entries loaded
// from an archive read their bytes back from the file on demand, so a
// container holds no payload data in memory except for entries added
// with [Container.AddBytes] since the last write. [Container.Write]
// replaces the file atomically and rebinds every entry to its new
// location, so *Entry values held by callers stay usable.
//
// A Container is safe for concurrent use. Reads through
// [Entry.Open] are not coordinated with a concurrent Write.
package crf
