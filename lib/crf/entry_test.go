// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crf

import (
	"bytes"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bureau-foundation/crf/lib/testutil"
)

func TestMemoryEntryMeasurements(t *testing.T) {
	data := testutil.Compressible(100)
	entry := newMemoryEntry(data, "m")

	id, err := entry.ContentID()
	if err != nil || id != ContentID(data) {
		t.Errorf("ContentID = %s, %v", id, err)
	}
	if len(id) != 128 {
		t.Errorf("content id is %d chars, want 128", len(id))
	}
	length, err := entry.Length()
	if err != nil || length != 100 {
		t.Errorf("Length = %d, %v; want 100", length, err)
	}
}

func TestFileEntryMeasuresOnceConcurrently(t *testing.T) {
	data := testutil.Incompressible(7, 70000)
	path := testutil.WriteFile(t, t.TempDir(), "concurrent.bin", data)
	entry := newFileEntry(path, "c")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id, err := entry.ContentID()
			if err == nil && id != ContentID(data) {
				err = errors.New("wrong content id " + id)
			}
			errs <- err
		}()
		go func() {
			defer wg.Done()
			length, err := entry.Length()
			if err == nil && length != int64(len(data)) {
				err = errors.New("wrong length")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}

func TestCompressionDecisionIsFixed(t *testing.T) {
	entry := newMemoryEntry(testutil.Compressible(CompressionThreshold+10), "fixed")
	first, err := entry.IsGzip()
	if err != nil || !first {
		t.Fatalf("IsGzip = %v, %v; want true", first, err)
	}

	// Even if the measured length changed, the decision would not.
	entry.mu.Lock()
	entry.length = 1
	entry.mu.Unlock()
	if again, _ := entry.IsGzip(); !again {
		t.Error("compression decision changed after first evaluation")
	}
}

func TestEntryOpenReturnsIndependentStreams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "independent.crf")
	container := openArchive(t, path, Config{Seed: []byte("independent")})
	data := testutil.Compressible(5000)
	mustAdd(t, container, data, "doc")
	if err := container.Write(); err != nil {
		t.Fatal(err)
	}

	entry, _ := openArchive(t, path, Config{Seed: []byte("independent")}).Lookup("doc")
	first, err := entry.Open()
	if err != nil {
		t.Fatal(err)
	}
	second, err := entry.Open()
	if err != nil {
		t.Fatal(err)
	}

	partial := make([]byte, 100)
	if _, err := first.Read(partial); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ReadAllAndClose(t, second); !bytes.Equal(got, data) {
		t.Error("second stream affected by reads on the first")
	}
	first.Close()
}

func TestAliasesSorted(t *testing.T) {
	entry := newMemoryEntry([]byte("x"), "m")
	entry.addAliases([]string{"c", "a", "b", "a"})

	got := entry.Aliases()
	want := []string{"a", "b", "c", "m"}
	if len(got) != len(want) {
		t.Fatalf("Aliases = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Aliases = %v, want %v", got, want)
			break
		}
	}
	if !entry.HasAlias("b") || entry.HasAlias("d") {
		t.Error("HasAlias disagrees with Aliases")
	}
}
