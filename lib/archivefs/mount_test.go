// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archivefs

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/bureau-foundation/crf/lib/crf"
	"github.com/bureau-foundation/crf/lib/testutil"
)

// testMount writes entries into an archive, reopens it from disk so
// every entry is archive-backed, and mounts it. The mount is removed
// when the test ends.
func testMount(t *testing.T, seed []byte, entries map[string][]byte) (string, *crf.Container) {
	t.Helper()
	testutil.RequireFUSE(t)

	path := filepath.Join(t.TempDir(), "mounted.crf")
	writer, err := crf.Open(path, crf.Config{Seed: seed})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for alias, data := range entries {
		if _, err := writer.AddBytes(data, alias); err != nil {
			t.Fatalf("AddBytes(%q): %v", alias, err)
		}
	}
	if err := writer.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	container, err := crf.Open(path, crf.Config{Seed: seed})
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}

	mountpoint := testutil.MountDir(t)
	server, err := Mount(Options{
		Mountpoint: mountpoint,
		Container:  container,
	})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() {
		if err := server.Unmount(); err != nil {
			t.Errorf("Unmount: %v", err)
		}
	})
	return mountpoint, container
}

func TestMountRootHasAliasAndID(t *testing.T) {
	mountpoint, _ := testMount(t, nil, map[string][]byte{"a": []byte("a")})

	entries, err := os.ReadDir(mountpoint)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	if !slices.Equal(names, []string{"alias", "id"}) {
		t.Errorf("root = %v, want [alias id]", names)
	}
}

func TestMountReadsAliasTree(t *testing.T) {
	large := testutil.Compressible(256 * 1024)
	mountpoint, _ := testMount(t, nil, map[string][]byte{
		"docs/readme.txt": []byte("short"),
		"data/large.bin":  large,
	})

	got, err := os.ReadFile(filepath.Join(mountpoint, "alias", "docs", "readme.txt"))
	if err != nil {
		t.Fatalf("ReadFile readme: %v", err)
	}
	if string(got) != "short" {
		t.Errorf("readme = %q, want %q", got, "short")
	}

	got, err = os.ReadFile(filepath.Join(mountpoint, "alias", "data", "large.bin"))
	if err != nil {
		t.Fatalf("ReadFile large: %v", err)
	}
	if !bytes.Equal(got, large) {
		t.Error("large entry content mismatch through mount")
	}

	info, err := os.Stat(filepath.Join(mountpoint, "alias", "data", "large.bin"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != int64(len(large)) {
		t.Errorf("size = %d, want %d", info.Size(), len(large))
	}
	if info.Mode().Perm() != 0o444 {
		t.Errorf("mode = %v, want read-only", info.Mode())
	}
}

func TestMountReadsByContentID(t *testing.T) {
	content := []byte("addressed by content")
	mountpoint, _ := testMount(t, nil, map[string][]byte{"named": content})

	got, err := os.ReadFile(filepath.Join(mountpoint, "id", crf.ContentID(content)))
	if err != nil {
		t.Fatalf("ReadFile by id: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("got %q, want %q", got, content)
	}
}

func TestMountEncryptedArchive(t *testing.T) {
	content := testutil.Incompressible(7, 100*1024)
	mountpoint, _ := testMount(t, []byte("mount seed"), map[string][]byte{"secret.bin": content})

	got, err := os.ReadFile(filepath.Join(mountpoint, "alias", "secret.bin"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("enciphered entry content mismatch through mount")
	}
}

func TestMountRandomAccess(t *testing.T) {
	content := testutil.Incompressible(11, 300*1024)
	mountpoint, _ := testMount(t, nil, map[string][]byte{"blob": content})

	file, err := os.Open(filepath.Join(mountpoint, "alias", "blob"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()

	// Forward then backward, forcing a skip and then a reopen.
	for _, offset := range []int64{200 * 1024, 10, 299 * 1024} {
		buffer := make([]byte, 1000)
		count, err := file.ReadAt(buffer, offset)
		if err != nil && count == 0 {
			t.Fatalf("ReadAt(%d): %v", offset, err)
		}
		want := content[offset:min(offset+1000, int64(len(content)))]
		if !bytes.Equal(buffer[:count], want) {
			t.Errorf("ReadAt(%d) returned wrong bytes", offset)
		}
	}
}

func TestMountIsReadOnly(t *testing.T) {
	mountpoint, _ := testMount(t, nil, map[string][]byte{"fixed": []byte("fixed")})

	_, err := os.OpenFile(filepath.Join(mountpoint, "alias", "fixed"), os.O_WRONLY, 0)
	if err == nil {
		t.Fatal("opening for write succeeded on a read-only mount")
	}
}

func TestMountMissingAlias(t *testing.T) {
	mountpoint, _ := testMount(t, nil, map[string][]byte{"present": []byte("x")})

	_, err := os.ReadFile(filepath.Join(mountpoint, "alias", "absent"))
	if !os.IsNotExist(err) {
		t.Errorf("expected ENOENT, got %v", err)
	}
}

func TestMountRequiresContainer(t *testing.T) {
	if _, err := Mount(Options{Mountpoint: t.TempDir()}); err == nil {
		t.Fatal("Mount without a container succeeded")
	}
}
