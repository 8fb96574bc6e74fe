// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// WriteFile writes data to name under directory, creating parent
// directories, and returns the full path.
func WriteFile(t *testing.T, directory, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(directory, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating parent of %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// ReadAllAndClose drains r, closes it, and returns the bytes.
func ReadAllAndClose(t *testing.T, r io.ReadCloser) []byte {
	t.Helper()
	data, err := io.ReadAll(r)
	if closeErr := r.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	return data
}

// RequireFUSE skips the test unless /dev/fuse is accessible and a
// fusermount helper is on PATH.
func RequireFUSE(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
	if !haveFusermount() {
		t.Skip("skipping: fusermount not found")
	}
}

func haveFusermount() bool {
	for _, name := range []string{"fusermount3", "fusermount"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// MountDir creates an empty directory in /tmp for use as a FUSE
// mountpoint. Build systems set TEST_TMPDIR to deeply nested paths
// that some FUSE setups reject, so this creates a short-named directory
// directly in /tmp. The directory is removed when the test completes,
// after any cleanup registered later (such as an unmount) has run.
func MountDir(t *testing.T) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", "crf-mount-*")
	if err != nil {
		t.Fatalf("creating mount directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(directory)
	})
	return directory
}
