// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"fmt"
	"io"
	"os"
)

// ReadFile reads at most maxSize bytes of key material from path, or
// from stdin if path is "-". The bytes are used exactly as stored. It
// is an error for the source to be empty or to exceed maxSize.
func ReadFile(path string, maxSize int) (*Buffer, error) {
	var source io.Reader
	if path == "-" {
		source = os.Stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		source = file
	}

	// One extra byte detects oversize input without reading it all.
	data := make([]byte, maxSize+1)
	n, err := io.ReadFull(source, data)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		Zero(data)
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	if n > maxSize {
		Zero(data)
		return nil, fmt.Errorf("%s is larger than %d bytes", path, maxSize)
	}

	buffer, err := NewFromBytes(data[:n])
	Zero(data)
	return buffer, err
}
