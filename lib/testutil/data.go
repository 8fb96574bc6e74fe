// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
)

// Compressible returns n bytes of repetitive text.
func Compressible(n int) []byte {
	const phrase = "resource archive payload line\n"
	return []byte(strings.Repeat(phrase, n/len(phrase)+1)[:n])
}

// Incompressible returns n pseudo-random bytes determined by seed.
// The same seed always yields the same bytes.
func Incompressible(seed uint64, n int) []byte {
	var key [32]byte
	for i := range 8 {
		key[i] = byte(seed >> (8 * i))
	}
	source := rand.NewChaCha8(key)
	data := make([]byte, n)
	source.Read(data)
	return data
}

var aliasCounter atomic.Uint64

// UniqueAlias returns a name of the form "prefix/N" where N is a
// monotonically increasing integer.
//
//	alias := testutil.UniqueAlias("images") // "images/1", "images/2", ...
func UniqueAlias(prefix string) string {
	return fmt.Sprintf("%s/%d", prefix, aliasCounter.Add(1))
}
