// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archivefs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/crf/lib/crf"
)

// directory is one level of the alias tree.
type directory struct {
	directories map[string]*directory
	files       map[string]*crf.Entry
}

func newDirectory() *directory {
	return &directory{
		directories: make(map[string]*directory),
		files:       make(map[string]*crf.Entry),
	}
}

// names returns the directory's children in sorted order.
func (d *directory) names() []string {
	names := make([]string, 0, len(d.directories)+len(d.files))
	for name := range d.directories {
		names = append(names, name)
	}
	for name := range d.files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// skippedAlias records an alias that could not be placed in the tree.
type skippedAlias struct {
	Alias  string
	Reason string
}

// buildTree places every alias of every entry into a directory tree.
// Aliases that are not valid relative paths, or that collide with a
// directory or file placed earlier, are returned as skipped. Entries
// are visited in order and aliases in sorted order, so the result is
// deterministic for a given container.
func buildTree(entries []*crf.Entry) (*directory, []skippedAlias) {
	root := newDirectory()
	var skipped []skippedAlias

	for _, entry := range entries {
		for _, alias := range entry.Aliases() {
			if err := place(root, alias, entry); err != nil {
				skipped = append(skipped, skippedAlias{Alias: alias, Reason: err.Error()})
			}
		}
	}
	return root, skipped
}

func place(root *directory, alias string, entry *crf.Entry) error {
	components := strings.Split(alias, "/")
	for _, component := range components {
		if err := validComponent(component); err != nil {
			return err
		}
	}

	current := root
	for _, component := range components[:len(components)-1] {
		if _, isFile := current.files[component]; isFile {
			return fmt.Errorf("%q is already a file", component)
		}
		next, ok := current.directories[component]
		if !ok {
			next = newDirectory()
			current.directories[component] = next
		}
		current = next
	}

	leaf := components[len(components)-1]
	if _, isDirectory := current.directories[leaf]; isDirectory {
		return fmt.Errorf("%q is already a directory", leaf)
	}
	if existing, isFile := current.files[leaf]; isFile && existing != entry {
		return fmt.Errorf("%q is already a file", leaf)
	}
	current.files[leaf] = entry
	return nil
}

func validComponent(component string) error {
	switch component {
	case "":
		return fmt.Errorf("empty path component")
	case ".", "..":
		return fmt.Errorf("path component %q is not allowed", component)
	}
	if strings.ContainsRune(component, 0) {
		return fmt.Errorf("path component contains NUL")
	}
	return nil
}
