// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archivefs

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/bureau-foundation/crf/lib/crf"
)

func newContainer(t *testing.T) *crf.Container {
	t.Helper()
	container, err := crf.Open(filepath.Join(t.TempDir(), "tree.crf"), crf.Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return container
}

func mustAdd(t *testing.T, container *crf.Container, data, alias string) *crf.Entry {
	t.Helper()
	entry, err := container.AddBytes([]byte(data), alias)
	if err != nil {
		t.Fatalf("AddBytes(%q): %v", alias, err)
	}
	return entry
}

func TestBuildTreeNestsSlashAliases(t *testing.T) {
	container := newContainer(t)
	readme := mustAdd(t, container, "readme", "docs/readme.txt")
	guide := mustAdd(t, container, "guide", "docs/guide/intro.md")
	tool := mustAdd(t, container, "tool", "tool")

	root, skipped := buildTree(container.Entries())
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v, want none", skipped)
	}

	if got := root.names(); !slices.Equal(got, []string{"docs", "tool"}) {
		t.Errorf("root names = %v", got)
	}
	if root.files["tool"] != tool {
		t.Error("tool not placed at root")
	}
	docs := root.directories["docs"]
	if docs == nil {
		t.Fatal("docs directory missing")
	}
	if docs.files["readme.txt"] != readme {
		t.Error("readme.txt not placed under docs")
	}
	if docs.directories["guide"] == nil || docs.directories["guide"].files["intro.md"] != guide {
		t.Error("intro.md not placed under docs/guide")
	}
}

func TestBuildTreeSharedContentAppearsUnderEveryAlias(t *testing.T) {
	container := newContainer(t)
	first := mustAdd(t, container, "same bytes", "a/one")
	second := mustAdd(t, container, "same bytes", "b/two")
	if first != second {
		t.Fatal("identical content produced two entries")
	}

	root, skipped := buildTree(container.Entries())
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v, want none", skipped)
	}
	if root.directories["a"].files["one"] != first || root.directories["b"].files["two"] != first {
		t.Error("shared entry not reachable under both aliases")
	}
}

func TestBuildTreeSkipsUnrepresentableAliases(t *testing.T) {
	container := newContainer(t)
	mustAdd(t, container, "leading", "/absolute")
	mustAdd(t, container, "dots", "../escape")
	mustAdd(t, container, "double", "a//b")
	mustAdd(t, container, "trailing", "dir/")
	mustAdd(t, container, "fine", "ok")

	root, skipped := buildTree(container.Entries())
	if len(skipped) != 4 {
		t.Fatalf("skipped %d aliases, want 4: %v", len(skipped), skipped)
	}
	if got := root.names(); !slices.Equal(got, []string{"ok"}) {
		t.Errorf("root names = %v, want [ok]", got)
	}
}

func TestBuildTreeFileDirectoryCollision(t *testing.T) {
	container := newContainer(t)
	mustAdd(t, container, "file first", "x")
	mustAdd(t, container, "nested", "x/y")

	root, skipped := buildTree(container.Entries())
	if len(skipped) != 1 || skipped[0].Alias != "x/y" {
		t.Fatalf("skipped = %v, want x/y", skipped)
	}
	if _, ok := root.files["x"]; !ok {
		t.Error("first alias should win the collision")
	}
}
