// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

// sampleEntry mirrors the shape of a manifest entry: json tags only,
// relying on fxamacker's fallback for CBOR field names.
type sampleEntry struct {
	ContentID    string   `json:"content_id"`
	Aliases      []string `json:"aliases"`
	Length       int64    `json:"length"`
	StoredLength int64    `json:"stored_length,omitempty"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleEntry{
		ContentID: strings.Repeat("ab", 64),
		Aliases:   []string{"docs/a.txt", "docs/b.txt"},
		Length:    4096,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleEntry
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ContentID != original.ContentID || decoded.Length != original.Length ||
		len(decoded.Aliases) != 2 || decoded.Aliases[1] != "docs/b.txt" {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestJSONTagFallback(t *testing.T) {
	data, err := Marshal(sampleEntry{ContentID: "id", Length: 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var generic map[string]any
	if err := Unmarshal(data, &generic); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}
	if _, ok := generic["content_id"]; !ok {
		t.Errorf("json tag name not used as CBOR key: %v", generic)
	}
	if _, ok := generic["stored_length"]; ok {
		t.Error("omitempty from json tag not honored")
	}
}

func TestMapKeysAreSorted(t *testing.T) {
	// Core Deterministic Encoding sorts map keys, so insertion order
	// cannot leak into the output.
	first := map[string]int{"zeta": 1, "alpha": 2, "mid": 3}
	second := map[string]int{"mid": 3, "zeta": 1, "alpha": 2}

	a, err := Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("map encoding depends on insertion order: %x vs %x", a, b)
	}
}

func TestDecodeAnyUsesStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"nested": map[string]any{"key": "value"}})
	if err != nil {
		t.Fatal(err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	top, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if _, ok := top["nested"].(map[string]any); !ok {
		t.Errorf("nested type = %T, want map[string]any", top["nested"])
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for i := range 3 {
		if err := encoder.Encode(sampleEntry{ContentID: "id", Length: int64(i)}); err != nil {
			t.Fatalf("Encode %d: %v", i, err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i := range 3 {
		var entry sampleEntry
		if err := decoder.Decode(&entry); err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if entry.Length != int64(i) {
			t.Errorf("item %d has Length %d", i, entry.Length)
		}
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(sampleEntry{ContentID: "abc", Length: 3})
	if err != nil {
		t.Fatal(err)
	}
	text, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(text, `"content_id"`) || !strings.Contains(text, `"abc"`) {
		t.Errorf("diagnostic notation missing fields: %s", text)
	}
}
