// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the module's CBOR encoding configuration.
//
// Archive manifests are emitted as JSON for people and as CBOR for
// tools that diff or sign them. The CBOR encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2): sorted map keys, smallest
// integer encoding, no indefinite-length items. The same manifest
// always produces identical bytes, so two archives with the same
// entries produce byte-equal CBOR manifests.
//
//	data, err := codec.Marshal(manifest)
//	err = codec.Unmarshal(data, &manifest)
//
// For streams:
//
//	err := codec.NewEncoder(os.Stdout).Encode(manifest)
//
// Types shared with JSON output carry `json` tags only.
// fxamacker/cbor reads `json` tags when `cbor` tags are absent, so one
// tag controls field naming and omitempty for both formats.
//
// This package has no module-internal dependencies.
package codec
