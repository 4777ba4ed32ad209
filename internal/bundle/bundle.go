// Copyright 2026 The isbn-atlas Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// ----------------

// Package bundle reads and writes the ISBN-runs manifest: a
// zstandard-compressed bencoded dictionary mapping a set name to its
// packed-runs blob (§4.8's wire format). The key "md5" denotes the
// coverage reference set.
package bundle

import (
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/bencode"
)

// ReferenceSet is the manifest key identifying the coverage baseline.
const ReferenceSet = "md5"

// Manifest maps set name to its packed-runs bytes (§4.8 format,
// little-endian present_count/gap_count pairs).
type Manifest map[string][]byte

// Read decompresses and decodes a manifest file.
func Read(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := bencode.DecodeBytes(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Write bencode-encodes and zstd-compresses a manifest to path.
func Write(path string, m Manifest) error {
	var raw bytes.Buffer
	if err := bencode.NewEncoder(&raw).Encode(m); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if _, err := enc.Write(raw.Bytes()); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// SetNames returns every set name in the manifest, sorted, with
// ReferenceSet first when present.
func (m Manifest) SetNames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		if name == ReferenceSet {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if _, ok := m[ReferenceSet]; ok {
		names = append([]string{ReferenceSet}, names...)
	}
	return names
}
