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

// Package publishershard builds the publisher-prefix index: a sharded
// set of JSON files mapping ISBN prefix to the publisher name(s)
// registered under it, plus a flat sorted text index of every prefix
// seen, chunked so no single JSON file grows past a rough size budget.
package publishershard

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bibliocorpus/isbn-atlas/internal/isbnpos"
)

// chunkSizeBudget is the approximate byte budget (sum of prefix and
// publisher-name lengths) each shard file holds before it is flushed,
// matching the reference extractor's 100,000-byte chunks.
const chunkSizeBudget = 100_000

// Publishers accumulates prefix -> publisher-name-list entries from a
// stream of registrant records, then shards and writes them.
type Publishers struct {
	byPrefix map[string][]string
}

// New returns an empty accumulator.
func New() *Publishers {
	return &Publishers{byPrefix: make(map[string][]string)}
}

// AddPrefix records a registrant name under a publisher-prefix entry. An
// empty name still creates the prefix key with no names, matching a
// prefix-only record with no registrant_name.
func (p *Publishers) AddPrefix(isbn, name string) {
	key := isbnpos.Normalize(isbn, false)
	if _, ok := p.byPrefix[key]; !ok {
		p.byPrefix[key] = nil
	}
	if name != "" {
		p.byPrefix[key] = append(p.byPrefix[key], name)
	}
}

// AddISBN13 records an agency-publisher prefix derived from a full
// ISBN-13: the first two dash-separated segments of the normalized,
// dash-preserving form. The parent publisher name is not known from an
// isbn13-typed record, so no name is attached.
func (p *Publishers) AddISBN13(isbn string) {
	normalized := isbnpos.Normalize(isbn, true)
	segments := strings.Split(normalized, "-")
	if len(segments) < 2 {
		return
	}
	key := segments[0] + segments[1]
	if _, ok := p.byPrefix[key]; !ok {
		p.byPrefix[key] = nil
	}
}

// Prefixes returns every recorded prefix in sorted order.
func (p *Publishers) Prefixes() []string {
	out := make([]string, 0, len(p.byPrefix))
	for k := range p.byPrefix {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// WriteShards writes the sharded prefix->names JSON files into dir, one
// file per chunk named after the first prefix in that chunk, and
// WriteIndex writes the flat sorted prefix list to indexPath.
func (p *Publishers) WriteShards(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	prefixes := p.Prefixes()

	chunk := make(map[string][]string)
	size := 0
	var firstInChunk string

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		data, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, firstInChunk+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		chunk = make(map[string][]string)
		size = 0
		firstInChunk = ""
		return nil
	}

	for _, prefix := range prefixes {
		if firstInChunk == "" {
			firstInChunk = prefix
		}
		names := p.byPrefix[prefix]
		chunk[prefix] = names

		size += len(prefix)
		for _, name := range names {
			size += len(name)
		}

		if size > chunkSizeBudget {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// WriteIndex writes every recorded prefix, one per line and sorted, with
// no trailing newline after the final entry.
func (p *Publishers) WriteIndex(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	prefixes := p.Prefixes()
	for i, prefix := range prefixes {
		if i > 0 {
			if _, err := w.WriteString("\n"); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(prefix); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ReadIndex reads a flat prefix-index file back into a slice, in file
// order (the writer already sorted it).
func ReadIndex(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("publishershard: read index: %w", err)
	}
	return out, nil
}
