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

// Package xmlrange parses the ISBN registration-group range table: the
// XML document mapping each registration group prefix to its owning
// agency and to the publisher-allocation rules within that prefix.
package xmlrange

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/bibliocorpus/isbn-atlas/internal/isbnpos"
)

// Rule is one publisher-allocation band within a Group: Length digits of
// publisher-assigned suffix, with Range giving the low-high bounds of
// those digits as a "low-high" decimal pair (Length may be 0, meaning the
// rule reserves no publisher space and should be skipped).
type Rule struct {
	Range  string `xml:"Range"`
	Length int    `xml:"Length"`
}

// Group is one registration-group prefix and its owning agency, together
// with the rules carving that prefix into publisher ranges.
type Group struct {
	Prefix string `xml:"Prefix"`
	Agency string `xml:"Agency"`
	Rules  []Rule `xml:"Rules>Rule"`
}

// document mirrors the top-level shape of the reference range table: a
// RegistrationGroups element holding a flat list of Group elements.
type document struct {
	XMLName xml.Name `xml:"ISBNRangeMessage"`
	Groups  []Group  `xml:"RegistrationGroups>Group"`
}

// Parse decodes a registration-group range table and normalizes every
// group's prefix the same way the rest of this module normalizes ISBNs
// (978-/979- folded to a leading 0/1, hyphens dropped).
func Parse(data []byte) ([]Group, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("xmlrange: decode: %w", err)
	}
	groups := make([]Group, len(doc.Groups))
	for i, g := range doc.Groups {
		g.Prefix = isbnpos.Normalize(g.Prefix, false)
		groups[i] = g
	}
	return groups, nil
}

// Agencies flattens a parsed range table down to prefix -> agency name,
// the shape the agency-range JSON extractor emits.
func Agencies(groups []Group) map[string]string {
	out := make(map[string]string, len(groups))
	for _, g := range groups {
		out[g.Prefix] = g.Agency
	}
	return out
}

// Bounds returns the inclusive [low, high] publisher-suffix range this
// rule covers, each value left-padded with the owning group's prefix, and
// the total digit length (prefix + suffix) of entries in that range. ok
// is false for a zero-length rule, which reserves no publisher space.
func (r Rule) Bounds(prefix string) (low, high int64, size int, ok bool) {
	if r.Length <= 0 {
		return 0, 0, 0, false
	}
	parts := strings.SplitN(r.Range, "-", 2)
	if len(parts) != 2 {
		return 0, 0, 0, false
	}
	size = len(prefix) + r.Length
	lowStr := prefix + truncate(parts[0], r.Length)
	highStr := prefix + truncate(parts[1], r.Length)
	lowVal, err := strconv.ParseInt(lowStr, 10, 64)
	if err != nil {
		return 0, 0, 0, false
	}
	highVal, err := strconv.ParseInt(highStr, 10, 64)
	if err != nil {
		return 0, 0, 0, false
	}
	return lowVal, highVal, size, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
