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

// Package isbnfilter reconciles a set of raw ISBN strings sharing one book
// group, dropping ISBN-13s that are really an unrelated 10-digit code
// accidentally concatenated onto a valid publisher prefix.
package isbnfilter

import "strings"

// Filter applies the six-step reconciliation rule described in the ISBN
// position-allocation scheme: it keeps every ISBN-10, every ISBN-13 that
// matches a known ISBN-10 base, and then re-derives bases from 978-prefixed
// survivors before admitting any remaining 979-prefixed ISBN-13s.
func Filter(isbns map[string]struct{}) map[string]struct{} {
	isbn10s := make(map[string]struct{})
	bases := make(map[string]struct{})
	for isbn := range isbns {
		if len(isbn) == 10 {
			isbn10s[isbn] = struct{}{}
			bases[isbn[:9]] = struct{}{}
		}
	}

	hasBasePrefix := func(isbn13, prefix string) bool {
		for base := range bases {
			if strings.HasPrefix(isbn13, prefix+base) {
				return true
			}
		}
		return false
	}
	hasAnyBasePrefix := func(isbn13 string) bool {
		for base := range bases {
			if strings.HasPrefix(isbn13, base) {
				return true
			}
		}
		return false
	}

	validISBN13s := make(map[string]struct{})
	for isbn := range isbns {
		if len(isbn) == 13 && hasBasePrefix(isbn, "978") {
			validISBN13s[isbn] = struct{}{}
		}
	}

	remaining := make(map[string]struct{})
	for isbn := range isbns {
		if len(isbn) != 13 {
			continue
		}
		if _, ok := validISBN13s[isbn]; ok {
			continue
		}
		if hasAnyBasePrefix(isbn) {
			continue
		}
		remaining[isbn] = struct{}{}
	}

	isbns978 := make(map[string]struct{})
	for isbn := range remaining {
		if strings.HasPrefix(isbn, "978") {
			isbns978[isbn] = struct{}{}
		}
	}
	for isbn := range isbns978 {
		bases[isbn[3:12]] = struct{}{}
	}

	remaining2 := make(map[string]struct{})
	for isbn := range remaining {
		if !hasAnyBasePrefix(isbn) {
			remaining2[isbn] = struct{}{}
		}
	}

	isbns979 := make(map[string]struct{})
	for isbn := range remaining2 {
		if !strings.HasPrefix(isbn, "979") {
			continue
		}
		if _, dup := isbns978[isbn]; dup {
			continue
		}
		if hasBasePrefix(isbn, "979") {
			continue
		}
		isbns979[isbn] = struct{}{}
	}

	out := make(map[string]struct{}, len(isbn10s)+len(validISBN13s)+len(isbns978)+len(isbns979))
	for _, set := range []map[string]struct{}{isbn10s, validISBN13s, isbns978, isbns979} {
		for isbn := range set {
			out[isbn] = struct{}{}
		}
	}
	return out
}

// FilterSlice is a convenience wrapper around Filter for callers that work
// with slices instead of sets.
func FilterSlice(isbns []string) []string {
	set := make(map[string]struct{}, len(isbns))
	for _, isbn := range isbns {
		set[isbn] = struct{}{}
	}
	filtered := Filter(set)
	out := make([]string, 0, len(filtered))
	for isbn := range filtered {
		out = append(out, isbn)
	}
	return out
}
