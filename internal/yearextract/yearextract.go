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

// Package yearextract picks the most likely publication year out of a
// handful of free-text date fields, by frequency with a proximity
// tiebreaker.
package yearextract

import "sort"

const (
	minYear     = 1450
	currentYear = 2025
)

// ExtractMostLikely scans every string for 4-digit runs bounded by
// non-digits (or the string's ends), keeps those in [1450, 2025], and
// picks the most frequent one. Ties are broken by proximity: the tied
// candidates are sorted and walked pair by pair, and the earlier year of
// the first consecutive pair within 5 years of each other wins; if no pair
// is that close, the most recent candidate wins. It returns
// ok=false if no string contains a qualifying year.
func ExtractMostLikely(strs []string) (year int, ok bool) {
	counts := make(map[int]int)
	var order []int // first-seen order, for deterministic iteration

	for _, s := range strs {
		for _, y := range fourDigitRuns(s) {
			if y < minYear || y > currentYear {
				continue
			}
			if counts[y] == 0 {
				order = append(order, y)
			}
			counts[y]++
		}
	}
	if len(order) == 0 {
		return 0, false
	}

	maxCount := 0
	for _, y := range order {
		if counts[y] > maxCount {
			maxCount = counts[y]
		}
	}

	var candidates []int
	for _, y := range order {
		if counts[y] == maxCount {
			candidates = append(candidates, y)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}

	sort.Ints(candidates)
	for i := 0; i < len(candidates)-1; i++ {
		if candidates[i+1]-candidates[i] <= 5 {
			return candidates[i], true
		}
	}
	return candidates[len(candidates)-1], true
}

// fourDigitRuns finds every maximal run of exactly 4 consecutive decimal
// digits bounded by non-digit characters (or the string boundary) and
// returns their integer values. A run of 5+ digits never yields a match
// at any offset, matching the regex `(?:^|[^\d])(\d{4})(?:[^\d]|$)`: that
// pattern requires a non-digit (or boundary) on both sides of exactly four
// digits, so "19661967" (eight digits) produces nothing.
func fourDigitRuns(s string) []int {
	var out []int
	n := len(s)
	i := 0
	for i < n {
		if !isDigit(s[i]) {
			i++
			continue
		}
		start := i
		for i < n && isDigit(s[i]) {
			i++
		}
		runLen := i - start
		if runLen == 4 {
			out = append(out, atoi4(s[start:i]))
		}
		// A run longer than 4 never contains an interior boundary-anchored
		// 4-digit match either, since both neighbors of any interior
		// 4-char window are digits.
	}
	return out
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func atoi4(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
