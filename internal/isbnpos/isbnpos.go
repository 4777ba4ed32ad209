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

// Package isbnpos converts ISBN-10 and ISBN-13 strings into the 32-bit
// position space used throughout the rest of this module, and maps those
// positions into the 2-D pixel coordinate systems the tile generator draws
// into.
package isbnpos

import (
	"strings"
)

// BaseISBN13 is the ISBN-13 value corresponding to position 0.
const BaseISBN13 = 978_000_000_000

// Normalize replaces a "978-" or "979-" prefix with a single digit ("0" or
// "1" respectively) and, unless dashes is true, strips any remaining
// hyphens.
func Normalize(isbn string, dashes bool) string {
	switch {
	case strings.HasPrefix(isbn, "978-"):
		isbn = "0" + isbn[4:]
	case strings.HasPrefix(isbn, "979-"):
		isbn = "1" + isbn[4:]
	}
	if !dashes {
		isbn = strings.ReplaceAll(isbn, "-", "")
	}
	return isbn
}

// stripNonDigits removes hyphens and spaces, same as the reference
// verify_isbn preprocessing.
func stripNonDigits(isbn string) string {
	var b strings.Builder
	b.Grow(len(isbn))
	for _, r := range isbn {
		if r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Verify reports whether isbn is a checksum-valid ISBN-10 or ISBN-13.
func Verify(isbn string) bool {
	s := stripNonDigits(isbn)
	switch len(s) {
	case 10:
		return verify10(s)
	case 13:
		return verify13(s)
	default:
		return false
	}
}

func verify10(s string) bool {
	for i := 0; i < 9; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	last := s[9]
	if last != 'X' && (last < '0' || last > '9') {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(s[i]-'0') * (10 - i)
	}
	if last == 'X' {
		sum += 10
	} else {
		sum += int(last - '0')
	}
	return sum%11 == 0
}

func verify13(s string) bool {
	for i := 0; i < 13; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	sum := 0
	for i := 0; i < 12; i++ {
		weight := 1
		if i%2 != 0 {
			weight = 3
		}
		sum += int(s[i]-'0') * weight
	}
	check := (10 - (sum % 10)) % 10
	return check == int(s[12]-'0')
}

// digitsOnly strips every byte that is not an ASCII digit.
func digitsOnly(isbn string) string {
	var b strings.Builder
	b.Grow(len(isbn))
	for _, r := range isbn {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Position converts an ISBN-10 or ISBN-13 string (with optional hyphens) to
// its 32-bit position, i.e. the trailing 12 digits (after dropping the
// check digit, left-padded with "978" when fewer than 12 digits remain)
// minus BaseISBN13. It reports ok=false when the result falls outside
// [0, 2^32).
func Position(isbn string) (pos uint32, ok bool) {
	if isbn == "" {
		return 0, false
	}
	digits := digitsOnly(isbn)
	if len(digits) == 0 {
		return 0, false
	}
	base := digits[:len(digits)-1] // drop the check digit
	if base == "" {
		return 0, false
	}
	if len(base) < 12 {
		base = "978" + base
	}
	if len(base) < 12 {
		return 0, false
	}
	tail := base[len(base)-12:]

	var value int64
	for i := 0; i < len(tail); i++ {
		value = value*10 + int64(tail[i]-'0')
	}
	value -= BaseISBN13
	if value < 0 || value >= 1<<32 {
		return 0, false
	}
	return uint32(value), true
}

// region979Lo is the start of the position range where a 979 prefix might
// have been applied to what is actually a 978 ISBN.
const region979Lo = 1_000_000_000

// FixMisprefixed rewrites a position that was derived from an ISBN
// mistakenly carrying a 979 prefix when it should have been 978. The
// reference implementation's rule: any position >= 1e9 is assumed
// mis-prefixed unless it falls in [1.1e9, 1.14e9) or [1.8e9, 1.9e9), the two
// bands that correspond to real ISBN-13 979 agency allocations seen in the
// corpus.
func FixMisprefixed(pos uint32) uint32 {
	p := int64(pos)
	if p < region979Lo {
		return pos
	}
	if p >= 1_100_000_000 && p < 1_140_000_000 {
		return pos
	}
	if p >= 1_800_000_000 && p < 1_900_000_000 {
		return pos
	}
	return uint32(p - region979Lo)
}

// CodePos maps a position in [0, 1e8) onto a pixel (x, y) inside a
// 10,000x10,000 block, reading decimal digits from least-significant
// upward and alternating their contribution between x and y.
func CodePos(code uint32) (x, y int) {
	c := code
	i := 0
	for c > 0 {
		digit := int(c % 10)
		inc := digit
		for k := 0; k < i/2; k++ {
			inc *= 10
		}
		if i%2 == 0 {
			x += inc
		} else {
			y += inc
		}
		c /= 10
		i++
	}
	return x, y
}

// CanvasWidth and CanvasHeight are the dimensions of the full ISBN-space
// canvas used by CanvasPos.
const (
	CanvasWidth  = 50_000
	CanvasHeight = 40_000
)

// CanvasPos maps a normalized, digits-only ISBN string (978 folded to a
// leading 0, 979 to 1, hyphens stripped; any length from a 2-digit prefix
// up to the full 13 digits) onto a pixel (x, y) in the 50,000x40,000
// canvas, folding the top-level 10x2 digit-pair layout down into 5x4.
// Digits beyond the tenth fall below one pixel of precision and
// contribute nothing.
func CanvasPos(isbn string) (x, y int) {
	n := 4
	isRow := true
	for i := 0; i < len(isbn); i++ {
		digit := int(isbn[i] - '0')

		pow := 0
		if n >= 0 {
			pow = 1
			for k := 0; k < n; k++ {
				pow *= 10
			}
		}

		if isRow {
			y += digit * pow
		} else {
			x += digit * pow
			if n == 4 {
				y = 2*y + x/CanvasWidth
				x %= CanvasWidth
			}
			n--
		}
		isRow = !isRow
	}
	return x, y
}
