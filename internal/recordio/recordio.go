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

// Package recordio defines the JSON shape of one line of the bibliographic
// corpus. Unknown fields are ignored, and every record field beyond aacid
// and the OCLC number is optional, matching the corpus's loosely
// structured metadata.
package recordio

import "encoding/json"

// Line is one JSON-lines entry in the corpus.
type Line struct {
	AACID    string   `json:"aacid"`
	Metadata Metadata `json:"metadata"`
}

// Metadata holds the book-grouping key and the free-form bibliographic
// record.
type Metadata struct {
	OCLCNumber *string `json:"oclc_number"`
	Record     Record  `json:"record"`
}

// Record is the free-form per-line bibliographic payload. Every field is
// optional; a record may carry any subset of them.
type Record struct {
	ISBNs                []string `json:"isbns"`
	ISBN13               *string  `json:"isbn13"`
	TotalHoldingCount    *int     `json:"totalHoldingCount"`
	TotalHoldingCountAlt *int     `json:"total_holding_count"`
	MachineReadableDate  *string  `json:"machineReadableDate"`
	PublicationDate      *string  `json:"publicationDate"`
	Date                 *string  `json:"date"`
}

// Holdings returns the holding count from whichever of the two known field
// spellings is present, camelCase first.
func (r Record) Holdings() (int, bool) {
	if r.TotalHoldingCount != nil {
		return *r.TotalHoldingCount, true
	}
	if r.TotalHoldingCountAlt != nil {
		return *r.TotalHoldingCountAlt, true
	}
	return 0, false
}

// DateFields returns the three free-text date fields used for year
// extraction, in priority order, substituting "" for any that are absent.
func (r Record) DateFields() [3]string {
	var out [3]string
	if r.MachineReadableDate != nil {
		out[0] = *r.MachineReadableDate
	}
	if r.PublicationDate != nil {
		out[1] = *r.PublicationDate
	}
	if r.Date != nil {
		out[2] = *r.Date
	}
	return out
}

// AllISBNs merges the isbns array and the isbn13 scalar field into one
// slice.
func (r Record) AllISBNs() []string {
	out := make([]string, 0, len(r.ISBNs)+1)
	out = append(out, r.ISBNs...)
	if r.ISBN13 != nil && *r.ISBN13 != "" {
		out = append(out, *r.ISBN13)
	}
	return out
}

// ParseLine decodes one line of the corpus. A blank line should never
// reach this function; callers skip those before parsing.
func ParseLine(data []byte) (Line, error) {
	var l Line
	err := json.Unmarshal(data, &l)
	return l, err
}

// IsEndOfBatch reports whether a line represents the sentinel "flush now"
// signal fed to the aggregator at stream end (an empty Line with no OCLC
// number).
func (l Line) IsEndOfBatch() bool {
	return l.Metadata.OCLCNumber == nil
}
