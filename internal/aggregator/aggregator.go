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

// Package aggregator is the per-book state machine that reconciles every
// corpus line sharing an OCLC id into one EncodedRecord, filtering,
// deduplicating, and voting as lines arrive.
package aggregator

import (
	"sort"

	"github.com/bibliocorpus/isbn-atlas/internal/bookrecord"
	"github.com/bibliocorpus/isbn-atlas/internal/isbnfilter"
	"github.com/bibliocorpus/isbn-atlas/internal/isbnpos"
	"github.com/bibliocorpus/isbn-atlas/internal/recordio"
	"github.com/bibliocorpus/isbn-atlas/internal/yearextract"
)

// State is one worker's live book-in-progress. It is not safe for
// concurrent use; callers run one State per worker goroutine.
type State struct {
	currentID *string
	isbns     map[string]struct{}
	holdings  *int
	year      *int

	// FlushCount is incremented once per flush attempt, whether or not it
	// produced a non-empty record, mirroring the reference
	// DataHandler.total_results counter.
	FlushCount int
}

// New returns an empty aggregator.
func New() *State {
	return &State{isbns: make(map[string]struct{})}
}

// Process ingests one corpus line, merging it into the current book or
// flushing the current book and starting a new one if the OCLC id
// changed. It returns the encoded bytes of a just-completed book, or nil
// if no book was completed or the completed book had nothing worth
// keeping (§4.4 step 4).
func (s *State) Process(line recordio.Line) []byte {
	if line.IsEndOfBatch() {
		if s.currentID == nil {
			return nil
		}
		out := s.flush()
		s.reset()
		s.FlushCount++
		return out
	}

	oclc := line.Metadata.OCLCNumber
	if s.currentID != nil && *oclc != *s.currentID {
		out := s.flush()
		s.reset()
		s.currentID = oclc
		s.FlushCount++
		s.merge(line)
		return out
	}

	if s.currentID == nil {
		s.currentID = oclc
	}
	s.merge(line)
	return nil
}

func (s *State) merge(line recordio.Line) {
	record := line.Metadata.Record
	for _, isbn := range record.AllISBNs() {
		s.isbns[isbn] = struct{}{}
	}

	if holdings, ok := record.Holdings(); ok {
		if s.holdings == nil || holdings > *s.holdings {
			h := holdings
			s.holdings = &h
		}
	}

	dates := record.DateFields()
	if y, ok := yearextract.ExtractMostLikely(dates[:]); ok {
		if s.year == nil || y < *s.year {
			yy := y
			s.year = &yy
		}
	}
}

func (s *State) reset() {
	s.currentID = nil
	s.isbns = make(map[string]struct{})
	s.holdings = nil
	s.year = nil
}

// flush builds the encoded bytes for the current book, or nil if it has no
// positions or carries neither holdings nor year (§4.4 step 4).
func (s *State) flush() []byte {
	if len(s.isbns) == 0 {
		return nil
	}

	verified := make(map[string]struct{}, len(s.isbns))
	for isbn := range s.isbns {
		if isbnpos.Verify(isbn) {
			verified[isbn] = struct{}{}
		}
	}
	kept := isbnfilter.Filter(verified)

	positionSet := make(map[uint32]struct{}, len(kept))
	for isbn := range kept {
		pos, ok := isbnpos.Position(isbn)
		if !ok {
			continue
		}
		positionSet[isbnpos.FixMisprefixed(pos)] = struct{}{}
	}

	if len(positionSet) == 0 || (s.holdings == nil && s.year == nil) {
		return nil
	}

	positions := make([]uint32, 0, len(positionSet))
	for pos := range positionSet {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })

	return bookrecord.Encode(positions, s.holdings, s.year)
}
