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

package isbnruns

import (
	"bytes"
	"encoding/binary"
	"testing"
)

type countingBlock struct {
	points map[[2]int]bool
}

func newCountingBlock() *countingBlock {
	return &countingBlock{points: make(map[[2]int]bool)}
}

func addPoint(b *countingBlock, x, y int) {
	b.points[[2]int{x, y}] = true
}

func packRuns(runs ...uint32) []byte {
	var buf bytes.Buffer
	for _, r := range runs {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], r)
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func TestPresentCountConservation(t *testing.T) {
	// present=5, gap=3, present=2 => 7 present positions total, all
	// inside one prefix block.
	data := packRuns(5, 3, 2)
	dec := NewDecoder(newCountingBlock, addPoint)

	var totalPresent int
	var blocksSeen int
	err := dec.Decode(bytes.NewReader(data), func(prefixID int, b *countingBlock) error {
		blocksSeen++
		totalPresent += len(b.points)
		return nil
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if totalPresent != 7 {
		t.Fatalf("totalPresent = %d, want 7", totalPresent)
	}
	if blocksSeen != 1 {
		t.Fatalf("blocksSeen = %d, want 1 (only the trailing block)", blocksSeen)
	}
}

func TestEmptyStreamYieldsOneEmptyBlock(t *testing.T) {
	dec := NewDecoder(newCountingBlock, addPoint)
	var blocksSeen int
	var prefixes []int
	err := dec.Decode(bytes.NewReader(nil), func(prefixID int, b *countingBlock) error {
		blocksSeen++
		prefixes = append(prefixes, prefixID)
		if len(b.points) != 0 {
			t.Fatalf("expected empty block, got %d points", len(b.points))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if blocksSeen != 1 || prefixes[0] != 0 {
		t.Fatalf("blocksSeen=%d prefixes=%v, want one block with prefix 0", blocksSeen, prefixes)
	}
}

func TestCrossesPrefixBoundary(t *testing.T) {
	// A gap of PrefixSpan-5 parks position just before the boundary
	// without touching any pixels; the following present run of 10
	// straddles it, landing 5 positions in the first block and 5 in the
	// second. This exercises the same boundary-crossing logic a
	// PrefixSpan-sized present run would, without the test needing to
	// actually set a hundred million pixels.
	data := packRuns(0, uint32(PrefixSpan-5), 10)
	dec := NewDecoder(newCountingBlock, addPoint)

	var counts []int
	var prefixes []int
	err := dec.Decode(bytes.NewReader(data), func(prefixID int, b *countingBlock) error {
		counts = append(counts, len(b.points))
		prefixes = append(prefixes, prefixID)
		return nil
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("got %d blocks, want 2: %v", len(counts), counts)
	}
	if prefixes[0] != 0 || prefixes[1] != 1 {
		t.Fatalf("prefixes = %v, want [0 1]", prefixes)
	}
	if counts[0] != 5 || counts[1] != 5 {
		t.Fatalf("counts = %v, want [5 5]", counts)
	}
}

func TestGapOnlyProducesEmptyBlock(t *testing.T) {
	data := packRuns(0, 100)
	dec := NewDecoder(newCountingBlock, addPoint)

	var totalPresent int
	err := dec.Decode(bytes.NewReader(data), func(prefixID int, b *countingBlock) error {
		totalPresent += len(b.points)
		return nil
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if totalPresent != 0 {
		t.Fatalf("totalPresent = %d, want 0", totalPresent)
	}
}
