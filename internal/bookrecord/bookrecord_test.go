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

package bookrecord

import (
	"bytes"
	"reflect"
	"testing"
)

func intp(v int) *int { return &v }

func TestEncodeSingleFieldScenario(t *testing.T) {
	// spec.md end-to-end scenario 1: holdings=5, year=2000, one position.
	got := Encode([]uint32{1}, intp(5), intp(2000))
	want := []byte{0xC1, 5, 25, 0, 0, 0, 1}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode = % x, want % x", got, want)
	}
}

func TestEncodeChunking(t *testing.T) {
	positions := make([]uint32, 20)
	for i := range positions {
		positions[i] = uint32(i + 1)
	}
	got := Encode(positions, intp(1), nil)

	if len(got) != (1+1+15*4)+(1+1+5*4) {
		t.Fatalf("unexpected total length %d", len(got))
	}
	if got[0]&0x0F != 15 {
		t.Fatalf("first chunk count = %d, want 15", got[0]&0x0F)
	}
	firstFlags := got[0] &^ 0x0F
	secondChunkStart := 1 + 1 + 15*4
	if got[secondChunkStart]&0x0F != 5 {
		t.Fatalf("second chunk count = %d, want 5", got[secondChunkStart]&0x0F)
	}
	if got[secondChunkStart]&^0x0F != firstFlags {
		t.Fatalf("chunk flag bits differ: %08b vs %08b", got[secondChunkStart]&^0x0F, firstFlags)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		positions []uint32
		holdings  *int
		year      *int
	}{
		{"holdings and year", []uint32{1, 2, 3}, intp(7), intp(1999)},
		{"holdings only", []uint32{42}, intp(0), nil},
		{"year only", []uint32{1000, 2000, 3000}, nil, intp(2024)},
		{"many positions", seq(31), intp(3), intp(1980)},
		{"empty positions with holdings", nil, intp(9), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode(tt.positions, tt.holdings, tt.year)
			dec := NewDecoder(bytes.NewReader(encoded))
			records, err := dec.DecodeAll()
			if err != nil {
				t.Fatalf("DecodeAll: %v", err)
			}

			var gotPositions []uint32
			for _, rec := range records {
				gotPositions = append(gotPositions, rec.ISBNPositions...)
				if (tt.holdings == nil) != (rec.Holdings == nil) {
					t.Fatalf("holdings presence mismatch: want %v got %v", tt.holdings, rec.Holdings)
				}
				if tt.holdings != nil && *rec.Holdings != *tt.holdings {
					t.Fatalf("holdings = %d, want %d", *rec.Holdings, *tt.holdings)
				}
				if (tt.year == nil) != (rec.Year == nil) {
					t.Fatalf("year presence mismatch: want %v got %v", tt.year, rec.Year)
				}
				if tt.year != nil && *rec.Year != *tt.year {
					t.Fatalf("year = %d, want %d", *rec.Year, *tt.year)
				}
			}
			if len(tt.positions) == 0 {
				gotPositions = nil
			}
			if !reflect.DeepEqual(gotPositions, tt.positions) {
				t.Fatalf("positions = %v, want %v", gotPositions, tt.positions)
			}
		})
	}
}

func TestDecodeIncomplete(t *testing.T) {
	full := Encode([]uint32{1}, intp(5), intp(2000))
	truncated := full[:len(full)-2]
	dec := NewDecoder(bytes.NewReader(truncated))
	if _, err := dec.Next(); err != ErrIncomplete {
		t.Fatalf("Next() error = %v, want ErrIncomplete", err)
	}
}

func TestDecodeEmptyStream(t *testing.T) {
	dec := NewDecoder(bytes.NewReader(nil))
	records, err := dec.DecodeAll()
	if err != nil || len(records) != 0 {
		t.Fatalf("DecodeAll() = (%v, %v), want (nil, nil)", records, err)
	}
}

func TestDecodeForwardCompatibleSixBitCount(t *testing.T) {
	// The decoder honors all 6 low bits of the start byte even though the
	// encoder here never emits more than 15 (0x0F) per chunk.
	buf := []byte{0b00100000} // has_count=0, has_year=0, count=32... but no
	// payload follows, so this should report incomplete rather than crash.
	dec := NewDecoder(bytes.NewReader(buf))
	if _, err := dec.Next(); err != ErrIncomplete {
		t.Fatalf("Next() error = %v, want ErrIncomplete", err)
	}
}

func seq(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i + 100)
	}
	return out
}
