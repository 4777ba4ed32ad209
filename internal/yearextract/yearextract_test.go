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

package yearextract

import "testing"

func TestExtractMostLikely(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want int
		ok   bool
	}{
		{"single year", []string{"1966"}, 1966, true},
		{"empty", nil, 0, false},
		{"no years", []string{"no years here"}, 0, false},
		{"too short", []string{"123"}, 0, false},
		{"too long", []string{"12345"}, 0, false},
		{"too early", []string{"1449"}, 0, false},
		{"future", []string{"2026"}, 0, false},
		{"mixed valid and invalid", []string{"1449", "1966"}, 1966, true},

		{"frequency wins a", []string{"1966", "1966", "1967"}, 1966, true},
		{"frequency wins b", []string{"1966", "1967", "1967"}, 1967, true},
		{"frequency wins c", []string{"1555", "1555", "1966"}, 1555, true},

		{"close tiebreak a", []string{"1966", "1967"}, 1966, true},
		{"close tiebreak b", []string{"1966", "1966", "1967", "1967"}, 1966, true},
		{"close tiebreak c", []string{"1965", "1966", "1967"}, 1965, true},

		{"distant tiebreak a", []string{"1555", "1966"}, 1966, true},
		{"distant tiebreak b", []string{"1555", "1555", "1966", "1966"}, 1966, true},

		{"frequency over proximity", []string{"1966", "1966", "1967", "1968"}, 1966, true},
		{"equal frequency then proximity", []string{"1555", "1555", "1966", "1967"}, 1555, true},
		{"multiple mentions in one string", []string{"1966-1967", "1966"}, 1966, true},
		{"surrounding text", []string{"Published in 1966", "Copyright 1966", "1967"}, 1966, true},

		{"dot separated", []string{"1966.1555"}, 1966, true},
		{"underscore separated", []string{"1966_1555"}, 1966, true},
		{"hyphen separated", []string{"1966-1967"}, 1966, true},
		{"with empties", []string{"", "", "1966"}, 1966, true},
		{"eight digit run never matches", []string{"19661967"}, 0, false},
		{"all empty", []string{"", ""}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractMostLikely(tt.in)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("ExtractMostLikely(%v) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
