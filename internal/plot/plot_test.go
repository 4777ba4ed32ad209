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

package plot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitOverviewsSizesGrowTenfoldPerLevel(t *testing.T) {
	imgs := InitOverviews()
	if len(imgs) != numPlots {
		t.Fatalf("len(imgs) = %d, want %d", len(imgs), numPlots)
	}
	last := imgs[len(imgs)-1]
	if last.W != 5000 || last.H != 40000 {
		t.Errorf("largest overview = %dx%d, want 5000x40000", last.W, last.H)
	}
	first := imgs[0]
	if first.W != 50 || first.H != 40 {
		t.Errorf("smallest overview = %dx%d, want 50x40", first.W, first.H)
	}
}

func TestCellPosWithinBounds(t *testing.T) {
	x, y := CellPos("0003064065")
	if x < 0 || y < 0 {
		t.Errorf("CellPos returned negative coordinates (%d, %d)", x, y)
	}
}

func TestSaveOverviewsWritesRotatedOddIndices(t *testing.T) {
	imgs := InitOverviews()
	dir := t.TempDir()
	if err := SaveOverviews(imgs, dir); err != nil {
		t.Fatalf("SaveOverviews: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "0.png")); err != nil {
		t.Errorf("expected 0.png: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "1r.png")); err != nil {
		t.Errorf("expected 1r.png: %v", err)
	}
}
