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

package tiles

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestRenderChannelSingleNonZeroPixel(t *testing.T) {
	tensor := NewAttrTensor()
	tensor.updateYear(7, 3, 2020) // encodes to (2025-2020)+1 = 6

	outDir := t.TempDir()
	if err := RenderChannel(tensor.Year, 0, outDir, "year"); err != nil {
		t.Fatalf("RenderChannel: %v", err)
	}

	path := filepath.Join(outDir, "year", "50_00_0_0.png")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	bounds := img.Bounds()
	var nonZero, total int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			total++
			r, _, _, _ := img.At(x, y).RGBA()
			if r>>8 != 0 {
				nonZero++
				if x != 3 || y != 7 {
					t.Fatalf("unexpected nonzero pixel at (%d,%d)", x, y)
				}
				if got := r >> 8; got != 6 {
					t.Fatalf("pixel value = %d, want 6", got)
				}
			}
		}
	}
	if nonZero != 1 {
		t.Fatalf("nonZero pixel count = %d, want 1 (of %d total)", nonZero, total)
	}
}

func TestRenderChannelPropagatesToEveryScale(t *testing.T) {
	tensor := NewAttrTensor()
	tensor.updateYear(9999, 9999, 2000)

	outDir := t.TempDir()
	if err := RenderChannel(tensor.Year, 7, outDir, "year"); err != nil {
		t.Fatalf("RenderChannel: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(outDir, "year"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != len(Scales) {
		t.Fatalf("wrote %d tile files, want %d (one per scale)", len(entries), len(Scales))
	}
}

func TestRenderCoverageEmitsEveryScale(t *testing.T) {
	block := NewCoverageBlock()
	SetCoverage(block, 42, 17)

	outDir := t.TempDir()
	if err := RenderCoverage(block, 0, outDir, "md5"); err != nil {
		t.Fatalf("RenderCoverage: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(outDir, "md5"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	// The single set bit survives into exactly one tile per coverage
	// scale, including the density-remapped steep factors.
	if len(entries) != len(CoverageScales) {
		t.Fatalf("wrote %d tile files, want %d", len(entries), len(CoverageScales))
	}
}

func TestRenderCoverageIsolatedPixelSurvivesSteepReduction(t *testing.T) {
	block := NewCoverageBlock()
	SetCoverage(block, 42, 17)

	outDir := t.TempDir()
	if err := RenderCoverage(block, 0, outDir, "md5"); err != nil {
		t.Fatalf("RenderCoverage: %v", err)
	}

	// At (1, 50) the whole prefix reduces to one 200x200 tile; the lone
	// pixel's 50x50 block has density 1/2500, which the remap pins to 1.
	f, err := os.Open(filepath.Join(outDir, "md5", "1_00_0_0.png"))
	if err != nil {
		t.Fatalf("expected 1_00_0_0.png: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	r, _, _, _ := img.At(42/50, 17/50).RGBA()
	if got := r >> 8; got != 1 {
		t.Fatalf("remapped pixel value = %d, want 1", got)
	}
}

func TestSplitAttrByMaskZeroesOpposingSide(t *testing.T) {
	tensor := NewAttrTensor()
	tensor.updateYear(1, 1, 2000)
	tensor.updateYear(2, 2, 1990)

	mask := NewCoverageBlock()
	SetCoverage(mask, 1, 1) // (x=1,y=1) -> row=1,col=1

	in, out := SplitAttrByMask(tensor, mask)
	if in.Year[idx(1, 1)] == 0 {
		t.Fatal("expected masked-in pixel to survive in tensorIn")
	}
	if in.Year[idx(2, 2)] != 0 {
		t.Fatal("expected unmasked pixel to be zeroed in tensorIn")
	}
	if out.Year[idx(1, 1)] != 0 {
		t.Fatal("expected masked-in pixel to be zeroed in tensorOut")
	}
	if out.Year[idx(2, 2)] == 0 {
		t.Fatal("expected unmasked pixel to survive in tensorOut")
	}
}
