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

// Package plot builds the low-resolution allocation overview images used
// by the agency- and publisher-range renderers: six 1-bit bitmaps whose
// resolution steps tenfold per level, one dimension at a time, covering
// the full ISBN canvas, one pixel per
// registration-group-sized cell rather than per ISBN.
package plot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bibliocorpus/isbn-atlas/internal/isbnpos"
)

// numPlots is the number of tenfold-stepped overview images init_plots
// builds, matching the reference tool's fixed six-level pyramid.
const numPlots = 6

// Bitmap is a 1-bit-per-pixel image, addressed densely as a []bool.
type Bitmap struct {
	W, H int
	bits []bool
}

// NewBitmap allocates a cleared w x h bitmap.
func NewBitmap(w, h int) *Bitmap {
	return &Bitmap{W: w, H: h, bits: make([]bool, w*h)}
}

// Set marks pixel (x, y). Out-of-range coordinates are ignored, matching
// the cheap tolerance of writing straight into a PIL image buffer.
func (b *Bitmap) Set(x, y int) {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return
	}
	b.bits[y*b.W+x] = true
}

func (b *Bitmap) at(x, y int) bool {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return false
	}
	return b.bits[y*b.W+x]
}

// rotated90 returns a new bitmap rotated 90 degrees counterclockwise,
// reorienting the narrow overview images to landscape for denser PNG
// storage.
func (b *Bitmap) rotated90() *Bitmap {
	out := NewBitmap(b.H, b.W)
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			if b.at(x, y) {
				out.Set(y, b.W-1-x)
			}
		}
	}
	return out
}

// pow10 computes 10^n for small non-negative n without floating point.
func pow10(n int) int {
	p := 1
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

// CellPos maps a decimal ISBN-prefix string onto a coarse (x, y) cell in
// whichever overview bitmap matches its length: the full-canvas position
// of isbn, divided by the full-canvas position of the widest possible
// suffix of the same length ('11' padded with zeros), so adjacent groups
// of the same prefix length land on the same cell.
func CellPos(isbn string) (x, y int) {
	px, py := isbnpos.CanvasPos(isbn)
	cellKey := "00" + strings.Repeat("0", len(isbn)-4) + "11"
	cw, ch := isbnpos.CanvasPos(cellKey)
	if cw == 0 {
		cw = 1
	}
	if ch == 0 {
		ch = 1
	}
	return px / cw, py / ch
}

// InitOverviews allocates the six overview bitmaps, ordered from smallest
// (index 0, 50x40) to largest (index numPlots-1, the full canvas split
// into 5,000x40,000 cells); each level is ten times the previous one in
// one dimension. Index size-4 (for an isbn of length `size`) is
// the bitmap a renderer should paint into.
func InitOverviews() []*Bitmap {
	dims := make([][2]int, numPlots)
	for i := 0; i < numPlots; i++ {
		w := isbnpos.CanvasWidth / pow10((i+2)/2)
		h := isbnpos.CanvasHeight / pow10((i+1)/2)
		dims[i] = [2]int{w, h}
	}
	for i, j := 0, len(dims)-1; i < j; i, j = i+1, j-1 {
		dims[i], dims[j] = dims[j], dims[i]
	}
	out := make([]*Bitmap, numPlots)
	for i, d := range dims {
		out[i] = NewBitmap(d[0], d[1])
	}
	return out
}

// SaveOverviews writes each bitmap into outDir as "{i}.png" or "{i}r.png"
// for the odd-indexed bitmaps, which are rotated to landscape first for
// better PNG compression, matching save_plots.
func SaveOverviews(images []*Bitmap, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for i, img := range images {
		rotated := i%2 == 1
		if rotated {
			img = img.rotated90()
		}
		suffix := ""
		if rotated {
			suffix = "r"
		}
		path := filepath.Join(outDir, fmt.Sprintf("%d%s.png", i, suffix))
		if err := writeBitmapPNG(img, path); err != nil {
			return err
		}
	}
	return nil
}

// RenderAgencyOverview paints one coarse bitmap, 1/100th of the full
// canvas in each dimension, filling a rectangle per agency-owned prefix:
// a 2-digit prefix covers the whole 10,000x10,000 block it roots, longer
// prefixes cover the narrower cell their extra digits carve out.
func RenderAgencyOverview(prefixes map[string]string) *Bitmap {
	img := NewBitmap(isbnpos.CanvasWidth/100, isbnpos.CanvasHeight/100)
	for prefix := range prefixes {
		x, y := isbnpos.CanvasPos(prefix)
		w, h := 10_000, 10_000
		if len(prefix) != 2 {
			w, h = isbnpos.CanvasPos(strings.Repeat("0", len(prefix)-2) + "11")
		}
		x0, y0 := x/100, y/100
		x1, y1 := (x+w)/100-1, (y+h)/100-1
		for py := y0; py <= y1; py++ {
			for px := x0; px <= x1; px++ {
				img.Set(px, py)
			}
		}
	}
	return img
}

// SaveBitmap writes a single bitmap as an optimized 1-bit PNG to path.
func SaveBitmap(b *Bitmap, path string) error {
	return writeBitmapPNG(b, path)
}

func writeBitmapPNG(b *Bitmap, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return encodeBitmapPNG(f, b)
}

func encodeBitmapPNG(w io.Writer, b *Bitmap) error {
	palette := color.Palette{color.Black, color.White}
	img := image.NewPaletted(image.Rect(0, 0, b.W, b.H), palette)
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			if b.at(x, y) {
				img.SetColorIndex(x, y, 1)
			}
		}
	}
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(w, img)
}
