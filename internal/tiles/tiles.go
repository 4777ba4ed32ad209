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

// Package tiles builds per-prefix attribute tensors and coverage
// bitmaps from decoded book records and packed ISBN runs, splits them
// by a reference coverage mask, and rasterizes the result into a
// multi-scale PNG tile pyramid.
package tiles

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/bibliocorpus/isbn-atlas/internal/bookrecord"
	"github.com/bibliocorpus/isbn-atlas/internal/isbnpos"
	"github.com/bibliocorpus/isbn-atlas/internal/isbnruns"
)

// Dim is the width and height, in pixels, of one prefix's attribute
// tensor and coverage bitmap.
const Dim = 10000

// yearBase mirrors bookrecord's wire-format year base; tile pixels
// encode (2025-year)+1 rather than the raw holdings-style clamp so that
// 0 is reserved for "no year known" and still sorts oldest-last under
// max-reduction.
const yearBase = 2025

// AttrTensor holds one prefix's two attribute channels: the reddest
// (oldest) year touching each pixel, and the darkest (highest-holdings)
// encoding touching each pixel. ZeroHoldings marks pixels whose holdings
// count was exactly zero, used for downstream styling only.
type AttrTensor struct {
	Year         []uint8
	Holdings     []uint8
	ZeroHoldings []bool
}

// NewAttrTensor allocates an empty, fully-zeroed tensor.
func NewAttrTensor() *AttrTensor {
	return &AttrTensor{
		Year:         make([]uint8, Dim*Dim),
		Holdings:     make([]uint8, Dim*Dim),
		ZeroHoldings: make([]bool, Dim*Dim),
	}
}

func idx(row, col int) int { return row*Dim + col }

func (t *AttrTensor) updateYear(row, col int, year int) {
	encoded := yearBase - year + 1
	if encoded < 0 {
		encoded = 0
	}
	if encoded > 255 {
		encoded = 255
	}
	i := idx(row, col)
	if byte(encoded) > t.Year[i] {
		t.Year[i] = byte(encoded)
	}
}

func (t *AttrTensor) updateHoldings(row, col, holdings int) {
	i := idx(row, col)
	if holdings == 0 {
		t.ZeroHoldings[i] = true
		return
	}
	encoded := 256 - holdings
	if encoded < 1 {
		encoded = 1
	}
	if t.Holdings[i] == 0 {
		t.Holdings[i] = byte(encoded)
	} else if byte(encoded) < t.Holdings[i] {
		t.Holdings[i] = byte(encoded)
	}
}

// PrefixTensors maps prefix id to its owned tensor, allocated lazily so
// a prefix with no positions is never materialized.
type PrefixTensors map[int]*AttrTensor

// BuildAttrTensors walks every decoded record's ISBN positions and
// folds their year/holdings attributes into per-prefix tensors. Records
// carrying no year and a zero holdings count contribute nothing and are
// skipped outright.
func BuildAttrTensors(records []bookrecord.Record) PrefixTensors {
	out := make(PrefixTensors)
	for _, rec := range records {
		if rec.Year == nil && rec.Holdings != nil && *rec.Holdings == 0 {
			continue
		}
		for _, pos := range rec.ISBNPositions {
			prefix := int(pos / isbnruns.PrefixSpan)
			remainder := int(pos % isbnruns.PrefixSpan)
			col, row := isbnpos.CodePos(uint32(remainder))

			tensor, ok := out[prefix]
			if !ok {
				tensor = NewAttrTensor()
				out[prefix] = tensor
			}
			if rec.Year != nil {
				tensor.updateYear(row, col, *rec.Year)
			}
			if rec.Holdings != nil {
				tensor.updateHoldings(row, col, *rec.Holdings)
			}
		}
	}
	return out
}

// CoverageBlock is a prefix's 10,000x10,000 presence bitmap, the Block
// implementation isbnruns.Decoder is parameterized over when decoding a
// named set from an ISBN-runs bundle.
type CoverageBlock struct {
	Bits []bool
}

// NewCoverageBlock allocates an empty coverage block; passed as
// isbnruns.Decoder's CreateBlock callback.
func NewCoverageBlock() *CoverageBlock {
	return &CoverageBlock{Bits: make([]bool, Dim*Dim)}
}

// SetCoverage marks (x, y) present; passed as isbnruns.Decoder's
// AddToBlock callback.
func SetCoverage(b *CoverageBlock, x, y int) {
	b.Bits[idx(y, x)] = true
}

// SplitAttrByMask partitions tensor into tensorIn (pixels where mask is
// set) and tensorOut (pixels where it isn't); values on the opposing
// side are left at zero.
func SplitAttrByMask(tensor *AttrTensor, mask *CoverageBlock) (in, out *AttrTensor) {
	in, out = NewAttrTensor(), NewAttrTensor()
	for i := range tensor.Year {
		if mask != nil && mask.Bits[i] {
			in.Year[i] = tensor.Year[i]
			in.Holdings[i] = tensor.Holdings[i]
			in.ZeroHoldings[i] = tensor.ZeroHoldings[i]
		} else {
			out.Year[i] = tensor.Year[i]
			out.Holdings[i] = tensor.Holdings[i]
			out.ZeroHoldings[i] = tensor.ZeroHoldings[i]
		}
	}
	return in, out
}

// OrInto folds src's present pixels into dst (logical-or), used to build
// the "all sets" union coverage block across every named set in a
// bundle.
func OrInto(dst, src *CoverageBlock) {
	for i, present := range src.Bits {
		if present {
			dst.Bits[i] = true
		}
	}
}

// SplitCoverageByMask partitions set into setIn (pixels also present in
// mask) and setOut (pixels not present in mask).
func SplitCoverageByMask(set, mask *CoverageBlock) (in, out *CoverageBlock) {
	in, out = NewCoverageBlock(), NewCoverageBlock()
	for i, present := range set.Bits {
		if !present {
			continue
		}
		if mask != nil && mask.Bits[i] {
			in.Bits[i] = true
		} else {
			out.Bits[i] = true
		}
	}
	return in, out
}

// Scale is one (divisions, factor) entry in the tile pyramid: the
// canvas is divided into divisions*divisions tiles, each of size
// 10000/divisions, downsampled by a block factor*factor reduction.
type Scale struct {
	Divisions int
	Factor    int
}

// Scales is the fixed six-level pyramid attribute channels render at.
var Scales = []Scale{
	{1, 50}, {2, 25}, {5, 10}, {10, 5}, {20, 2}, {50, 1},
}

// CoverageScales is the pyramid coverage bitmaps render at: the top of
// the pyramid matches Scales, but coverage bottoms out at a full-detail
// 20-division crop instead of the 50-division scale.
var CoverageScales = []Scale{
	{1, 50}, {2, 25}, {5, 10}, {10, 5}, {20, 1},
}

// tileName formats the standard tile filename.
func tileName(divisions, prefix, i, j int) string {
	return fmt.Sprintf("%d_%02d_%d_%d.png", divisions, prefix, i, j)
}

// remapDensity applies the floating-point anti-quantization remap used
// for steep coverage downsampling: mean is the block's coverage density
// in [0, 1], and a block holding even a single present pixel (density
// exactly 1/factor^2) maps to 1 instead of being crushed to zero by
// integer quantization. An empty block stays 0.
func remapDensity(mean float64, factor int) byte {
	if mean == 0 {
		return 0
	}
	k := 1.0 / float64(factor*factor)
	r := (mean-k)/(1-k)*254 + 1
	if r < 1 {
		r = 1
	}
	if r > 255 {
		r = 255
	}
	return byte(r + 0.5)
}

// reduceBlockMaxByte computes the per-block max over a factor*factor
// source region of a Dim*Dim channel starting at (row0, col0).
func reduceBlockMaxByte(channel []uint8, row0, col0, factor int) byte {
	var max byte
	for dr := 0; dr < factor; dr++ {
		r := row0 + dr
		if r >= Dim {
			break
		}
		base := r * Dim
		for dc := 0; dc < factor; dc++ {
			c := col0 + dc
			if c >= Dim {
				break
			}
			if v := channel[base+c]; v > max {
				max = v
			}
		}
	}
	return max
}

// reduceBlockCoverage downsamples one factor*factor block of a coverage
// bitmap: logical-or below factor 16, floating-point density with the
// anti-quantization remap at 16 and above.
func reduceBlockCoverage(bits []bool, row0, col0, factor int) byte {
	if factor < 16 {
		for dr := 0; dr < factor; dr++ {
			r := row0 + dr
			if r >= Dim {
				break
			}
			base := r * Dim
			for dc := 0; dc < factor; dc++ {
				c := col0 + dc
				if c >= Dim {
					break
				}
				if bits[base+c] {
					return 255
				}
			}
		}
		return 0
	}

	var present int
	for dr := 0; dr < factor; dr++ {
		r := row0 + dr
		if r >= Dim {
			break
		}
		base := r * Dim
		for dc := 0; dc < factor; dc++ {
			c := col0 + dc
			if c >= Dim {
				break
			}
			if bits[base+c] {
				present++
			}
		}
	}
	return remapDensity(float64(present)/float64(factor*factor), factor)
}

// RenderChannel rasterizes one attribute channel across every Scales
// entry, writing one grayscale PNG per non-empty tile under
// outDir/<channelName>/.
func RenderChannel(channel []uint8, prefix int, outDir, channelName string) error {
	dir := filepath.Join(outDir, channelName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, sc := range Scales {
		if err := renderScale(channel, nil, prefix, sc, dir); err != nil {
			return err
		}
	}
	return nil
}

// RenderCoverage rasterizes a coverage bitmap across every
// CoverageScales entry, writing one PNG per non-empty tile under
// outDir/<setName>/: 1-bit below factor 16, 8-bit grayscale at the
// density-remapped steep factors.
func RenderCoverage(set *CoverageBlock, prefix int, outDir, setName string) error {
	dir := filepath.Join(outDir, setName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, sc := range CoverageScales {
		if err := renderScale(nil, set.Bits, prefix, sc, dir); err != nil {
			return err
		}
	}
	return nil
}

func renderScale(channel []uint8, bits []bool, prefix int, sc Scale, dir string) error {
	n := Dim / sc.Divisions
	tileDim := n / sc.Factor
	if tileDim == 0 {
		tileDim = 1
	}

	for i := 0; i < sc.Divisions; i++ {
		for j := 0; j < sc.Divisions; j++ {
			pixels := make([]byte, tileDim*tileDim)
			var nonZero bool
			for ti := 0; ti < tileDim; ti++ {
				for tj := 0; tj < tileDim; tj++ {
					row0 := i*n + ti*sc.Factor
					col0 := j*n + tj*sc.Factor
					var v byte
					if channel != nil {
						v = reduceBlockMaxByte(channel, row0, col0, sc.Factor)
					} else {
						v = reduceBlockCoverage(bits, row0, col0, sc.Factor)
					}
					if v != 0 {
						nonZero = true
					}
					pixels[ti*tileDim+tj] = v
				}
			}
			if !nonZero {
				continue
			}

			name := tileName(sc.Divisions, prefix, i, j)
			path := filepath.Join(dir, name)
			var err error
			if channel != nil || sc.Factor >= 16 {
				err = writeGrayPNG(path, pixels, tileDim, tileDim)
			} else {
				err = writeBilevelPNG(path, pixels, tileDim, tileDim)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func writeGrayPNG(path string, pixels []byte, w, h int) error {
	img := image.NewGray(image.Rect(0, 0, w, h))
	copy(img.Pix, pixels)
	return encodePNG(path, img)
}

func writeBilevelPNG(path string, pixels []byte, w, h int) error {
	palette := color.Palette{color.Black, color.White}
	img := image.NewPaletted(image.Rect(0, 0, w, h), palette)
	for i, v := range pixels {
		if v != 0 {
			img.Pix[i] = 1
		}
	}
	return encodePNG(path, img)
}

func encodePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
