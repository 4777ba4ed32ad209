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

// Package isbnruns decodes the packed present/gap run-length encoding of
// an ISBN position set: alternating little-endian uint32
// present_count/gap_count values, starting with a present_count, walking
// positions from 0 upward. It streams one block per 100,000,000-position
// prefix, so a caller can render per-prefix bitmaps without holding the
// whole position space in memory at once.
package isbnruns

import (
	"encoding/binary"
	"io"

	"github.com/bibliocorpus/isbn-atlas/internal/isbnpos"
)

// PrefixSpan is the number of ISBN positions covered by one streamed
// block.
const PrefixSpan = 100_000_000

// Decoder walks a packed run stream, handing off each present position
// to AddToBlock and each prefix boundary to the yield callback passed to
// Decode. CreateBlock and AddToBlock are the two abstract operations a
// caller supplies (a bitmap, a boolean tensor, anything indexable by a
// pixel coordinate); Decoder has no opinion about their representation.
type Decoder[B any] struct {
	CreateBlock func() B
	AddToBlock  func(block B, x, y int)
}

// NewDecoder returns a Decoder using the given block constructor and
// mutator.
func NewDecoder[B any](createBlock func() B, addToBlock func(block B, x, y int)) *Decoder[B] {
	return &Decoder[B]{CreateBlock: createBlock, AddToBlock: addToBlock}
}

// Decode streams r's packed runs, invoking yield once per completed
// prefix block (prefixID, block) in increasing prefix order, plus one
// final call for the trailing (possibly empty) block at stream end.
func (d *Decoder[B]) Decode(r io.Reader, yield func(prefixID int, block B) error) error {
	var position int64
	offset := int64(0)
	block := d.CreateBlock()
	isPresent := true

	var buf [4]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		count := int64(binary.LittleEndian.Uint32(buf[:]))

		if isPresent {
			for i := int64(0); i < count; i++ {
				x, y := isbnpos.CodePos(uint32(position - offset))
				d.AddToBlock(block, x, y)
				position++
				if position-offset >= PrefixSpan {
					if err := yield(int(offset/PrefixSpan), block); err != nil {
						return err
					}
					offset += PrefixSpan
					block = d.CreateBlock()
				}
			}
		} else {
			// A gap never touches a pixel, so crossed boundaries can be
			// resolved by arithmetic instead of a per-position walk.
			position += count
			for position-offset >= PrefixSpan {
				if err := yield(int(offset/PrefixSpan), block); err != nil {
					return err
				}
				offset += PrefixSpan
				block = d.CreateBlock()
			}
		}
		isPresent = !isPresent
	}

	return yield(int(offset/PrefixSpan), block)
}
