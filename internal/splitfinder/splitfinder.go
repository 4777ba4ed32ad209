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

// Package splitfinder locates N-1 byte offsets inside a seekable zstd
// stream of OCLC-grouped JSON lines that divide it into N independently
// decodable ranges, none of which splits a book group in two.
package splitfinder

import (
	"bufio"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/bibliocorpus/isbn-atlas/internal/pipelineerr"
	"github.com/bibliocorpus/isbn-atlas/internal/recordio"
)

// frameMagic is the 4-byte zstd frame header magic number.
var frameMagic = [4]byte{0x28, 0xB5, 0x2F, 0xFD}

const scanChunk = 4096

// SplitPoint is one (frame_offset, aacid) pair: the byte offset of the
// zstd frame a worker should seek to, and the aacid of the first
// admissible line after that frame, used to discard any lines before it
// that belong to the preceding worker's book group.
type SplitPoint struct {
	FrameOffset int64
	AACID       string
}

// Find computes n-1 split points dividing the file at path into n
// ranges, each independently decodable and each landing on a book-group
// boundary.
func Find(path string, n int) ([]SplitPoint, error) {
	if n <= 1 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()

	splits := make([]SplitPoint, 0, n-1)
	for k := 1; k < n; k++ {
		target := int64(k) * size / int64(n)
		sp, err := findOne(f, target, size)
		if err != nil {
			return nil, err
		}
		splits = append(splits, sp)
	}
	return splits, nil
}

// findOne locates the split point nearest target by repeatedly scanning
// forward for the zstd frame magic and testing whether the frame it
// introduces contains a valid OCLC-id boundary (§4.6 steps 2-5).
func findOne(f *os.File, target, size int64) (SplitPoint, error) {
	searchFrom := target
	if searchFrom > 4 {
		searchFrom -= 4
	} else {
		searchFrom = 0
	}

	for {
		frameOffset, err := scanForMagic(f, searchFrom, size)
		if err != nil {
			return SplitPoint{}, pipelineerr.New(pipelineerr.FramingError, &pipelineerr.FrameScanError{
				TargetOffset: target,
				FrameOffset:  searchFrom,
				ScanEnd:      size,
				Reason:       "no zstd frame magic found before end of stream",
			})
		}

		aacid, ok, err := findBoundaryInFrame(f, frameOffset, size)
		if err != nil {
			return SplitPoint{}, err
		}
		if ok {
			return SplitPoint{FrameOffset: frameOffset, AACID: aacid}, nil
		}

		// No OCLC boundary in this frame; resume scanning one byte past
		// the magic we just tried (§4.6 step 5).
		searchFrom = frameOffset + 1
		if searchFrom >= size {
			return SplitPoint{}, pipelineerr.New(pipelineerr.FramingError, &pipelineerr.FrameScanError{
				TargetOffset: target,
				FrameOffset:  frameOffset,
				ScanEnd:      size,
				Reason:       "reached end of stream without a valid OCLC boundary",
			})
		}
	}
}

// scanForMagic searches for frameMagic starting at from, in scanChunk
// windows, backing each window up by 3 bytes to catch a magic straddling
// a chunk boundary.
func scanForMagic(f *os.File, from, size int64) (int64, error) {
	pos := from
	var carry []byte

	for pos < size {
		buf := make([]byte, scanChunk)
		n, err := f.ReadAt(buf, pos)
		if n == 0 && err != nil && err != io.EOF {
			return 0, err
		}
		window := append(carry, buf[:n]...)

		if idx := indexMagic(window); idx >= 0 {
			return pos - int64(len(carry)) + int64(idx), nil
		}

		if len(window) >= 3 {
			carry = append([]byte(nil), window[len(window)-3:]...)
		} else {
			carry = window
		}
		pos += int64(n)
		if err == io.EOF || n == 0 {
			break
		}
	}
	return 0, io.EOF
}

func indexMagic(b []byte) int {
	for i := 0; i+4 <= len(b); i++ {
		if b[i] == frameMagic[0] && b[i+1] == frameMagic[1] && b[i+2] == frameMagic[2] && b[i+3] == frameMagic[3] {
			return i
		}
	}
	return -1
}

// findBoundaryInFrame attaches a fresh decompressor at frameOffset and
// looks for the first pair of consecutive JSON lines whose OCLC ids
// differ, tolerating malformed lines until the line stream is
// synchronized with frame boundaries.
func findBoundaryInFrame(f *os.File, frameOffset, size int64) (string, bool, error) {
	dec, err := zstd.NewReader(io.NewSectionReader(f, frameOffset, size-frameOffset))
	if err != nil {
		return "", false, nil
	}
	defer dec.Close()

	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var prevID *string
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		line, err := recordio.ParseLine(raw)
		if err != nil || line.Metadata.OCLCNumber == nil {
			continue
		}
		curr := *line.Metadata.OCLCNumber
		if prevID != nil && curr != *prevID {
			return line.AACID, true, nil
		}
		prevID = &curr
	}
	return "", false, nil
}
