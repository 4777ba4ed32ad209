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

package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/bibliocorpus/isbn-atlas/internal/bookrecord"
	"github.com/bibliocorpus/isbn-atlas/internal/pipelineerr"
)

// buildCorpus writes numGroups book groups (one ISBN + a holdings count
// each) spread across numFrames independently-compressed zstd frames, so
// that any split point the finder chooses still lands on a frame
// boundary somewhere inside the file.
func buildCorpus(t *testing.T, numGroups, numFrames int) string {
	t.Helper()

	var lines [][]byte
	for g := 0; g < numGroups; g++ {
		line := fmt.Sprintf(`{"aacid":"aacid:%05d","metadata":{"oclc_number":%q,"record":{"isbns":["9780306406157"],"totalHoldingCount":%d,"date":"1966"}}}`,
			g, fmt.Sprintf("oclc-%d", g), g%50+1)
		lines = append(lines, []byte(line))
	}

	groupsPerFrame := (numGroups + numFrames - 1) / numFrames
	var out bytes.Buffer
	idx := 0
	for frame := 0; frame < numFrames && idx < len(lines); frame++ {
		var buf bytes.Buffer
		w, err := zstd.NewWriter(&buf)
		if err != nil {
			t.Fatalf("zstd.NewWriter: %v", err)
		}
		end := idx + groupsPerFrame
		if end > len(lines) {
			end = len(lines)
		}
		for ; idx < end; idx++ {
			w.Write(lines[idx])
			w.Write([]byte("\n"))
		}
		if err := w.Close(); err != nil {
			t.Fatalf("zstd Close: %v", err)
		}
		out.Write(buf.Bytes())
	}

	path := filepath.Join(t.TempDir(), "corpus.zst")
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func decodeRecordCount(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	dec := bookrecord.NewDecoder(bytes.NewReader(data))
	recs, err := dec.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	return len(recs)
}

func TestRunHonorsPreSetCancelFlag(t *testing.T) {
	input := buildCorpus(t, 10, 1)
	outPath := filepath.Join(t.TempDir(), "out.bin")

	var cancel atomic.Bool
	cancel.Store(true)
	_, err := Run(Options{InputPath: input, OutputPath: outPath, Workers: 1, Cancel: &cancel})
	if !pipelineerr.Is(err, pipelineerr.Cancelled) {
		t.Fatalf("Run with cancel set = %v, want Cancelled", err)
	}
}

func TestRunSingleWorker(t *testing.T) {
	input := buildCorpus(t, 30, 3)
	outPath := filepath.Join(t.TempDir(), "out.bin")

	stats, err := Run(Options{InputPath: input, OutputPath: outPath, Workers: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.RecordsFlushed != 30 {
		t.Fatalf("RecordsFlushed = %d, want 30", stats.RecordsFlushed)
	}
	if got := decodeRecordCount(t, outPath); got != 30 {
		t.Fatalf("decoded record count = %d, want 30", got)
	}
}

func TestRunParallelMatchesSingleWorker(t *testing.T) {
	input := buildCorpus(t, 120, 8)

	singlePath := filepath.Join(t.TempDir(), "single.bin")
	if _, err := Run(Options{InputPath: input, OutputPath: singlePath, Workers: 1}); err != nil {
		t.Fatalf("Run(single): %v", err)
	}

	parallelPath := filepath.Join(t.TempDir(), "parallel.bin")
	stats, err := Run(Options{InputPath: input, OutputPath: parallelPath, Workers: 4})
	if err != nil {
		t.Fatalf("Run(parallel): %v", err)
	}
	if stats.RecordsFlushed != 120 {
		t.Fatalf("RecordsFlushed = %d, want 120", stats.RecordsFlushed)
	}

	singleCount := decodeRecordCount(t, singlePath)
	parallelCount := decodeRecordCount(t, parallelPath)
	if singleCount != parallelCount {
		t.Fatalf("single-worker produced %d records, parallel produced %d", singleCount, parallelCount)
	}

	// Worker-id ordering makes the parallel output byte-identical to the
	// sequential one, not just record-equivalent.
	single, err := os.ReadFile(singlePath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	parallel, err := os.ReadFile(parallelPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(single, parallel) {
		t.Fatal("parallel output bytes differ from single-worker output")
	}
}
