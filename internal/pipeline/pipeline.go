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

// Package pipeline splits a seekable zstd corpus into Chunks disjoint
// byte ranges, decodes and aggregates each range independently behind a
// semaphore bounding concurrency to Workers goroutines, and concatenates
// their output in strict range-id order. It is the Go-native mapping of
// the original multiprocessing driver: goroutines instead of OS
// processes, per-worker temp files instead of a cross-process result
// queue, a caller-supplied progress channel, and an atomic.Bool instead of
// a shared-memory cancel flag.
package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/bibliocorpus/isbn-atlas/internal/aggregator"
	"github.com/bibliocorpus/isbn-atlas/internal/pipelineerr"
	"github.com/bibliocorpus/isbn-atlas/internal/recordio"
	"github.com/bibliocorpus/isbn-atlas/internal/splitfinder"
)

// DefaultFlushThreshold is the per-worker output buffer size, in bytes,
// at which a worker writes its accumulated encoded records to its temp
// file.
const DefaultFlushThreshold = 4096

// DefaultProgressInterval is how many admitted lines a worker processes
// between ProgressUpdate emissions.
const DefaultProgressInterval = 1000

// ProgressUpdate reports one worker's incremental progress.
type ProgressUpdate struct {
	WorkerID          int
	CompressedDelta   int64
	UncompressedDelta int64
	RecordsDelta      int64
}

// Options configures one pipeline run.
type Options struct {
	InputPath      string
	OutputPath     string
	Workers        int
	Chunks         int
	FlushThreshold int
	ProgressSink   chan<- ProgressUpdate
	ProgressEvery  int
	Logger         *zap.Logger
	// Cancel, when non-nil, is polled by every worker between reads in
	// place of an internally-allocated flag, letting a caller plumb a
	// signal handler through to cooperative shutdown.
	Cancel *atomic.Bool
}

// Stats summarizes a completed run.
type Stats struct {
	RecordsFlushed int64
	MalformedLines int64
	BytesDecoded   int64
	BytesOut       int64
}

// Run executes the full split-decode-aggregate-concatenate pipeline and
// writes the result to opts.OutputPath.
func Run(opts Options) (Stats, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Chunks < 1 {
		opts.Chunks = opts.Workers
	}
	if opts.FlushThreshold <= 0 {
		opts.FlushThreshold = DefaultFlushThreshold
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var boundaries []*splitfinder.SplitPoint
	if opts.Chunks > 1 {
		splits, err := splitfinder.Find(opts.InputPath, opts.Chunks)
		if err != nil {
			return Stats{}, err
		}
		boundaries = make([]*splitfinder.SplitPoint, opts.Chunks+1)
		for i := range splits {
			boundaries[i+1] = &splits[i]
		}
	} else {
		boundaries = make([]*splitfinder.SplitPoint, 2)
	}

	cancel := opts.Cancel
	if cancel == nil {
		cancel = &atomic.Bool{}
	}

	// Chunks may outnumber Workers: a bounded semaphore caps how many
	// ranges decode concurrently, mirroring the reference driver's
	// pool-of-num_workers over num_chunks split ranges.
	sem := make(chan struct{}, opts.Workers)

	results := make([]workerResult, opts.Chunks)
	var wg sync.WaitGroup
	wg.Add(opts.Chunks)
	for i := 0; i < opts.Chunks; i++ {
		sem <- struct{}{}
		go func(id int) {
			defer wg.Done()
			defer func() { <-sem }()
			start := boundaries[id]
			end := boundaries[id+1]
			tempPath, stats, err := runWorker(id, opts.InputPath, start, end, opts.FlushThreshold,
				opts.ProgressEvery, opts.ProgressSink, cancel, logger)
			if err != nil {
				// A failed range aborts the run: flag the others so they
				// stop at their next read instead of decoding to the end.
				cancel.Store(true)
			}
			results[id] = workerResult{id: id, tempPath: tempPath, stats: stats, err: err}
		}(i)
	}
	wg.Wait()

	// Prefer a root-cause error over the Cancelled errors of workers that
	// were stopped as a consequence of it.
	var firstErr error
	for _, r := range results {
		if r.err == nil {
			continue
		}
		if firstErr == nil || pipelineerr.Is(firstErr, pipelineerr.Cancelled) && !pipelineerr.Is(r.err, pipelineerr.Cancelled) {
			firstErr = r.err
		}
	}
	if firstErr != nil {
		cleanupTemps(results)
		return Stats{}, firstErr
	}

	var total Stats
	for _, r := range results {
		total.RecordsFlushed += r.stats.RecordsFlushed
		total.MalformedLines += r.stats.MalformedLines
		total.BytesDecoded += r.stats.BytesDecoded
	}

	n, err := concatenate(results, opts.OutputPath)
	cleanupTemps(results)
	if err != nil {
		return Stats{}, err
	}
	total.BytesOut = n
	return total, nil
}

// workerResult carries one worker's outcome back to the driver goroutine.
type workerResult struct {
	id       int
	tempPath string
	stats    Stats
	err      error
}

func cleanupTemps(results []workerResult) {
	for _, r := range results {
		if r.tempPath != "" {
			os.Remove(r.tempPath)
		}
	}
}

// runWorker decodes and aggregates one worker's byte range, writing its
// encoded output to a private temp file (§4.7's chosen ordering
// implementation) and returns that file's path.
func runWorker(
	workerID int,
	inputPath string,
	start, end *splitfinder.SplitPoint,
	flushThreshold, progressEvery int,
	progressSink chan<- ProgressUpdate,
	cancel *atomic.Bool,
	logger *zap.Logger,
) (string, Stats, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return "", Stats{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", Stats{}, err
	}

	var offset int64
	if start != nil {
		offset = start.FrameOffset
	}

	compressed := &countingReader{r: io.NewSectionReader(f, offset, info.Size()-offset)}
	dec, err := zstd.NewReader(compressed)
	if err != nil {
		return "", Stats{}, err
	}
	defer dec.Close()

	tmp, err := os.CreateTemp("", fmt.Sprintf("isbn-atlas-worker-%02d-*.bin", workerID))
	if err != nil {
		return "", Stats{}, err
	}
	defer tmp.Close()

	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	agg := aggregator.New()
	var buffer []byte
	var stats Stats

	arming := start != nil && start.AACID != ""
	linesSinceProgress := 0
	var lastCompressed, lastDecoded int64

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		if _, err := tmp.Write(buffer); err != nil {
			return err
		}
		buffer = buffer[:0]
		return nil
	}
	emitProgress := func() {
		if progressSink == nil || linesSinceProgress == 0 {
			return
		}
		progressSink <- ProgressUpdate{
			WorkerID:          workerID,
			CompressedDelta:   compressed.n - lastCompressed,
			UncompressedDelta: stats.BytesDecoded - lastDecoded,
			RecordsDelta:      int64(linesSinceProgress),
		}
		lastCompressed = compressed.n
		lastDecoded = stats.BytesDecoded
		linesSinceProgress = 0
	}

	for scanner.Scan() {
		if cancel.Load() {
			logger.Warn("worker observed cancel flag", zap.Int("worker_id", workerID))
			return tmp.Name(), stats, pipelineerr.New(pipelineerr.Cancelled, nil)
		}

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		stats.BytesDecoded += int64(len(raw)) + 1
		line, perr := recordio.ParseLine(raw)
		if perr != nil {
			stats.MalformedLines++
			continue
		}

		if arming {
			if line.AACID != start.AACID {
				continue
			}
			arming = false
		}

		if end != nil && line.AACID == end.AACID {
			break
		}

		// A line with no OCLC id is the in-band end-of-batch signal: the
		// aggregator flushes whatever book is open and resets.
		if out := agg.Process(line); out != nil {
			buffer = append(buffer, out...)
			stats.RecordsFlushed++
			if len(buffer) >= flushThreshold {
				if err := flush(); err != nil {
					return tmp.Name(), stats, err
				}
			}
		}

		linesSinceProgress++
		if linesSinceProgress >= progressEvery {
			emitProgress()
		}
	}

	if out := agg.Process(recordio.Line{}); out != nil {
		buffer = append(buffer, out...)
		stats.RecordsFlushed++
	}
	if err := flush(); err != nil {
		return tmp.Name(), stats, err
	}
	emitProgress()

	return tmp.Name(), stats, nil
}

// countingReader tracks how many compressed bytes the zstd decoder has
// pulled from the underlying section, for progress reporting.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func concatenate(results []workerResult, outputPath string) (int64, error) {
	out, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	var total int64
	for _, r := range results {
		in, err := os.Open(r.tempPath)
		if err != nil {
			return total, err
		}
		n, err := io.Copy(out, in)
		in.Close()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
