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

// Command processor drives the parallel split-decode-aggregate pipeline
// over a zstd-compressed JSON-lines corpus, writing the concatenated
// bit-packed book records to a single output file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bibliocorpus/isbn-atlas/internal/config"
	"github.com/bibliocorpus/isbn-atlas/internal/metrics"
	"github.com/bibliocorpus/isbn-atlas/internal/obslog"
	"github.com/bibliocorpus/isbn-atlas/internal/pipeline"
)

func main() {
	var workers, chunks int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "processor <input> <output>",
		Short: "Decode and aggregate a zstd-compressed ISBN corpus into a binary record stream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], workers, chunks, verbose)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "number of split ranges decoded concurrently")
	cmd.Flags().IntVar(&chunks, "chunks", 0, "number of split ranges to divide the input into (defaults to --workers)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "human-readable debug logging instead of structured JSON")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(inputPath, outputPath string, workers, chunks int, verbose bool) error {
	logger, err := obslog.New(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if workers < 1 {
		workers = 1
	}
	if chunks < 1 {
		chunks = workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collectors *metrics.Collectors
	if cfg.MetricsAddr != "" {
		collectors = metrics.NewCollectors()
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	progress := make(chan pipeline.ProgressUpdate, workers*4)
	done := make(chan struct{})
	go collectProgress(progress, done, collectors, logger)

	cancel := &atomic.Bool{}
	runDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		cancel.Store(true)
		select {
		case <-runDone:
		case <-time.After(5 * time.Second):
			logger.Warn("cancellation grace period elapsed, exiting anyway")
		}
	}()

	stats, runErr := pipeline.Run(pipeline.Options{
		InputPath:      inputPath,
		OutputPath:     outputPath,
		Workers:        workers,
		Chunks:         chunks,
		FlushThreshold: cfg.FlushThresholdBytes,
		ProgressSink:   progress,
		ProgressEvery:  cfg.ProgressEvery,
		Logger:         logger,
		Cancel:         cancel,
	})
	close(runDone)
	close(progress)
	<-done

	if runErr != nil {
		logger.Error("processor run failed", zap.Error(runErr))
		return runErr
	}

	if collectors != nil {
		collectors.RecordsFlushed.Add(float64(stats.RecordsFlushed))
		collectors.MalformedLines.Add(float64(stats.MalformedLines))
	}

	logger.Info("processor run complete",
		zap.Int64("records_flushed", stats.RecordsFlushed),
		zap.Int64("malformed_lines", stats.MalformedLines),
		zap.Int64("bytes_decoded", stats.BytesDecoded),
		zap.Int64("bytes_out", stats.BytesOut),
	)
	fmt.Fprintf(os.Stdout, "wrote %d records (%d bytes) to %s\n", stats.RecordsFlushed, stats.BytesOut, outputPath)
	return nil
}

func collectProgress(progress <-chan pipeline.ProgressUpdate, done chan<- struct{}, collectors *metrics.Collectors, logger *zap.Logger) {
	defer close(done)
	var totalRecords int64
	for update := range progress {
		totalRecords += update.RecordsDelta
		if collectors != nil {
			collectors.BytesDecoded.Add(float64(update.UncompressedDelta))
		}
		logger.Debug("progress",
			zap.Int("worker_id", update.WorkerID),
			zap.Int64("records_delta", update.RecordsDelta),
			zap.Int64("compressed_delta", update.CompressedDelta),
			zap.Int64("records_total", totalRecords),
		)
	}
}
