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

// Command plot_publishers reads the flat publisher-prefix index produced
// by extract_publishers and renders a six-level, tenfold-stepped
// overview of every publisher-owned prefix.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bibliocorpus/isbn-atlas/internal/obslog"
	"github.com/bibliocorpus/isbn-atlas/internal/plot"
	"github.com/bibliocorpus/isbn-atlas/internal/publishershard"
)

func main() {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "plot_publishers <input.txt> <output_dir>",
		Short: "Render publisher-prefix overview bitmaps from a flat prefix index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "human-readable debug logging instead of structured JSON")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(inputPath, outputDir string, verbose bool) error {
	logger, err := obslog.New(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	prefixes, err := publishershard.ReadIndex(f)
	if err != nil {
		return err
	}

	images := plot.InitOverviews()
	var plotted int
	for _, prefix := range prefixes {
		size := len(prefix)
		idx := size - 4
		if idx < 0 || idx >= len(images) {
			logger.Warn("prefix out of plot range", zap.String("prefix", prefix), zap.Int("size", size))
			continue
		}
		x, y := plot.CellPos(prefix)
		images[idx].Set(x, y)
		plotted++
	}

	if err := plot.SaveOverviews(images, outputDir); err != nil {
		return err
	}
	logger.Info("rendered publisher overviews", zap.Int("prefixes", plotted))
	fmt.Fprintf(os.Stdout, "wrote publisher overviews for %d prefixes to %s\n", plotted, outputDir)
	return nil
}
