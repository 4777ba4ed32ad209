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

// Command plot_allocations reads an ISBN registration-group range-table
// XML file and renders a six-level, tenfold-stepped overview of every
// publisher-allocation range it defines.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bibliocorpus/isbn-atlas/internal/obslog"
	"github.com/bibliocorpus/isbn-atlas/internal/plot"
	"github.com/bibliocorpus/isbn-atlas/internal/xmlrange"
)

func main() {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "plot_allocations <input.xml> <output_dir>",
		Short: "Render publisher-allocation range overview bitmaps from a range-table XML file",
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

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	groups, err := xmlrange.Parse(data)
	if err != nil {
		return err
	}

	images := plot.InitOverviews()

	var rules int
	for _, g := range groups {
		for _, r := range g.Rules {
			low, high, size, ok := r.Bounds(g.Prefix)
			if !ok {
				continue
			}
			idx := size - 4
			if idx < 0 || idx >= len(images) {
				logger.Warn("allocation rule out of plot range", zap.String("prefix", g.Prefix), zap.Int("size", size))
				continue
			}
			img := images[idx]
			for v := low; v <= high; v++ {
				isbn := strconv.FormatInt(v, 10)
				for len(isbn) < size {
					isbn = "0" + isbn
				}
				x, y := plot.CellPos(isbn)
				img.Set(x, y)
			}
			rules++
		}
	}

	if err := plot.SaveOverviews(images, outputDir); err != nil {
		return err
	}
	logger.Info("rendered allocation overviews", zap.Int("groups", len(groups)), zap.Int("rules", rules))
	fmt.Fprintf(os.Stdout, "wrote allocation overviews for %d rules to %s\n", rules, outputDir)
	return nil
}
