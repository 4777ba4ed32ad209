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

// Command render_tile_sets rasterizes the sets in an ISBN-runs bundle
// into multi-scale PNG coverage tile pyramids: the raw "md5" reference
// set, then for every other named set one pyramid restricted to ISBNs
// also covered by the reference ("<set>_in") and one restricted to
// ISBNs outside it ("<set>_out"), plus an "all_in"/"all_out" pair
// covering the union of every non-reference set.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bibliocorpus/isbn-atlas/internal/bundle"
	"github.com/bibliocorpus/isbn-atlas/internal/isbnruns"
	"github.com/bibliocorpus/isbn-atlas/internal/obslog"
	"github.com/bibliocorpus/isbn-atlas/internal/tiles"
)

func main() {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "render_tile_sets <bundle> <output_dir>",
		Short: "Render coverage tile pyramids for every set in an ISBN-runs bundle",
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

func decodeSet(data []byte) (map[int]*tiles.CoverageBlock, error) {
	blocks := make(map[int]*tiles.CoverageBlock)
	dec := isbnruns.NewDecoder(tiles.NewCoverageBlock, tiles.SetCoverage)
	err := dec.Decode(bytes.NewReader(data), func(prefixID int, block *tiles.CoverageBlock) error {
		blocks[prefixID] = block
		return nil
	})
	return blocks, err
}

func run(bundlePath, outputDir string, verbose bool) error {
	logger, err := obslog.New(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	manifest, err := bundle.Read(bundlePath)
	if err != nil {
		return fmt.Errorf("render_tile_sets: read bundle: %w", err)
	}

	md5Raw, ok := manifest[bundle.ReferenceSet]
	if !ok {
		return fmt.Errorf("render_tile_sets: bundle has no %q set", bundle.ReferenceSet)
	}
	md5Blocks, err := decodeSet(md5Raw)
	if err != nil {
		return fmt.Errorf("render_tile_sets: decode md5 set: %w", err)
	}
	for prefix, block := range md5Blocks {
		if err := tiles.RenderCoverage(block, prefix, outputDir, bundle.ReferenceSet); err != nil {
			return err
		}
	}
	logger.Info("rendered reference set", zap.String("set", bundle.ReferenceSet), zap.Int("prefixes", len(md5Blocks)))

	allBlocks := make(map[int]*tiles.CoverageBlock)

	for _, name := range manifest.SetNames() {
		if name == bundle.ReferenceSet {
			continue
		}
		blocks, err := decodeSet(manifest[name])
		if err != nil {
			return fmt.Errorf("render_tile_sets: decode set %q: %w", name, err)
		}

		for prefix, block := range blocks {
			acc, ok := allBlocks[prefix]
			if !ok {
				acc = tiles.NewCoverageBlock()
				allBlocks[prefix] = acc
			}
			tiles.OrInto(acc, block)

			mask := md5Blocks[prefix]
			in, out := tiles.SplitCoverageByMask(block, mask)
			if err := tiles.RenderCoverage(in, prefix, outputDir, name+"_in"); err != nil {
				return err
			}
			if err := tiles.RenderCoverage(out, prefix, outputDir, name+"_out"); err != nil {
				return err
			}
		}
		logger.Info("rendered set", zap.String("set", name), zap.Int("prefixes", len(blocks)))
	}

	for prefix, block := range allBlocks {
		mask := md5Blocks[prefix]
		in, out := tiles.SplitCoverageByMask(block, mask)
		if err := tiles.RenderCoverage(in, prefix, outputDir, "all_in"); err != nil {
			return err
		}
		if err := tiles.RenderCoverage(out, prefix, outputDir, "all_out"); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "wrote tile pyramids for %d sets to %s\n", len(manifest), outputDir)
	return nil
}
