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

// Command render_tile_props rasterizes the year and holdings attribute
// channels decoded from a binary record stream into a multi-scale PNG
// tile pyramid, split by whether each ISBN is covered by the
// ISBN-runs bundle's "md5" reference set.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bibliocorpus/isbn-atlas/internal/bookrecord"
	"github.com/bibliocorpus/isbn-atlas/internal/bundle"
	"github.com/bibliocorpus/isbn-atlas/internal/isbnruns"
	"github.com/bibliocorpus/isbn-atlas/internal/obslog"
	"github.com/bibliocorpus/isbn-atlas/internal/tiles"
)

func main() {
	var isbncodesPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "render_tile_props <binary> <output_dir>",
		Short: "Render year/holdings attribute tile pyramids from a decoded record stream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if isbncodesPath == "" {
				return fmt.Errorf("render_tile_props: --isbncodes is required")
			}
			return run(args[0], args[1], isbncodesPath, verbose)
		},
	}
	cmd.Flags().StringVar(&isbncodesPath, "isbncodes", "", "path to the ISBN-runs bundle supplying the md5 coverage mask")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "human-readable debug logging instead of structured JSON")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(binaryPath, outputDir, isbncodesPath string, verbose bool) error {
	logger, err := obslog.New(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	f, err := os.Open(binaryPath)
	if err != nil {
		return err
	}
	records, err := bookrecord.NewDecoder(f).DecodeAll()
	f.Close()
	if err != nil {
		return fmt.Errorf("render_tile_props: decode records: %w", err)
	}
	tensors := tiles.BuildAttrTensors(records)
	logger.Info("built attribute tensors", zap.Int("prefixes", len(tensors)))

	manifest, err := bundle.Read(isbncodesPath)
	if err != nil {
		return fmt.Errorf("render_tile_props: read bundle: %w", err)
	}
	md5Raw, ok := manifest[bundle.ReferenceSet]
	if !ok {
		return fmt.Errorf("render_tile_props: bundle has no %q set", bundle.ReferenceSet)
	}

	maskBlocks := make(map[int]*tiles.CoverageBlock)
	dec := isbnruns.NewDecoder(tiles.NewCoverageBlock, tiles.SetCoverage)
	if err := dec.Decode(bytes.NewReader(md5Raw), func(prefixID int, block *tiles.CoverageBlock) error {
		maskBlocks[prefixID] = block
		return nil
	}); err != nil {
		return fmt.Errorf("render_tile_props: decode md5 set: %w", err)
	}

	for prefix, tensor := range tensors {
		mask := maskBlocks[prefix]
		in, out := tiles.SplitAttrByMask(tensor, mask)

		if err := tiles.RenderChannel(in.Year, prefix, outputDir, "years_in"); err != nil {
			return err
		}
		if err := tiles.RenderChannel(in.Holdings, prefix, outputDir, "holdings_in"); err != nil {
			return err
		}
		if err := tiles.RenderChannel(out.Year, prefix, outputDir, "years_out"); err != nil {
			return err
		}
		if err := tiles.RenderChannel(out.Holdings, prefix, outputDir, "holdings_out"); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "wrote attribute tile pyramids for %d prefixes to %s\n", len(tensors), outputDir)
	return nil
}
