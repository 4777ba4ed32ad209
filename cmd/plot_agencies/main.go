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

// Command plot_agencies reads the prefix->agency JSON map produced by
// extract_agencies and renders a single coarse bitmap covering every
// agency-owned ISBN-prefix region.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bibliocorpus/isbn-atlas/internal/obslog"
	"github.com/bibliocorpus/isbn-atlas/internal/plot"
)

func main() {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "plot_agencies <input.json> <output.png>",
		Short: "Render an agency-range overview bitmap from an agency prefix map",
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

func run(inputPath, outputPath string, verbose bool) error {
	logger, err := obslog.New(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	var agencies map[string]string
	if err := json.Unmarshal(data, &agencies); err != nil {
		return fmt.Errorf("plot_agencies: decode agency map: %w", err)
	}

	img := plot.RenderAgencyOverview(agencies)
	if err := plot.SaveBitmap(img, outputPath); err != nil {
		return err
	}

	logger.Info("rendered agency overview", zap.Int("prefixes", len(agencies)))
	fmt.Fprintf(os.Stdout, "wrote agency overview for %d prefixes to %s\n", len(agencies), outputPath)
	return nil
}
