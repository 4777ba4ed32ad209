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

// Command extract_agencies takes an XML ISBN registration-group range
// table and writes a JSON object mapping prefix to owning agency.
package main

import (
	"encoding/json"
	"os"

	"github.com/bibliocorpus/isbn-atlas/internal/obslog"
	"github.com/bibliocorpus/isbn-atlas/internal/xmlrange"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	cmd := &cobra.Command{
		Use:   "extract_agencies <input.xml> <output.json>",
		Short: "Extract an ISBN prefix -> agency map from a range-table XML file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1])
		},
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(inputPath, outputPath string) error {
	logger, err := obslog.New(false)
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
	agencies := xmlrange.Agencies(groups)

	out, err := json.Marshal(agencies)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return err
	}
	logger.Info("wrote agency map", zap.Int("groups", len(groups)), zap.String("output", outputPath))
	return nil
}
