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

// Command extract_publishers reads a zstd-compressed JSON-lines stream
// of ISBN-registrant-group records and builds the sharded
// prefix->publisher-name index plus a flat sorted prefix list.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bibliocorpus/isbn-atlas/internal/obslog"
	"github.com/bibliocorpus/isbn-atlas/internal/publishershard"
)

func main() {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "extract_publishers <input.zst> <out_dir> <out_txt>",
		Short: "Build the sharded publisher-prefix index from a registrant-group corpus",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], args[2], verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "human-readable debug logging instead of structured JSON")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registrantLine is one line of the registrant-group corpus: a set of
// (isbn_type, isbn) allocations under one registrant record, optionally
// carrying the registrant's name.
type registrantLine struct {
	Metadata struct {
		Record struct {
			RegistrantName *string `json:"registrant_name"`
			ISBNs          []struct {
				ISBNType string `json:"isbn_type"`
				ISBN     string `json:"isbn"`
			} `json:"isbns"`
		} `json:"record"`
	} `json:"metadata"`
}

func run(inputPath, outDir, outTxt string, verbose bool) error {
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

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	publishers := publishershard.New()

	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lines, malformed int
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var line registrantLine
		if err := json.Unmarshal(raw, &line); err != nil {
			malformed++
			continue
		}
		lines++

		name := ""
		if line.Metadata.Record.RegistrantName != nil {
			name = *line.Metadata.Record.RegistrantName
		}

		for _, isbnData := range line.Metadata.Record.ISBNs {
			switch isbnData.ISBNType {
			case "prefix":
				publishers.AddPrefix(isbnData.ISBN, name)
			case "isbn13":
				publishers.AddISBN13(isbnData.ISBN)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("extract_publishers: scan: %w", err)
	}

	if err := publishers.WriteShards(outDir); err != nil {
		return fmt.Errorf("extract_publishers: write shards: %w", err)
	}
	if err := publishers.WriteIndex(outTxt); err != nil {
		return fmt.Errorf("extract_publishers: write index: %w", err)
	}

	logger.Info("extracted publisher index",
		zap.Int("lines", lines),
		zap.Int("malformed", malformed),
		zap.Int("prefixes", len(publishers.Prefixes())),
	)
	fmt.Fprintf(os.Stdout, "wrote %d prefixes to %s and %s\n", len(publishers.Prefixes()), outDir, outTxt)
	return nil
}
