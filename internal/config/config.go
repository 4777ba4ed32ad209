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

// Package config holds the operational defaults that rarely change
// between invocations. Per-run required arguments (input/output paths,
// worker count) stay on the command line; this is only for knobs
// reasonable to override through the environment.
package config

import "github.com/kelseyhightower/envconfig"

const (
	defaultFlushThresholdBytes = 4096
	defaultProgressEvery       = 1000
	defaultMetricsAddr         = ""
)

// Runtime is populated from ISBNATLAS_-prefixed environment variables,
// with the package defaults applied first.
type Runtime struct {
	FlushThresholdBytes int    `envconfig:"FLUSH_THRESHOLD_BYTES"`
	ProgressEvery       int    `envconfig:"PROGRESS_EVERY"`
	MetricsAddr         string `envconfig:"METRICS_ADDR"`
}

// Load returns a Runtime populated from the environment, falling back
// to the package defaults for anything unset.
func Load() (Runtime, error) {
	cfg := Runtime{
		FlushThresholdBytes: defaultFlushThresholdBytes,
		ProgressEvery:       defaultProgressEvery,
		MetricsAddr:         defaultMetricsAddr,
	}
	if err := envconfig.Process("ISBNATLAS", &cfg); err != nil {
		return Runtime{}, err
	}
	return cfg, nil
}
