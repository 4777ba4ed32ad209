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

package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FlushThresholdBytes != defaultFlushThresholdBytes {
		t.Errorf("FlushThresholdBytes = %d, want %d", cfg.FlushThresholdBytes, defaultFlushThresholdBytes)
	}
	if cfg.ProgressEvery != defaultProgressEvery {
		t.Errorf("ProgressEvery = %d, want %d", cfg.ProgressEvery, defaultProgressEvery)
	}
	if cfg.MetricsAddr != defaultMetricsAddr {
		t.Errorf("MetricsAddr = %q, want %q", cfg.MetricsAddr, defaultMetricsAddr)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ISBNATLAS_FLUSH_THRESHOLD_BYTES", "8192")
	t.Setenv("ISBNATLAS_METRICS_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FlushThresholdBytes != 8192 {
		t.Errorf("FlushThresholdBytes = %d, want 8192", cfg.FlushThresholdBytes)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %q, want :9090", cfg.MetricsAddr)
	}
}
