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

// Package metrics exposes optional instrumentation around the
// processor batch job: counters for records flushed, bytes
// decompressed, and malformed lines skipped, served over /metrics and
// /healthz. This is off by default; a binary only calls Serve when
// given a non-empty bind address.
package metrics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors groups every counter the processor updates during a run.
type Collectors struct {
	RecordsFlushed prometheus.Counter
	BytesDecoded   prometheus.Counter
	MalformedLines prometheus.Counter
}

// NewCollectors registers and returns the processor's counters.
func NewCollectors() *Collectors {
	return &Collectors{
		RecordsFlushed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "isbn_atlas_records_flushed_total",
			Help: "Total number of book records flushed to the output stream.",
		}),
		BytesDecoded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "isbn_atlas_bytes_decoded_total",
			Help: "Total uncompressed bytes decoded from the input corpus.",
		}),
		MalformedLines: promauto.NewCounter(prometheus.CounterOpts{
			Name: "isbn_atlas_malformed_lines_total",
			Help: "Total number of corpus lines skipped for failing to parse.",
		}),
	}
}

// router builds the /metrics and /healthz mux, following the teacher
// pack's chi middleware stack.
func router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Serve binds addr and runs until ctx is cancelled. Callers typically
// run this in its own goroutine alongside a processor run.
func Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: router()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
