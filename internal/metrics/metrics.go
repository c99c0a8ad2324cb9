// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exposes run-progress counters via prometheus/client_golang,
// optionally served over HTTP by promhttp on Options.MetricsAddr.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forensiq/ddup/pkg/log"
)

var (
	FilesWalked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ddup_files_walked_total",
		Help: "Number of regular files opened by the collector.",
	})

	BytesHashed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ddup_bytes_hashed_total",
		Help: "Number of bytes fed through the digest engine.",
	})

	DuplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ddup_duplicate_entries_skipped_total",
		Help: "Number of store_entry calls skipped as duplicates.",
	})

	SlackBytesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ddup_slack_bytes_captured_total",
		Help: "Number of trailing-cluster slack bytes captured.",
	})

	ArchiveBytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ddup_archive_bytes_written_total",
		Help: "Number of bytes written into device archives.",
	})

	ActiveDevices = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ddup_active_device_tasks",
		Help: "Number of device collect/archive tasks currently running.",
	})
)

// Serve starts the metrics HTTP endpoint on addr and blocks until ctx is
// canceled. A caller typically runs this in its own goroutine. An empty
// addr means metrics are not exposed at all; callers should check that
// before calling Serve.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Infof("metrics: listening on %s", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
