// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store defines the entry store contract and its SQLite
// reference backend: a persistent, concurrency-safe mapping from
// (device_id, content) to recorded file entries.
package store

import "github.com/forensiq/ddup/internal/model"

// Store is any backend satisfying the entry-store contract. Open, Close,
// and Abort bracket a run; StoreEntry is called concurrently by every
// collector task; GetUniquesForDevice is only invoked once the collect
// phase for that device has completed (I6).
type Store interface {
	// Open acquires resources. Idempotent when already open.
	Open() error

	// Close commits all pending writes and releases resources. Call on a
	// successful run ("close-on-success").
	Close() error

	// Abort discards pending writes, where the backend supports
	// transactions, and releases resources. Call on a fatal failure
	// ("close-on-failure").
	Abort() error

	// StoreEntry appends one Entry. Safe for concurrent use. A duplicate
	// of an existing (device_id, content, path) tuple is logged and
	// skipped, never returned as an error that would abort the run.
	StoreEntry(e model.Entry) error

	// GetUniquesForDevice yields one representative file path per
	// content-hash group observed for deviceID, lexicographically
	// smallest-path first, streamed in batches of chunkSize (chunkSize <= 0
	// means one batch).
	GetUniquesForDevice(deviceID int64, chunkSize int) (UniqueIterator, error)
}

// UniqueIterator streams the uniques view for one device. Next returns
// false once exhausted or on error; Err reports the terminal error, if
// any.
type UniqueIterator interface {
	Next() bool
	Path() string
	Err() error
	Close() error
}
