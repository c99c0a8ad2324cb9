// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package slack captures a file's trailing-cluster "slack" bytes as they
// sit on the underlying block device. The Linux implementation
// (reader_linux.go) resolves the backing device and last allocated block
// via df/debugfs and reads the cluster directly off the device; every
// other platform gets the no-op reader_other.go.
package slack

import (
	"github.com/forensiq/ddup/internal/mountcache"
	"github.com/forensiq/ddup/pkg/log"
)

// Reader captures slack bytes for one file. Implementations must never
// propagate errors: a failed slack read is logged and yields empty bytes,
// never a failed collect.
type Reader interface {
	// ReadSlack returns the trailing-cluster bytes for filePath, given the
	// filesystem's allocation unit clusterSize. Returns an empty (possibly
	// nil) slice when clusterSize <= 0, the platform is unsupported, or any
	// step fails.
	ReadSlack(filePath string, clusterSize int64) []byte
}

// noopReader is the Reader used when slack capture is disabled outright,
// independent of platform support.
type noopReader struct{}

func (noopReader) ReadSlack(string, int64) []byte { return nil }

// Noop returns a Reader that never attempts slack capture.
func Noop() Reader { return noopReader{} }

// New returns the platform-appropriate Reader, backed by cache for mount
// point resolution memoization. On unsupported platforms this is
// equivalent to Noop.
func New(cache *mountcache.Cache) Reader {
	return newPlatformReader(cache)
}

func logSlackError(filePath string, err error) {
	log.Errorf("slack: %s: %v", filePath, err)
}
