// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package archiver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 5, 1, 0, time.UTC)
	assert.Equal(t, "archive-1-2024-03-07-09-05-01", Name(1, ts))
}

func TestAliasStripsMountPathPrefix(t *testing.T) {
	assert.Equal(t, "sub/file.txt", Alias("/mnt/eo1/sub/file.txt", "/mnt/eo1"))
	assert.Equal(t, "file.txt", Alias("/mnt/eo1/file.txt", "/mnt/eo1"))
}

func TestAliasLeavesUnrelatedPathUntouched(t *testing.T) {
	assert.Equal(t, "/other/file.txt", Alias("/other/file.txt", "/mnt/eo1"))
}
