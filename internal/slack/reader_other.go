// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package slack

import "github.com/forensiq/ddup/internal/mountcache"

// On non-Linux platforms slack capture is unsupported; the reader is a
// no-op regardless of configuration.
func newPlatformReader(*mountcache.Cache) Reader {
	return Noop()
}
