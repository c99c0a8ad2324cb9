// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mountcache memoizes backing-device resolution for the slack
// reader. Resolving a file's backing device shells out to df; a forensic
// tree walk revisits the same filesystem for every file it touches, so
// this caches the device-loop lookup keyed by mount point rather than
// re-shelling out per file.
package mountcache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds the number of distinct mount points memoized at once.
// A forensic run targets a handful of configured devices, so this is
// generous headroom rather than a tuned limit.
const DefaultSize = 64

// Cache maps a mount point to its resolved backing device path.
type Cache struct {
	lru *lru.Cache[string, string]
}

// New builds an empty Cache. size <= 0 uses DefaultSize.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns the device previously resolved for mountPoint, if any.
func (c *Cache) Get(mountPoint string) (string, bool) {
	return c.lru.Get(mountPoint)
}

// Put records the device resolved for mountPoint.
func (c *Cache) Put(mountPoint, device string) {
	c.lru.Add(mountPoint, device)
}
