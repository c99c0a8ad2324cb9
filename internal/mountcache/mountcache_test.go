// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package mountcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	_, ok := c.Get("/mnt/eo1")
	assert.False(t, ok)

	c.Put("/mnt/eo1", "/dev/sdb1")
	dev, ok := c.Get("/mnt/eo1")
	require.True(t, ok)
	assert.Equal(t, "/dev/sdb1", dev)
}

func TestEvictionUnderPressure(t *testing.T) {
	c, err := New(1)
	require.NoError(t, err)

	c.Put("/mnt/a", "/dev/sda1")
	c.Put("/mnt/b", "/dev/sdb1")

	_, ok := c.Get("/mnt/a")
	assert.False(t, ok)
	dev, ok := c.Get("/mnt/b")
	require.True(t, ok)
	assert.Equal(t, "/dev/sdb1", dev)
}
