// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"path/filepath"
	"testing"

	"github.com/forensiq/ddup/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func newTestBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "ddup.db")
	b := NewSQLite(dsn, 2)
	require.NoError(t, b.Open())
	t.Cleanup(func() { b.Close() })
	return b
}

func TestStoreEntryAndUniques(t *testing.T) {
	b := newTestBackend(t)

	entries := []model.Entry{
		{SHA1: strp("aaa"), DeviceID: 1, FilePath: "/mnt/d1/b.txt"},
		{SHA1: strp("aaa"), DeviceID: 1, FilePath: "/mnt/d1/a.txt"},
		{SHA1: strp("bbb"), DeviceID: 1, FilePath: "/mnt/d1/c.txt"},
	}
	for _, e := range entries {
		require.NoError(t, b.StoreEntry(e))
	}

	it, err := b.GetUniquesForDevice(1, 0)
	require.NoError(t, err)
	defer it.Close()

	var paths []string
	for it.Next() {
		paths = append(paths, it.Path())
	}
	require.NoError(t, it.Err())

	assert.ElementsMatch(t, []string{"/mnt/d1/a.txt", "/mnt/d1/c.txt"}, paths)
}

func TestStoreEntryDuplicateIsSkippedNotFatal(t *testing.T) {
	b := newTestBackend(t)

	e := model.Entry{SHA1: strp("aaa"), DeviceID: 1, FilePath: "/mnt/d1/a.txt"}
	require.NoError(t, b.StoreEntry(e))
	require.NoError(t, b.StoreEntry(e))
}

func TestUniquesChunkedBatching(t *testing.T) {
	b := newTestBackend(t)

	for i, p := range []string{"/mnt/d1/a.txt", "/mnt/d1/b.txt", "/mnt/d1/c.txt"} {
		h := string(rune('a' + i))
		require.NoError(t, b.StoreEntry(model.Entry{SHA1: strp(h), DeviceID: 1, FilePath: p}))
	}

	it, err := b.GetUniquesForDevice(1, 1)
	require.NoError(t, err)
	defer it.Close()

	var paths []string
	for it.Next() {
		paths = append(paths, it.Path())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"/mnt/d1/a.txt", "/mnt/d1/b.txt", "/mnt/d1/c.txt"}, paths)
}

func TestAbortDiscardsPending(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "ddup.db")
	b := NewSQLite(dsn, DefaultFlushThreshold)
	require.NoError(t, b.Open())

	require.NoError(t, b.StoreEntry(model.Entry{SHA1: strp("aaa"), DeviceID: 1, FilePath: "/mnt/d1/a.txt"}))
	require.NoError(t, b.Abort())

	b2 := NewSQLite(dsn, DefaultFlushThreshold)
	require.NoError(t, b2.Open())
	defer b2.Close()

	it, err := b2.GetUniquesForDevice(1, 0)
	require.NoError(t, err)
	defer it.Close()
	assert.False(t, it.Next())
}
