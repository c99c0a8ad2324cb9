// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package collector

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/forensiq/ddup/internal/model"
	"github.com/forensiq/ddup/internal/slack"
	"github.com/forensiq/ddup/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	entries []model.Entry
	failOn  string
}

func (f *fakeStore) Open() error  { return nil }
func (f *fakeStore) Close() error { return nil }
func (f *fakeStore) Abort() error { return nil }

func (f *fakeStore) StoreEntry(e model.Entry) error {
	if f.failOn != "" && filepath.Base(e.FilePath) == f.failOn {
		return errors.New("synthetic failure")
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeStore) GetUniquesForDevice(int64, int) (store.UniqueIterator, error) {
	return nil, errors.New("not implemented")
}

func TestCollectWalksRegularFilesOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("hello"), 0o644))

	st := &fakeStore{}
	sel := model.DigestSelection{SHA1: true}

	require.NoError(t, Collect(1, dir, st, sel, slack.Noop(), 0, 65536))

	assert.Len(t, st.entries, 2)
	for _, e := range st.entries {
		require.NotNil(t, e.SHA1)
		assert.Equal(t, int64(1), e.DeviceID)
		assert.Empty(t, e.FileSlack)
	}
}

func TestCollectSkipsFileOnSoftErrorWithoutAbortingWalk(t *testing.T) {
	dir := t.TempDir()
	// A dangling symlink cannot be resolved: a per-file soft error.
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "bad.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.txt"), []byte("y"), 0o644))

	st := &fakeStore{}
	sel := model.DigestSelection{SHA1: true}

	require.NoError(t, Collect(1, dir, st, sel, slack.Noop(), 0, 65536))

	assert.Len(t, st.entries, 1)
	assert.Equal(t, "good.txt", filepath.Base(st.entries[0].FilePath))
}
