// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package pipeline

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensiq/ddup/internal/archiver"
	"github.com/forensiq/ddup/internal/model"
	"github.com/forensiq/ddup/internal/slack"
	"github.com/forensiq/ddup/internal/store"
)

type fakeStore struct {
	mu        sync.Mutex
	opened    int
	closed    int
	aborted   int
	entries   []model.Entry
	failStore bool
}

func (f *fakeStore) Open() error { f.mu.Lock(); defer f.mu.Unlock(); f.opened++; return nil }
func (f *fakeStore) Close() error { f.mu.Lock(); defer f.mu.Unlock(); f.closed++; return nil }
func (f *fakeStore) Abort() error { f.mu.Lock(); defer f.mu.Unlock(); f.aborted++; return nil }

func (f *fakeStore) StoreEntry(e model.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStore {
		return errors.New("synthetic store failure")
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeStore) GetUniquesForDevice(deviceID int64, chunkSize int) (store.UniqueIterator, error) {
	var paths []string
	for _, e := range f.entries {
		if e.DeviceID == deviceID {
			paths = append(paths, e.FilePath)
		}
	}
	return &fakeIterator{paths: paths}, nil
}

type fakeIterator struct {
	paths []string
	i     int
}

func (it *fakeIterator) Next() bool {
	if it.i >= len(it.paths) {
		return false
	}
	it.i++
	return true
}
func (it *fakeIterator) Path() string { return it.paths[it.i-1] }
func (it *fakeIterator) Err() error   { return nil }
func (it *fakeIterator) Close() error { return nil }

func newCoordinator(t *testing.T, devices []model.Device, opts model.Options, st *fakeStore) *Coordinator {
	t.Helper()
	factory := archiver.NewZipFactory()
	return &Coordinator{
		Devices:     devices,
		Options:     opts,
		Store:       st,
		Archiver:    factory,
		SlackReader: slack.Noop(),
	}
}

func TestRunEmptyDeviceProducesZeroMemberArchive(t *testing.T) {
	srcDir := t.TempDir()
	archiveDir := t.TempDir()

	opts := model.Options{
		EnableSHA1: true, NumberThreads: 1, HashChunkSize: 65536,
		Collect: true, CreateArchive: true, ArchiveLocation: archiveDir,
		UniqueElementsChunkSize: 1000,
	}
	devices := []model.Device{{ID: 1, MountPath: srcDir, ClusterSize: 0}}

	st := &fakeStore{}
	c := newCoordinator(t, devices, opts, st)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, 1, st.opened)
	assert.Equal(t, 1, st.closed)
	assert.Equal(t, 0, st.aborted)
	assert.Empty(t, st.entries)

	archives, err := filepath.Glob(filepath.Join(archiveDir, "archive-1-*.zip"))
	require.NoError(t, err)
	require.Len(t, archives, 1)
	r, err := zip.OpenReader(archives[0])
	require.NoError(t, err)
	defer r.Close()
	assert.Empty(t, r.File)
}

func TestRunTrivialDedupStoresOneEntryPerFile(t *testing.T) {
	srcDir := t.TempDir()
	archiveDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "b.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("hello"), 0o644))

	opts := model.Options{
		EnableSHA1: true, NumberThreads: 2, HashChunkSize: 65536,
		Collect: true, CreateArchive: true, ArchiveLocation: archiveDir,
		UniqueElementsChunkSize: 1000,
	}
	devices := []model.Device{{ID: 1, MountPath: srcDir}}

	st := &fakeStore{}
	c := newCoordinator(t, devices, opts, st)

	require.NoError(t, c.Run(context.Background()))
	assert.Len(t, st.entries, 2)
}

func TestRunAbortsStoreOnFatalCollectFailure(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("hello"), 0o644))

	opts := model.Options{
		EnableSHA1: true, NumberThreads: 1, HashChunkSize: 65536,
		Collect: true, CreateArchive: false,
	}
	devices := []model.Device{{ID: 1, MountPath: srcDir}}

	st := &fakeStore{failStore: true}
	c := newCoordinator(t, devices, opts, st)

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, st.opened)
	assert.Equal(t, 0, st.closed)
	assert.Equal(t, 1, st.aborted)
}

func TestPreflightRejectsMissingArchiveLocation(t *testing.T) {
	opts := model.Options{CreateArchive: true, ArchiveLocation: "/does/not/exist"}
	c := newCoordinator(t, nil, opts, &fakeStore{})
	assert.Error(t, c.preflight())
}

func TestPreflightRejectsMissingDeviceMountPath(t *testing.T) {
	opts := model.Options{}
	devices := []model.Device{{ID: 1, MountPath: "/does/not/exist"}}
	c := newCoordinator(t, devices, opts, &fakeStore{})
	assert.Error(t, c.preflight())
}

func TestPreflightRejectsNegativeClusterSize(t *testing.T) {
	dir := t.TempDir()
	opts := model.Options{}
	devices := []model.Device{{ID: 1, MountPath: dir, ClusterSize: -1}}
	c := newCoordinator(t, devices, opts, &fakeStore{})
	assert.Error(t, c.preflight())
}

func TestRunAllFalseIsPermittedDryRun(t *testing.T) {
	opts := model.Options{Collect: false, CreateArchive: false}
	st := &fakeStore{}
	c := newCoordinator(t, nil, opts, st)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, 1, st.opened)
	assert.Equal(t, 1, st.closed)
}
