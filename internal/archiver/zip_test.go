// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package archiver

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipArchiverStateMachine(t *testing.T) {
	dir := t.TempDir()
	a := &ZipArchiver{}

	err := a.StoreFile("whatever", "")
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, a.Provide(dir, "archive-1-2020-01-01-00-00-00"))
	assert.ErrorIs(t, a.Provide(dir, "again"), ErrAlreadyOpen)

	src := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	require.NoError(t, a.StoreFile(src, "hello.txt"))
	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.Close(), ErrNotOpen)

	r, err := zip.OpenReader(filepath.Join(dir, "archive-1-2020-01-01-00-00-00.zip"))
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.File, 1)
	assert.Equal(t, "hello.txt", r.File[0].Name)
}

func TestZipArchiverDefaultsAliasToSource(t *testing.T) {
	dir := t.TempDir()
	a := &ZipArchiver{}
	require.NoError(t, a.Provide(dir, "archive-2-ts"))

	src := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	require.NoError(t, a.StoreFile(src, ""))
	require.NoError(t, a.Close())

	r, err := zip.OpenReader(filepath.Join(dir, "archive-2-ts.zip"))
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.File, 1)
	assert.Equal(t, src, r.File[0].Name)
}

func TestNewFactoryProducesIndependentInstances(t *testing.T) {
	f := NewZipFactory()
	a1 := f.New()
	a2 := f.New()
	assert.NotSame(t, a1, a2)
}
