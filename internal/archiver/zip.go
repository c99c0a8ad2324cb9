// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package archiver

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"

	"github.com/forensiq/ddup/internal/metrics"
)

func init() {
	// klauspost/compress's deflate implementation is faster than the
	// stdlib one at the same compression level; registering it affects
	// every zip.Writer created in this process.
	registerFastDeflate()
}

func registerFastDeflate() {
	newCompressor := func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	}
	zip.RegisterCompressor(zip.Deflate, newCompressor)
}

// ZipArchiver is the default archiver: a local, deflate-compressed zip
// container, one per device.
type ZipArchiver struct {
	file   *os.File
	writer *zip.Writer
}

// NewZipFactory returns a Factory producing fresh *ZipArchiver instances.
func NewZipFactory() Factory {
	return FactoryFunc(func() Archiver { return &ZipArchiver{} })
}

func (a *ZipArchiver) Provide(location, name string) error {
	if a.writer != nil {
		return ErrAlreadyOpen
	}

	path := filepath.Join(location, name+".zip")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("archiver: create %s: %w", path, err)
	}

	a.file = f
	a.writer = zip.NewWriter(f)
	return nil
}

func (a *ZipArchiver) StoreFile(sourcePath, alias string) error {
	if a.writer == nil {
		return ErrNotOpen
	}
	if alias == "" {
		alias = sourcePath
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("archiver: open %s: %w", sourcePath, err)
	}
	defer src.Close()

	w, err := a.writer.Create(alias)
	if err != nil {
		return fmt.Errorf("archiver: create member %s: %w", alias, err)
	}

	n, err := io.Copy(w, src)
	if err != nil {
		return fmt.Errorf("archiver: write member %s: %w", alias, err)
	}
	metrics.ArchiveBytesWritten.Add(float64(n))
	return nil
}

func (a *ZipArchiver) Close() error {
	if a.writer == nil {
		return ErrNotOpen
	}
	err := a.writer.Close()
	a.writer = nil
	if cerr := a.file.Close(); err == nil {
		err = cerr
	}
	a.file = nil
	return err
}
