// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package collector walks one device's root, driving the digest engine
// and slack reader per file and appending each result to the entry
// store.
package collector

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/forensiq/ddup/internal/digest"
	"github.com/forensiq/ddup/internal/metrics"
	"github.com/forensiq/ddup/internal/model"
	"github.com/forensiq/ddup/internal/slack"
	"github.com/forensiq/ddup/internal/store"
	"github.com/forensiq/ddup/pkg/log"
)

// Collect walks sourcePath recursively. store must already be open. For
// every regular file (following symlinks that resolve to one) it drives a
// fresh digest engine, captures slack via slackReader, and appends one
// Entry. Non-regular entries are skipped silently; per-file errors are
// logged and skipped without aborting the walk. A StoreEntry failure is
// not a per-file error: it stops the walk and is returned.
func Collect(
	deviceID int64,
	sourcePath string,
	st store.Store,
	sel model.DigestSelection,
	slackReader slack.Reader,
	clusterSize int64,
	chunkSize int,
) error {
	log.Infof("device %d: collector %q", deviceID, sourcePath)

	err := filepath.WalkDir(sourcePath, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			log.Errorf("device %d: walk %s: %v", deviceID, p, walkErr)
			return nil
		}

		info, err := resolveRegular(p, d)
		if err != nil {
			return nil
		}
		if info == nil {
			return nil
		}

		log.Debugf("device %d: processing %s", deviceID, p)
		if err := collectFile(deviceID, p, st, sel, slackReader, clusterSize, chunkSize); err != nil {
			if errors.Is(err, errStoreEntry) {
				return err
			}
			log.Errorf("device %d: %s: %v", deviceID, p, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Infof("device %d: collector completed", deviceID)
	return nil
}

// resolveRegular reports whether p (as seen by the walk) is, or resolves
// through symlinks to, a regular file. Directories and special files
// yield (nil, nil): skip without error.
func resolveRegular(p string, d fs.DirEntry) (fs.FileInfo, error) {
	if d.Type()&os.ModeSymlink != 0 {
		info, err := os.Stat(p)
		if err != nil {
			log.Errorf("resolve symlink %s: %v", p, err)
			return nil, err
		}
		if !info.Mode().IsRegular() {
			return nil, nil
		}
		return info, nil
	}

	if d.IsDir() || !d.Type().IsRegular() {
		return nil, nil
	}

	info, err := d.Info()
	if err != nil {
		return nil, err
	}
	return info, nil
}

func collectFile(
	deviceID int64,
	path string,
	st store.Store,
	sel model.DigestSelection,
	slackReader slack.Reader,
	clusterSize int64,
	chunkSize int,
) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	metrics.FilesWalked.Inc()

	info, err := f.Stat()
	if err == nil {
		metrics.BytesHashed.Add(float64(info.Size()))
	}

	triple, err := digest.Stream(f, sel, chunkSize)
	if err != nil {
		return err
	}

	fileSlack := slackReader.ReadSlack(path, clusterSize)
	metrics.SlackBytesCaptured.Add(float64(len(fileSlack)))

	entry := model.Entry{
		SHA1:      triple.SHA1,
		SHA256:    triple.SHA256,
		MD5:       triple.MD5,
		DeviceID:  deviceID,
		FilePath:  path,
		FileSlack: fileSlack,
	}

	if err := st.StoreEntry(entry); err != nil {
		return fmt.Errorf("%w: %v", errStoreEntry, err)
	}
	return nil
}

// errStoreEntry marks a failed StoreEntry call. The store absorbs
// duplicates itself, so any error it returns is fatal to the walk.
var errStoreEntry = errors.New("store_entry")
