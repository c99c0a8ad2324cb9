// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package slack

import (
	"bufio"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/forensiq/ddup/internal/mountcache"
)

// linuxReader resolves the backing block device for a path via `df`,
// the last allocated block of a file via `debugfs -R "blocks <path>"`,
// and reads one cluster directly off the block device.
type linuxReader struct {
	cache *mountcache.Cache
}

func newPlatformReader(cache *mountcache.Cache) Reader {
	return &linuxReader{cache: cache}
}

func (r *linuxReader) ReadSlack(filePath string, clusterSize int64) []byte {
	if clusterSize <= 0 {
		return nil
	}

	device, err := r.deviceLoop(filePath)
	if err != nil || device == "" {
		if err != nil {
			logSlackError(filePath, err)
		}
		return nil
	}

	block, err := lastBlock(filePath, device)
	if err != nil {
		logSlackError(filePath, err)
		return nil
	}
	if block == 0 {
		return nil
	}

	data, err := readSlack(device, block, clusterSize)
	if err != nil {
		logSlackError(filePath, err)
		return nil
	}
	return data
}

// deviceLoop resolves the block device backing filePath, memoized per
// mount point so a whole-tree walk doesn't re-shell to df for every file
// under the same mount.
func (r *linuxReader) deviceLoop(filePath string) (string, error) {
	mountPoint, err := mountPointOf(filePath)
	if err != nil {
		mountPoint = filepath.Dir(filePath)
	}

	if r.cache != nil {
		if dev, ok := r.cache.Get(mountPoint); ok {
			return dev, nil
		}
	}

	out, err := exec.Command("df", "-h", filePath).Output()
	if err != nil {
		return "", fmt.Errorf("df %s: %w", filePath, err)
	}

	var device string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "/") {
			fields := strings.SplitN(line, " ", 2)
			device = fields[0]
		}
	}

	if r.cache != nil && device != "" {
		r.cache.Put(mountPoint, device)
	}
	return device, nil
}

// mountPointOf walks up from filePath's parent directory, comparing device
// numbers via stat(2), until the device number changes: the last directory
// sharing filePath's device number is the actual mount point. This is what
// makes the mount cache key on the mount boundary rather than on every
// individual parent directory.
func mountPointOf(filePath string) (string, error) {
	dir := filepath.Dir(filePath)

	var st unix.Stat_t
	if err := unix.Stat(dir, &st); err != nil {
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	dev := st.Dev

	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir, nil
		}

		var pst unix.Stat_t
		if err := unix.Stat(parent, &pst); err != nil {
			return dir, nil
		}
		if pst.Dev != dev {
			return dir, nil
		}
		dir = parent
	}
}

// lastBlock returns the last allocated block number of filePath on device,
// by parsing the output of `debugfs -R "blocks <path>" <device>`.
func lastBlock(filePath, device string) (int64, error) {
	cmd := exec.Command("debugfs", "-R", fmt.Sprintf("blocks %s", filePath), device)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("debugfs %s %s: %w", filePath, device, err)
	}

	var last int64
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		tok := strings.TrimSpace(scanner.Text())
		if tok == "" {
			continue
		}
		n, err := strconv.ParseInt(tok, 10, 64)
		if err == nil {
			last = n
		}
	}
	return last, nil
}

// readSlack opens device for raw read and pulls exactly clusterSize bytes
// from block*clusterSize via a single positioned read, the usual idiom
// for block-device access: no shared file offset to race, no separate
// seek syscall.
func readSlack(device string, block, clusterSize int64) ([]byte, error) {
	fd, err := unix.Open(device, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	defer unix.Close(fd)

	start := block * clusterSize
	buf := make([]byte, clusterSize)
	n, err := unix.Pread(fd, buf, start)
	if err != nil {
		return nil, fmt.Errorf("pread %s@%d: %w", device, start, err)
	}
	return buf[:n], nil
}
