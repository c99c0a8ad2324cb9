// Copyright (C) 2023 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package util holds small filesystem helpers shared by the config
// loader and pipeline pre-flight validation.
package util

import (
	"errors"
	"os"
)

// CheckFileExists reports whether filePath names an existing filesystem
// entry (file or directory).
func CheckFileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !errors.Is(err, os.ErrNotExist)
}

// CheckDirExists reports whether filePath exists and is a directory, the
// pre-flight check required for archive_location and every device's
// mount path.
func CheckDirExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return info.IsDir()
}
