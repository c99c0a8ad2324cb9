// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package archiver

import (
	"fmt"
	"strings"
	"time"
)

// Name builds the archive name for a device, captured at archive start:
// archive-<device_id>-<YYYY-MM-DD-HH-MM-SS>.
func Name(deviceID int64, at time.Time) string {
	return fmt.Sprintf("archive-%d-%s", deviceID, at.Format("2006-01-02-15-04-05"))
}

// Alias strips a device's mount-path prefix (plus its separator) from an
// absolute file path, preserving the relative hierarchy under the device
// root.
func Alias(filePath, mountPath string) string {
	prefix := strings.TrimSuffix(mountPath, "/")
	if strings.HasPrefix(filePath, prefix+"/") {
		return filePath[len(prefix)+1:]
	}
	return filePath
}
