// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package pipeline

import (
	"fmt"

	"github.com/forensiq/ddup/internal/util"
)

// preflight runs every configuration validation before store.Open() and
// before any side effect on the store or output.
func (c *Coordinator) preflight() error {
	if c.Store == nil {
		return fmt.Errorf("pipeline: no store configured")
	}
	if c.Archiver == nil {
		return fmt.Errorf("pipeline: no archiver factory configured")
	}

	if c.Options.CreateArchive {
		if c.Options.ArchiveLocation == "" || !util.CheckDirExists(c.Options.ArchiveLocation) {
			return fmt.Errorf("pipeline: archive_location %q does not exist or is not a directory", c.Options.ArchiveLocation)
		}
	}

	for _, d := range c.Devices {
		if !util.CheckDirExists(d.MountPath) {
			return fmt.Errorf("pipeline: device %d: mount path %q does not exist", d.ID, d.MountPath)
		}
		if d.ClusterSize < 0 {
			return fmt.Errorf("pipeline: device %d: cluster_size %d is negative", d.ID, d.ClusterSize)
		}
	}

	return nil
}
