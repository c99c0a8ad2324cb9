// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package archiver

import (
	"fmt"

	"github.com/forensiq/ddup/internal/model"
)

// NewFactory selects the backend Factory named by cfg.Kind.
func NewFactory(cfg model.ArchiverConfig) (Factory, error) {
	switch cfg.Kind {
	case "", "zip":
		return NewZipFactory(), nil
	case "s3":
		return NewS3Factory(cfg), nil
	default:
		return nil, fmt.Errorf("archiver: unknown kind %q", cfg.Kind)
	}
}
