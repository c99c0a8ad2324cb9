// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package runtimeenv loads process-environment overrides from a .env
// file before flag parsing.
package runtimeenv

import (
	"github.com/joho/godotenv"

	"github.com/forensiq/ddup/internal/util"
)

// LoadEnv loads variable definitions from file into the process
// environment. A missing file is not an error: .env is optional.
func LoadEnv(file string) error {
	if !util.CheckFileExists(file) {
		return nil
	}
	return godotenv.Load(file)
}
