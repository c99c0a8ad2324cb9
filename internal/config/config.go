// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads, validates, and regenerates the run's configuration
// document: the set of configured devices plus the options record that
// governs every other component.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forensiq/ddup/internal/model"
	"github.com/forensiq/ddup/pkg/log"
)

// Load reads and validates the configuration document at path, returning
// the decoded model.Config. Unknown fields are a hard error: a typo in a
// config file should fail loudly rather than be silently ignored.
func Load(path string) (model.Config, error) {
	var cfg model.Config

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := Validate(bytes.NewReader(raw)); err != nil {
		return cfg, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}

	return cfg, nil
}

// Generate writes the default configuration to path (creating parent
// directories as needed) and returns the path actually written to. If
// path names a directory (or is empty), "config.json" is appended.
func Generate(path string) (string, error) {
	if path == "" {
		path = "."
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "config.json")
	}

	cfg := model.Default()
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("config: marshal default: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("config: create %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}

	log.Infof("config: default configuration written to %s", path)
	return path, nil
}

// ApplyDeviceOverride appends d to cfg.Devices, replacing any existing
// device that shares its ID. This is the behavioral target of the
// repeatable --device flag.
func ApplyDeviceOverride(cfg *model.Config, d model.Device) {
	for i := range cfg.Devices {
		if cfg.Devices[i].ID == d.ID {
			cfg.Devices[i] = d
			return
		}
	}
	cfg.Devices = append(cfg.Devices, d)
}
