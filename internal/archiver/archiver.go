// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package archiver defines the per-device output-sink contract and its
// two reference backends: a local zip container and an S3 object-store
// sink. Both honor the same closed -> open -> closed state machine and
// are never shared between devices (the coordinator asks a Factory for a
// fresh instance per device).
package archiver

import "errors"

// ErrNotOpen is returned by StoreFile when called outside an open
// container.
var ErrNotOpen = errors.New("archiver: store_file called while closed")

// ErrAlreadyOpen is returned by Provide when a container is already open.
var ErrAlreadyOpen = errors.New("archiver: provide called on an already-open archiver")

// Archiver is one device's output sink: opens a named container at a
// location, accepts files to add under aliases, and finalizes.
type Archiver interface {
	// Provide creates a new container named name under location,
	// transitioning closed -> open. Fails if already open.
	Provide(location, name string) error

	// StoreFile copies the file at sourcePath into the open container
	// under entry name alias. If alias is empty, sourcePath is used.
	// Callable only in the open state.
	StoreFile(sourcePath, alias string) error

	// Close finalizes the container, transitioning open -> closed.
	Close() error
}

// Factory returns a fresh, independent Archiver instance. The reference
// pattern for per-device isolation: the coordinator owns a Factory and
// asks it for a new Archiver per device rather than cloning shared state.
type Factory interface {
	New() Archiver
}

// FactoryFunc adapts a plain function to Factory.
type FactoryFunc func() Archiver

func (f FactoryFunc) New() Archiver { return f() }
