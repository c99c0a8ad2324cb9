// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pipeline is the coordinator: it validates configuration, runs
// the collect phase across all devices, then the archive phase across
// all devices, under a worker-pool scheduling model whose width is
// Options.NumberThreads (1 collapses to a single-threaded run -- both are
// the same errgroup fan-out, just a different SetLimit).
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forensiq/ddup/internal/archiver"
	"github.com/forensiq/ddup/internal/collector"
	"github.com/forensiq/ddup/internal/metrics"
	"github.com/forensiq/ddup/internal/mountcache"
	"github.com/forensiq/ddup/internal/model"
	"github.com/forensiq/ddup/internal/slack"
	"github.com/forensiq/ddup/internal/store"
	"github.com/forensiq/ddup/pkg/log"
)

// Coordinator runs one pipeline pass over a configured set of devices.
type Coordinator struct {
	Devices  []model.Device
	Options  model.Options
	Store    store.Store
	Archiver archiver.Factory

	// SlackReader is shared across devices so mount-point resolution is
	// memoized process-wide. New picks it from Options.StoreSlackSpace; it
	// is passed to every collector as is and must not be nil.
	SlackReader slack.Reader
}

// New builds a Coordinator, wiring a shared mount cache into the slack
// reader used by every device's collector.
func New(cfg model.Config, st store.Store, archFactory archiver.Factory) (*Coordinator, error) {
	cache, err := mountcache.New(0)
	if err != nil {
		return nil, fmt.Errorf("pipeline: mount cache: %w", err)
	}

	var reader slack.Reader
	if cfg.Options.StoreSlackSpace {
		reader = slack.New(cache)
	} else {
		reader = slack.Noop()
	}

	return &Coordinator{
		Devices:     cfg.Devices,
		Options:     cfg.Options,
		Store:       st,
		Archiver:    archFactory,
		SlackReader: reader,
	}, nil
}

// Run executes pre-flight validation, then the collect phase, then the
// archive phase, honoring the configured skip policy and the phase
// barrier between them. On a fatal collect failure the store is aborted
// and Run returns the error without ever reaching the archive phase;
// otherwise the store is always closed, even if individual archive tasks
// failed.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.preflight(); err != nil {
		return err
	}

	if !c.Options.Collect && !c.Options.CreateArchive {
		log.Warn("pipeline: collect and create_archive both disabled; dry run")
	}

	if err := c.Store.Open(); err != nil {
		return fmt.Errorf("pipeline: store open: %w", err)
	}

	if c.Options.Collect {
		if err := c.runCollectPhase(ctx); err != nil {
			if aerr := c.Store.Abort(); aerr != nil {
				log.Errorf("pipeline: store abort after collect failure: %v", aerr)
			}
			return fmt.Errorf("pipeline: collect phase: %w", err)
		}
	}

	var archiveErr error
	if c.Options.CreateArchive {
		archiveErr = c.runArchivePhase(ctx)
	}

	if err := c.Store.Close(); err != nil {
		return fmt.Errorf("pipeline: store close: %w", err)
	}

	if archiveErr != nil {
		return fmt.Errorf("pipeline: archive phase: %w", archiveErr)
	}
	return nil
}

func (c *Coordinator) poolSize() int {
	if c.Options.NumberThreads < 1 {
		return 1
	}
	return c.Options.NumberThreads
}

// runCollectPhase fans out one collector task per device and joins
// before returning; the phase barrier lives in this join -- no archive
// task starts until every one of these has completed.
func (c *Coordinator) runCollectPhase(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(c.poolSize())

	sel := c.Options.DigestSelection()
	for _, d := range c.Devices {
		d := d
		g.Go(func() error {
			metrics.ActiveDevices.Inc()
			defer metrics.ActiveDevices.Dec()
			return collector.Collect(d.ID, d.MountPath, c.Store, sel, c.SlackReader, d.ClusterSize, c.Options.HashChunkSize)
		})
	}

	return g.Wait()
}

// runArchivePhase fans out one archive task per device. Archive-fatal
// failures are logged and confined to their own device task: other
// devices still complete, and the first task error is only surfaced to
// the caller after every task has run.
func (c *Coordinator) runArchivePhase(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(c.poolSize())

	for _, d := range c.Devices {
		d := d
		g.Go(func() error {
			metrics.ActiveDevices.Inc()
			defer metrics.ActiveDevices.Dec()
			if err := c.archiveDevice(d); err != nil {
				log.Errorf("device %d: archive failed: %v", d.ID, err)
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func (c *Coordinator) archiveDevice(d model.Device) error {
	a := c.Archiver.New()

	name := archiver.Name(d.ID, time.Now())
	log.Infof("device %d: archive %q", d.ID, name)

	if err := a.Provide(c.Options.ArchiveLocation, name); err != nil {
		return fmt.Errorf("provide: %w", err)
	}

	it, err := c.Store.GetUniquesForDevice(d.ID, c.Options.UniqueElementsChunkSize)
	if err != nil {
		return fmt.Errorf("uniques query: %w", err)
	}
	defer it.Close()

	for it.Next() {
		p := it.Path()
		alias := archiver.Alias(p, d.MountPath)
		log.Debugf("device %d: archiving %s", d.ID, p)
		if err := a.StoreFile(p, alias); err != nil {
			return fmt.Errorf("store file %s: %w", p, err)
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("uniques iteration: %w", err)
	}

	if err := a.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	log.Infof("device %d: archive completed", d.ID)
	return nil
}
