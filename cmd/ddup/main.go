// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/gops/agent"

	"github.com/forensiq/ddup/internal/archiver"
	"github.com/forensiq/ddup/internal/config"
	"github.com/forensiq/ddup/internal/metrics"
	"github.com/forensiq/ddup/internal/model"
	"github.com/forensiq/ddup/internal/pipeline"
	"github.com/forensiq/ddup/internal/runtimeenv"
	"github.com/forensiq/ddup/internal/store"
	"github.com/forensiq/ddup/pkg/log"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	if err := runtimeenv.LoadEnv("./.env"); err != nil {
		log.Fatalf("parsing './.env' file failed: %s", err.Error())
	}

	cliInit()

	log.SetLogLevel(flagLogLevel)
	log.SetLogDateTime(flagLogDateTime)

	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	if flagGenerateConfigSet {
		path, err := config.Generate(flagGenerateConfig)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("default configuration written to %s\n", path)
		return
	}

	if flagOnlyCollect && flagOnlyArchive {
		log.Fatal("--onlycollect and --onlyarchive are mutually exclusive")
	}

	cfg, err := config.Load(flagUseConfig)
	if err != nil {
		log.Fatal(err)
	}

	for _, raw := range flagDevices {
		d, err := parseDeviceFlag(raw)
		if err != nil {
			log.Fatalf("--device %q: %s", raw, err.Error())
		}
		config.ApplyDeviceOverride(&cfg, d)
	}

	if flagCopySlack {
		cfg.Options.StoreSlackSpace = true
	}
	if flagSHA1 {
		cfg.Options.EnableSHA1 = true
	}
	if flagSHA256 {
		cfg.Options.EnableSHA256 = true
	}
	if flagMD5 {
		cfg.Options.EnableMD5 = true
	}
	if flagOnlyCollect {
		cfg.Options.Collect = true
		cfg.Options.CreateArchive = false
	}
	if flagOnlyArchive {
		cfg.Options.Collect = false
		cfg.Options.CreateArchive = true
	}

	st := store.NewSQLite(cfg.Options.Store.DSN, store.DefaultFlushThreshold)

	archFactory, err := archiver.NewFactory(cfg.Options.Archiver)
	if err != nil {
		log.Fatal(err)
	}

	coord, err := pipeline.New(cfg, st, archFactory)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Options.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Options.MetricsAddr); err != nil {
				log.Errorf("metrics: %v", err)
			}
		}()
	}

	if err := coord.Run(ctx); err != nil {
		log.Fatal(err)
	}

	log.Info("run completed")
}

// removeQuotes strips one layer of matching leading/trailing double quotes,
// so a quoted mount path doesn't end up stored with the quote characters
// still attached. Quoting does not protect embedded commas: the argument
// is split on commas before quotes are removed.
func removeQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// parseDeviceFlag parses "id,description,mountpath[,clustersize]" into a
// model.Device. clustersize defaults to 0 (no slack capture) when absent.
func parseDeviceFlag(raw string) (model.Device, error) {
	parts := strings.SplitN(raw, ",", 4)
	if len(parts) < 3 {
		return model.Device{}, fmt.Errorf("expected id,description,mountpath[,clustersize]")
	}

	id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return model.Device{}, fmt.Errorf("invalid id: %w", err)
	}

	d := model.Device{
		ID:          id,
		Description: strings.TrimSpace(parts[1]),
		MountPath:   removeQuotes(strings.TrimSpace(parts[2])),
	}

	if len(parts) == 4 && strings.TrimSpace(parts[3]) != "" {
		cluster, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64)
		if err != nil {
			return model.Device{}, fmt.Errorf("invalid clustersize: %w", err)
		}
		d.ClusterSize = cluster
	}

	return d, nil
}
