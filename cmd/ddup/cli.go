// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import "flag"

// deviceFlag collects repeated --device flags as raw "id,desc,path[,cluster]"
// strings; parsing and validation happens in main once flag.Parse has run.
type deviceFlag []string

func (d *deviceFlag) String() string {
	return ""
}

func (d *deviceFlag) Set(v string) error {
	*d = append(*d, v)
	return nil
}

var (
	flagGenerateConfig, flagUseConfig              string
	flagOnlyCollect, flagOnlyArchive, flagCopySlack bool
	flagSHA1, flagSHA256, flagMD5                   bool
	flagGops, flagLogDateTime                       bool
	flagLogLevel                                    string
	flagDevices                                     deviceFlag

	// flagGenerateConfigSet distinguishes "--generateconfig not passed"
	// from "--generateconfig passed with an empty value" (meaning: use
	// the default path). A bare string flag can't tell the two apart.
	flagGenerateConfigSet bool
)

func cliInit() {
	flag.StringVar(&flagGenerateConfig, "generateconfig", "", "Write a default configuration to `path` (or ./config.json if path is empty) and exit")
	flag.StringVar(&flagUseConfig, "useconfig", "./config.json", "Load run configuration from `path`")
	flag.Var(&flagDevices, "device", "Add or override a device. Argument format: `id,description,mountpath[,clustersize]` (repeatable)")
	flag.BoolVar(&flagOnlyCollect, "onlycollect", false, "Run only the collect phase, skipping archive creation")
	flag.BoolVar(&flagOnlyArchive, "onlyarchive", false, "Run only the archive phase against entries already in the store")
	flag.BoolVar(&flagCopySlack, "copyslack", false, "Capture filesystem slack space for every file (overrides the configured option)")
	flag.BoolVar(&flagSHA1, "sha1", false, "Enable SHA1 digests (overrides the configured option)")
	flag.BoolVar(&flagSHA256, "sha256", false, "Enable SHA256 digests (overrides the configured option)")
	flag.BoolVar(&flagMD5, "md5", false, "Enable MD5 digests (overrides the configured option)")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.BoolVar(&flagLogDateTime, "logdate", false, "Set this flag to add date and time to log messages")
	flag.StringVar(&flagLogLevel, "loglevel", "info", "Sets the logging level: `[debug, info (default), warn, err]`")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "generateconfig" {
			flagGenerateConfigSet = true
		}
	})
}
