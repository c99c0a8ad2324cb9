// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package model holds the plain value types shared by every component of
// the pipeline: the configured devices, the run-wide options record, and
// the entry row written by the collector and read back by the archiver.
// None of these types carry behavior; they are passed by reference
// through the core instead of being rebuilt ad-hoc in each package.
package model

// Device is one configured forensic source. ID is unique within a run and
// orders devices; ClusterSize == 0 means "do not attempt slack capture on
// this device."
type Device struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	MountPath   string `json:"mountPath"`
	ClusterSize int64  `json:"clusterSize"`
}

// DigestSelection is the set of algorithms driven for every file in a run.
// It is constant for the lifetime of a run (I1).
type DigestSelection struct {
	SHA1   bool
	SHA256 bool
	MD5    bool
}

// Empty reports whether no algorithm is selected.
func (d DigestSelection) Empty() bool {
	return !d.SHA1 && !d.SHA256 && !d.MD5
}

// Entry is the canonical row written by the collector and read by the
// archiver. A nil digest pointer is the unset sentinel (I3): it means that
// algorithm was not part of the run's DigestSelection, never that hashing
// produced an empty string.
type Entry struct {
	SHA1      *string
	SHA256    *string
	MD5       *string
	DeviceID  int64
	FilePath  string
	FileSlack []byte
}

// StoreConfig names the driver and connection string for the entry store.
type StoreConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// ArchiverConfig selects the archiver backend and its parameters.
type ArchiverConfig struct {
	Kind     string `json:"kind"`
	Endpoint string `json:"endpoint,omitempty"`
	Bucket   string `json:"bucket,omitempty"`
	Region   string `json:"region,omitempty"`
}

// Options is the run-wide configuration record, a plain value passed by
// reference rather than looked up property-by-property.
type Options struct {
	EnableSHA1   bool `json:"enableSha1"`
	EnableSHA256 bool `json:"enableSha256"`
	EnableMD5    bool `json:"enableMd5"`

	NumberThreads int `json:"numberThreads"`
	HashChunkSize int `json:"hashChunkSize"`

	StoreSlackSpace bool `json:"storeSlackSpace"`
	CreateArchive   bool `json:"createArchive"`
	Collect         bool `json:"collect"`

	ArchiveLocation         string `json:"archiveLocation"`
	UniqueElementsChunkSize int    `json:"uniqueElementsChunkSize"`

	Store    StoreConfig    `json:"store"`
	Archiver ArchiverConfig `json:"archiver"`

	MetricsAddr string `json:"metricsAddr"`
}

// DigestSelection projects the digest-related options into a
// DigestSelection value.
func (o Options) DigestSelection() DigestSelection {
	return DigestSelection{SHA1: o.EnableSHA1, SHA256: o.EnableSHA256, MD5: o.EnableMD5}
}

// Config is the top-level shape of the configuration file: the configured
// devices plus the run-wide options.
type Config struct {
	Devices []Device `json:"devices"`
	Options Options  `json:"options"`
}

// Default returns the configuration written by --generateconfig.
func Default() Config {
	return Config{
		Devices: []Device{},
		Options: Options{
			EnableSHA1:              true,
			EnableSHA256:            false,
			EnableMD5:               false,
			NumberThreads:           1,
			HashChunkSize:           65536,
			StoreSlackSpace:         false,
			CreateArchive:           true,
			Collect:                 true,
			ArchiveLocation:         "./var/archives",
			UniqueElementsChunkSize: 1000,
			Store:                   StoreConfig{Driver: "sqlite3", DSN: "./var/ddup.db"},
			Archiver:                ArchiverConfig{Kind: "zip"},
			MetricsAddr:             "",
		},
	}
}
