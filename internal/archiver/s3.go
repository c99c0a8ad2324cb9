// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package archiver

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/forensiq/ddup/internal/metrics"
	"github.com/forensiq/ddup/internal/model"
)

// S3Archiver streams each stored file as an object into a bucket under a
// device-scoped prefix instead of building a local container; the
// container abstraction becomes "prefix + client" rather than a file
// handle.
type S3Archiver struct {
	cfg    model.ArchiverConfig
	client *s3.Client
	prefix string
	open   bool
}

// NewS3Factory returns a Factory producing fresh *S3Archiver instances
// sharing cfg (bucket/endpoint/region), each with its own S3 client.
func NewS3Factory(cfg model.ArchiverConfig) Factory {
	return FactoryFunc(func() Archiver { return &S3Archiver{cfg: cfg} })
}

func (a *S3Archiver) Provide(location, name string) error {
	if a.open {
		return ErrAlreadyOpen
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(a.cfg.Region),
	)
	if err != nil {
		return fmt.Errorf("archiver: load aws config: %w", err)
	}

	if ak := os.Getenv("AWS_ACCESS_KEY_ID"); ak != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(
			ak, os.Getenv("AWS_SECRET_ACCESS_KEY"), "")
	}

	var opts []func(*s3.Options)
	if a.cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(a.cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	a.client = s3.NewFromConfig(awsCfg, opts...)
	a.prefix = path.Join(location, name)
	a.open = true
	return nil
}

func (a *S3Archiver) StoreFile(sourcePath, alias string) error {
	if !a.open {
		return ErrNotOpen
	}
	if alias == "" {
		alias = sourcePath
	}

	f, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("archiver: open %s: %w", sourcePath, err)
	}
	defer f.Close()

	size, err := f.Stat()
	if err != nil {
		return fmt.Errorf("archiver: stat %s: %w", sourcePath, err)
	}

	key := path.Join(a.prefix, alias)
	_, err = a.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("archiver: put %s/%s: %w", a.cfg.Bucket, key, err)
	}
	metrics.ArchiveBytesWritten.Add(float64(size.Size()))
	return nil
}

func (a *S3Archiver) Close() error {
	if !a.open {
		return ErrNotOpen
	}
	a.open = false
	a.client = nil
	return nil
}
