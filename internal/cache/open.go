// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/imgoptim/internal/aws"
	"github.com/staranto/imgoptim/internal/cacheutil"
)

// NewS3Client builds the client behind s3:// stores. Tests replace it.
var NewS3Client = func(ctx context.Context) (S3API, error) {
	return aws.NewS3Client(ctx, aws.FromEnv()...)
}

// OpenStore resolves a task's cache option. "s3://bucket/prefix" selects an
// S3Store; anything else is a local directory, relative to rootDir unless
// absolute, created when missing.
func OpenStore(ctx context.Context, spec, rootDir string) (Store, error) {
	if strings.HasPrefix(spec, "s3://") {
		u, err := url.Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid cache url %q: %w", spec, err)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("invalid cache url %q: missing bucket", spec)
		}
		client, err := NewS3Client(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to set up S3 cache: %w", err)
		}
		store := &S3Store{
			Client: client,
			Bucket: u.Host,
			Prefix: strings.Trim(u.Path, "/"),
		}
		log.Debugf("using S3 cache %s", store)
		return store, nil
	}

	dir := spec
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(rootDir, dir)
	}
	log.Debugf("using cache directory %s", dir)
	return cacheutil.Open(dir)
}
