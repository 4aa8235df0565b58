// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
)

// Store persists optimized bytes by checksum. Entries are never modified
// once written.
type Store interface {
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Item is a file together with the checksum it had when it was planned.
type Item struct {
	Path string
	Sum  string
}

// Plan is the outcome of Reduce. Pending still needs optimizing, Restored
// was served from the cache.
type Plan struct {
	Pending  []Item
	Restored []Item
}

// Paths returns the paths of the pending items, in order.
func (p *Plan) Paths() []string {
	paths := make([]string, 0, len(p.Pending))
	for _, it := range p.Pending {
		paths = append(paths, it.Path)
	}
	return paths
}

// Cache decides per file whether the optimizer has to see it.
type Cache struct {
	store Store
	out   io.Writer
}

// New returns a Cache over store. Hit and miss lines are written to out.
func New(store Store, out io.Writer) *Cache {
	if out == nil {
		out = io.Discard
	}
	return &Cache{store: store, out: out}
}

// Reduce hashes every file. Files with a stored entry are overwritten with
// the stored bytes and left out of Plan.Pending; every other file is pending.
// Input order is preserved.
func (c *Cache) Reduce(ctx context.Context, files []string) (*Plan, error) {
	plan := &Plan{}

	for _, path := range files {
		s, err := Checksum(path)
		if err != nil {
			return nil, err
		}

		hit, err := c.store.Has(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("failed to look up cache entry for %s: %w", path, err)
		}

		if !hit {
			log.Debugf("cache miss %s (%s)", path, s)
			fmt.Fprintf(c.out, "cache miss: %s\n", path)
			plan.Pending = append(plan.Pending, Item{Path: path, Sum: s})
			continue
		}

		data, err := c.store.Get(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("failed to read cache entry for %s: %w", path, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:mnd
			return nil, fmt.Errorf("failed to restore %s from cache: %w", path, err)
		}

		log.Debugf("cache hit %s (%s)", path, s)
		fmt.Fprintf(c.out, "cache hit: %s\n", path)
		plan.Restored = append(plan.Restored, Item{Path: path, Sum: s})
	}

	return plan, nil
}

// Commit stores the current (optimized) content of every pending file under
// the checksum it had before optimization. When optimizing changed the
// checksum, the same bytes are stored under the new checksum as well so an
// already optimized file is a hit next time.
func (c *Cache) Commit(ctx context.Context, plan *Plan) error {
	for _, it := range plan.Pending {
		data, err := os.ReadFile(it.Path)
		if err != nil {
			return fmt.Errorf("failed to read optimized %s: %w", it.Path, err)
		}

		if err := c.store.Put(ctx, it.Sum, data); err != nil {
			return fmt.Errorf("failed to cache %s: %w", it.Path, err)
		}
		log.Debugf("cached %s as %s", it.Path, it.Sum)

		post := sum(data)
		if post == it.Sum {
			continue
		}
		has, err := c.store.Has(ctx, post)
		if err != nil {
			log.WithError(err).Warnf("failed to look up cache entry %s", post)
			continue
		}
		if !has {
			if err := c.store.Put(ctx, post, data); err != nil {
				return fmt.Errorf("failed to cache %s: %w", it.Path, err)
			}
			log.Debugf("cached %s as %s", it.Path, post)
		}
	}
	return nil
}
