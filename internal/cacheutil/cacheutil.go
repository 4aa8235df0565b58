// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/apex/log"
)

var keyRe = regexp.MustCompile(`^[0-9a-f]{32}$`)

// Entry represents a cached artifact on disk. Key is the hex checksum that
// also serves as the filename.
type Entry struct {
	Key  string
	Path string
	Data []byte
}

// Stats summarizes the entries of a cache directory.
type Stats struct {
	Path    string
	Entries int
	Bytes   int64
	Oldest  time.Time
	Newest  time.Time
}

// Dir is a flat directory of cache entries named by their key.
type Dir struct {
	Path string
}

// DefaultDir resolves the cache directory used when none is configured.
// Precedence:
//  1. IMGOPTIM_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/imgoptim
//
// Returns ("", false) if a base cannot be resolved.
func DefaultDir() (string, bool) {
	if c, ok := os.LookupEnv("IMGOPTIM_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "imgoptim"), true
	}
	return "", false
}

// Open returns the cache directory at path, creating it if absent.
func Open(path string) (*Dir, error) {
	if path == "" {
		return nil, errors.New("empty cache directory path")
	}
	if err := os.MkdirAll(path, 0o755); err != nil { //nolint:mnd
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Dir{Path: path}, nil
}

// EntryPath returns where the entry for key lives and whether a file
// currently exists there.
func (d *Dir) EntryPath(key string) (string, bool) {
	p := filepath.Join(d.Path, key)
	if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
		return p, true
	}
	return p, false
}

// Read attempts to read a cached entry.
func (d *Dir) Read(key string) (*Entry, bool) {
	p, ok := d.EntryPath(key)
	if !ok {
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil {
		log.WithError(err).Warnf("failed to read cache entry %s", p)
		return nil, false
	}
	return &Entry{Key: key, Path: p, Data: b}, true
}

// Write stores data under key. The entry is written to a temporary file and
// renamed into place so a reader never observes a partial entry.
func (d *Dir) Write(key string, data []byte) error {
	if err := os.MkdirAll(d.Path, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(d.Path, ".tmp-"+key+"-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.Path, key)); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Has reports whether an entry exists for key.
func (d *Dir) Has(_ context.Context, key string) (bool, error) {
	_, ok := d.EntryPath(key)
	return ok, nil
}

// Get returns the bytes stored under key. A missing entry is reported as
// fs.ErrNotExist.
func (d *Dir) Get(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(d.Path, key))
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	return b, nil
}

// Put stores data under key.
func (d *Dir) Put(_ context.Context, key string, data []byte) error {
	return d.Write(key, data)
}

// String returns the directory path.
func (d *Dir) String() string {
	return d.Path
}

// Purge removes entries older than the provided number of hours and returns
// how many were removed. If hours <= 0 it is a no-op.
func (d *Dir) Purge(hours int) (int, error) {
	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return 0, nil
	}

	maxAge := time.Duration(hours) * time.Hour
	removed := 0

	err := d.walk(func(path string, info fs.FileInfo) {
		if time.Since(info.ModTime()) <= maxAge {
			return
		}
		if err := os.Remove(path); err == nil {
			removed++
			log.Debugf("removed cache file %s", path)
		} else {
			log.WithError(err).Warnf("failed to remove cache file %s", path)
		}
	})
	if err != nil {
		return removed, fmt.Errorf("failed to purge cache: %w", err)
	}
	return removed, nil
}

// Stats counts the entries of the directory and their total size.
func (d *Dir) Stats() (Stats, error) {
	s := Stats{Path: d.Path}
	err := d.walk(func(_ string, info fs.FileInfo) {
		s.Entries++
		s.Bytes += info.Size()
		if s.Oldest.IsZero() || info.ModTime().Before(s.Oldest) {
			s.Oldest = info.ModTime()
		}
		if info.ModTime().After(s.Newest) {
			s.Newest = info.ModTime()
		}
	})
	if err != nil {
		return s, fmt.Errorf("failed to read cache directory: %w", err)
	}
	return s, nil
}

// walk visits the regular files of the directory whose names are checksum
// keys. The cache is flat, so subdirectories are not descended into.
func (d *Dir) walk(fn func(path string, info fs.FileInfo)) error {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || !keyRe.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		fn(filepath.Join(d.Path, e.Name()), info)
	}
	return nil
}
