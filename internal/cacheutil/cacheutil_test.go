// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	keyA = "0cc175b9c0f1b6a831c399e269772661"
	keyB = "92eb5ffee6ae2fec3ad71c777531578f"
)

func TestDefaultDir(t *testing.T) {
	t.Setenv("IMGOPTIM_CACHE_DIR", "/tmp/custom")
	dir, ok := DefaultDir()
	assert.True(t, ok)
	assert.Equal(t, "/tmp/custom", dir)

	t.Setenv("IMGOPTIM_CACHE_DIR", "")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, ok = DefaultDir()
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/tmp/xdg", "imgoptim"), dir)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", ".cache")

	d, err := Open(p)
	require.NoError(t, err)
	assert.Equal(t, p, d.String())
	fi, err := os.Stat(p)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	_, err = Open("")
	assert.Error(t, err)
}

func TestWriteRead(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)

	_, ok := d.Read(keyA)
	assert.False(t, ok)

	// Binary content must survive untouched, including trailing whitespace.
	data := []byte{0x89, 'P', 'N', 'G', '\n', ' '}
	require.NoError(t, d.Write(keyA, data))

	e, ok := d.Read(keyA)
	require.True(t, ok)
	assert.Equal(t, keyA, e.Key)
	assert.Equal(t, filepath.Join(d.Path, keyA), e.Path)
	assert.Equal(t, data, e.Data)

	// No temp files left behind.
	entries, err := os.ReadDir(d.Path)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreMethods(t *testing.T) {
	ctx := context.Background()
	d, err := Open(t.TempDir())
	require.NoError(t, err)

	ok, err := d.Has(ctx, keyA)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = d.Get(ctx, keyA)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, d.Put(ctx, keyA, []byte("optimized")))

	ok, err = d.Has(ctx, keyA)
	assert.NoError(t, err)
	assert.True(t, ok)

	b, err := d.Get(ctx, keyA)
	assert.NoError(t, err)
	assert.Equal(t, []byte("optimized"), b)
}

func TestPurge(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, d.Write(keyA, []byte("old")))
	require.NoError(t, d.Write(keyB, []byte("new")))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(d.Path, keyA), old, old))

	// Files that are not entries are never touched.
	stray := filepath.Join(d.Path, "README")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(stray, old, old))

	n, err := d.Purge(0)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = d.Purge(24)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok := d.EntryPath(keyA)
	assert.False(t, ok)
	_, ok = d.EntryPath(keyB)
	assert.True(t, ok)
	assert.FileExists(t, stray)
}

func TestStats(t *testing.T) {
	d, err := Open(t.TempDir())
	require.NoError(t, err)

	s, err := d.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Entries)

	require.NoError(t, d.Write(keyA, []byte("12345")))
	require.NoError(t, d.Write(keyB, []byte("123")))

	s, err = d.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries)
	assert.Equal(t, int64(8), s.Bytes)
	assert.False(t, s.Oldest.IsZero())
	assert.False(t, s.Newest.Before(s.Oldest))

	missing := &Dir{Path: filepath.Join(t.TempDir(), "missing")}
	s, err = missing.Stats()
	assert.NoError(t, err)
	assert.Equal(t, 0, s.Entries)
}
