// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/imgoptim/internal/cacheutil"
)

func md5hex(b []byte) string {
	s := md5.Sum(b)
	return hex.EncodeToString(s[:])
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestChecksum(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"small", []byte("hello")},
		{"exactly one chunk", bytes.Repeat([]byte{'x'}, ChunkSize)},
		{"several chunks", bytes.Repeat([]byte("abc"), ChunkSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, filepath.Join(dir, tt.name), tt.data)
			got, err := Checksum(p)
			require.NoError(t, err)
			assert.Equal(t, md5hex(tt.data), got)
		})
	}

	_, err := Checksum(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestReduce_HitsAndMisses(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := cacheutil.Open(filepath.Join(root, ".cache"))
	require.NoError(t, err)

	a := writeFile(t, filepath.Join(root, "images", "a.png"), []byte("raw-a"))
	b := writeFile(t, filepath.Join(root, "images", "b.png"), []byte("raw-b"))
	require.NoError(t, store.Write(md5hex([]byte("raw-b")), []byte("B2")))

	var out bytes.Buffer
	c := New(store, &out)

	plan, err := c.Reduce(ctx, []string{a, b})
	require.NoError(t, err)

	assert.Equal(t, []Item{{Path: a, Sum: md5hex([]byte("raw-a"))}}, plan.Pending)
	assert.Equal(t, []string{a}, plan.Paths())
	assert.Equal(t, []Item{{Path: b, Sum: md5hex([]byte("raw-b"))}}, plan.Restored)

	restored, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("B2"), restored)

	untouched, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, []byte("raw-a"), untouched)

	assert.Equal(t, "cache miss: "+a+"\ncache hit: "+b+"\n", out.String())
}

func TestReduce_AllCached(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := cacheutil.Open(filepath.Join(root, ".cache"))
	require.NoError(t, err)

	a := writeFile(t, filepath.Join(root, "a.png"), []byte("raw-a"))
	require.NoError(t, store.Write(md5hex([]byte("raw-a")), []byte("opt-a")))

	plan, err := New(store, nil).Reduce(ctx, []string{a})
	require.NoError(t, err)
	assert.Empty(t, plan.Pending)
	assert.Empty(t, plan.Paths())
	assert.Len(t, plan.Restored, 1)
}

func TestReduce_MissingFile(t *testing.T) {
	store, err := cacheutil.Open(t.TempDir())
	require.NoError(t, err)

	_, err = New(store, nil).Reduce(context.Background(), []string{filepath.Join(t.TempDir(), "gone.png")})
	assert.Error(t, err)
}

func TestCommit(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := cacheutil.Open(filepath.Join(root, ".cache"))
	require.NoError(t, err)

	a := writeFile(t, filepath.Join(root, "a.png"), []byte("raw-a"))
	c := New(store, nil)

	plan, err := c.Reduce(ctx, []string{a})
	require.NoError(t, err)

	// Simulate the optimizer rewriting the file.
	writeFile(t, a, []byte("opt-a"))
	require.NoError(t, c.Commit(ctx, plan))

	e, ok := store.Read(md5hex([]byte("raw-a")))
	require.True(t, ok)
	assert.Equal(t, []byte("opt-a"), e.Data)

	e, ok = store.Read(md5hex([]byte("opt-a")))
	require.True(t, ok)
	assert.Equal(t, []byte("opt-a"), e.Data)

	// Same original content again: served from the cache.
	writeFile(t, a, []byte("raw-a"))
	plan, err = c.Reduce(ctx, []string{a})
	require.NoError(t, err)
	assert.Empty(t, plan.Pending)
	got, _ := os.ReadFile(a)
	assert.Equal(t, []byte("opt-a"), got)

	// Already optimized content is a hit too.
	plan, err = c.Reduce(ctx, []string{a})
	require.NoError(t, err)
	assert.Empty(t, plan.Pending)
}

func TestCommit_UnchangedContent(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := cacheutil.Open(filepath.Join(root, ".cache"))
	require.NoError(t, err)

	a := writeFile(t, filepath.Join(root, "a.png"), []byte("already-small"))
	c := New(store, nil)
	plan, err := c.Reduce(ctx, []string{a})
	require.NoError(t, err)
	require.NoError(t, c.Commit(ctx, plan))

	s, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries)
}

type failingStore struct {
	Store
	err error
}

func (f failingStore) Has(context.Context, string) (bool, error) { return false, f.err }

func TestReduce_StoreError(t *testing.T) {
	a := writeFile(t, filepath.Join(t.TempDir(), "a.png"), []byte("raw"))
	boom := errors.New("boom")

	_, err := New(failingStore{err: boom}, nil).Reduce(context.Background(), []string{a})
	assert.ErrorIs(t, err, boom)
}
