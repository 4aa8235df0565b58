// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tree creates files (and their parent directories) beneath root.
func tree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o644))
	}
}

func TestPartition(t *testing.T) {
	root := t.TempDir()
	tree(t, root, "img/logo.png", "images/a.png", "images/b.png", "other/c.png")
	outside := filepath.Join(t.TempDir(), "d.png")
	require.NoError(t, os.WriteFile(outside, []byte("d"), 0o644))

	b := Partition(root, []string{
		"images",
		"img/logo.png",
		"missing.png",
		outside,
		"./images/",
		"other",
	})

	assert.Equal(t, []string{
		filepath.Join(root, "img", "logo.png"),
		outside,
	}, b.Files)
	assert.Equal(t, []string{
		filepath.Join(root, "images"),
		filepath.Join(root, "other"),
	}, b.Dirs)
}

func TestPartition_Empty(t *testing.T) {
	b := Partition(t.TempDir(), []string{"nope", "also/nope"})
	assert.Empty(t, b.Files)
	assert.Empty(t, b.Dirs)
}

func TestAbs(t *testing.T) {
	assert.Equal(t, "/proj/images", Abs("/proj", "images"))
	assert.Equal(t, "/proj/images", Abs("/proj", "./images/"))
	assert.Equal(t, "/abs/x.png", Abs("/proj", "/abs/./x.png"))
}

func TestExpand(t *testing.T) {
	root := t.TempDir()
	tree(t, root,
		"images/b.png",
		"images/a.png",
		"images/nested/deep.png",
		"icons/z.png",
	)

	files, err := Expand([]string{
		filepath.Join(root, "images"),
		filepath.Join(root, "icons"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "images", "a.png"),
		filepath.Join(root, "images", "b.png"),
		filepath.Join(root, "icons", "z.png"),
	}, files)

	_, err = Expand([]string{filepath.Join(root, "missing")})
	assert.Error(t, err)
}

func TestExpand_Symlinks(t *testing.T) {
	root := t.TempDir()
	tree(t, root, "src/real.png", "images/a.png", "src/sub/x.png")
	require.NoError(t, os.Symlink(filepath.Join(root, "src", "real.png"), filepath.Join(root, "images", "link.png")))
	require.NoError(t, os.Symlink(filepath.Join(root, "src", "sub"), filepath.Join(root, "images", "linkdir")))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.png"), filepath.Join(root, "images", "dangling.png")))

	files, err := Expand([]string{filepath.Join(root, "images")})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "images", "a.png"),
		filepath.Join(root, "images", "link.png"),
	}, files)
}
