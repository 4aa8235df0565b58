// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package optimizer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/imgoptim/internal/optimizer/optimizertest"
)

func TestOptionsArgs(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"none", Options{}, nil},
		{"quit", Options{QuitAfter: true}, []string{"--quit"}},
		{"alpha and jpeg", Options{ImageAlpha: true, JPEGMini: true}, []string{"--image-alpha", "--jpeg-mini"}},
		{"all", Options{JPEGMini: true, ImageAlpha: true, QuitAfter: true}, []string{"--quit", "--image-alpha", "--jpeg-mini"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.Args())
		})
	}
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'/a/my images/x'`, ShellQuote("/a/my images/x"))
	assert.Equal(t, `'/plain'`, ShellQuote("/plain"))
	assert.Equal(t, `'/a/it'\''s dir'`, ShellQuote("/a/it's dir"))
	assert.Equal(t, `'$HOME `+"`x`"+`'`, ShellQuote("$HOME `x`"))
}

func TestResult(t *testing.T) {
	assert.True(t, Result{}.OK())
	assert.NoError(t, Result{}.Err())

	r := Result{ExitCode: 3, Diagnostic: FailureMessage}
	assert.False(t, r.OK())
	var exitErr *ExitError
	require.True(t, errors.As(r.Err(), &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, FailureMessage+" (exit code 3)", exitErr.Error())
}

func TestRunFiles(t *testing.T) {
	root := t.TempDir()
	fake := optimizertest.Install(t, filepath.Join(root, "bin", "imageOptim"), 0)

	a := filepath.Join(root, "a.png")
	b := filepath.Join(root, "b b.png")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))

	var out bytes.Buffer
	iv := New(fake.Bin)
	iv.Stdout = &out

	res, err := iv.RunFiles(context.Background(), Options{QuitAfter: true, JPEGMini: true}, []string{a, b})
	require.NoError(t, err)
	assert.True(t, res.OK())

	calls := fake.Calls(t)
	require.Len(t, calls, 1)
	assert.Equal(t, "--quit --jpeg-mini", calls[0].Args)
	assert.Equal(t, filepath.Dir(fake.Bin), calls[0].Dir)
	assert.Equal(t, []string{a, b}, calls[0].Files)

	assert.Equal(t, "starting\noptimized "+a+"\noptimized "+b+"\n", out.String())

	got, _ := os.ReadFile(a)
	assert.Equal(t, "a"+optimizertest.Suffix, string(got))
}

func TestRunFiles_NonZeroExit(t *testing.T) {
	root := t.TempDir()
	fake := optimizertest.Install(t, filepath.Join(root, "imageOptim"), 2)
	a := filepath.Join(root, "a.png")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))

	iv := New(fake.Bin)
	iv.Stdout = nil

	res, err := iv.RunFiles(context.Background(), Options{}, []string{a})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, FailureMessage, res.Diagnostic)
}

func TestRunFiles_StartFailure(t *testing.T) {
	iv := New(filepath.Join(t.TempDir(), "missing"))
	_, err := iv.RunFiles(context.Background(), Options{}, []string{"x"})
	assert.Error(t, err)
}

func TestRunDirectory(t *testing.T) {
	root := t.TempDir()
	fake := optimizertest.Install(t, filepath.Join(root, "node modules", "imageOptim"), 0)

	dir := filepath.Join(root, "my images")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("a"), 0o644))

	var out bytes.Buffer
	iv := New(fake.Bin)
	iv.Stdout = &out

	res, err := iv.RunDirectory(context.Background(), Options{ImageAlpha: true}, dir)
	require.NoError(t, err)
	assert.True(t, res.OK())

	calls := fake.Calls(t)
	require.Len(t, calls, 1)
	assert.Equal(t, "--image-alpha --directory "+dir, calls[0].Args)
	assert.Equal(t, dir, calls[0].Dir)
	assert.Equal(t, []string{filepath.Join(dir, "a.png")}, calls[0].Files)
	assert.Contains(t, out.String(), "optimized "+filepath.Join(dir, "a.png"))
}

func TestRunDirectory_ShellCharacters(t *testing.T) {
	root := t.TempDir()
	fake := optimizertest.Install(t, filepath.Join(root, "bin", "imageOptim"), 0)

	dir := filepath.Join(root, "it's $dir")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("a"), 0o644))

	iv := New(fake.Bin)
	iv.Stdout = &bytes.Buffer{}

	res, err := iv.RunDirectory(context.Background(), Options{}, dir)
	require.NoError(t, err)
	assert.True(t, res.OK())

	calls := fake.Calls(t)
	require.Len(t, calls, 1)
	assert.Equal(t, "--directory "+dir, calls[0].Args)
	assert.Equal(t, []string{filepath.Join(dir, "a.png")}, calls[0].Files)
}

func TestRunDirectory_Cancelled(t *testing.T) {
	root := t.TempDir()
	fake := optimizertest.Install(t, filepath.Join(root, "imageOptim"), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(fake.Bin).RunDirectory(ctx, Options{}, root)
	assert.Error(t, err)
}

func TestLocate(t *testing.T) {
	root := t.TempDir()

	_, err := Locate(root, "")
	assert.ErrorIs(t, err, ErrBinaryNotFound)
	assert.Contains(t, err.Error(), IssueURL)

	second := filepath.Join(root, filepath.FromSlash(InstallLocations[1]))
	optimizertest.Install(t, second, 0)
	got, err := Locate(root, "")
	require.NoError(t, err)
	assert.Equal(t, second, got)

	first := filepath.Join(root, filepath.FromSlash(InstallLocations[0]))
	optimizertest.Install(t, first, 0)
	got, err = Locate(root, "")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	override := filepath.Join(t.TempDir(), "custom")
	_, err = Locate(root, override)
	assert.ErrorIs(t, err, ErrBinaryNotFound)

	optimizertest.Install(t, override, 0)
	got, err = Locate(root, override)
	require.NoError(t, err)
	assert.Equal(t, override, got)
}

func TestLocate_RelativeOverride(t *testing.T) {
	root := t.TempDir()
	rel := filepath.FromSlash(InstallLocations[0])
	want := filepath.Join(root, rel)
	optimizertest.Install(t, want, 0)

	got, err := Locate(root, rel)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Locate(root, "bin/nope")
	assert.ErrorIs(t, err, ErrBinaryNotFound)
	assert.Contains(t, err.Error(), filepath.Join(root, "bin", "nope"))
}

func TestLocate_NotExecutable(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, filepath.FromSlash(InstallLocations[0]))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"), 0o644))

	_, err := Locate(root, "")
	assert.ErrorIs(t, err, ErrBinaryNotFound)
}
