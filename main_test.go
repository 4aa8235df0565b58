// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/imgoptim/internal/config"
)

const setsFile = `
run:
  sets:
    defaults: --titles
    quiet:
      - --output json
      - --no-color
cache:
  sets:
    defaults: --output yaml
`

func setupSets(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "imgoptim.yaml"), []byte(setsFile), 0o600))

	t.Setenv("IMGOPTIM_CFG", "")
	require.NoError(t, os.Unsetenv("IMGOPTIM_CFG"))
	t.Setenv("HOME", t.TempDir())
	config.Config = config.Type{}
	t.Cleanup(func() { config.Config = config.Type{} })
	return root
}

func TestMangleArguments(t *testing.T) {
	root := setupSets(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "defaults set",
			args: []string{"imgoptim", "run", "-r", root, "site"},
			want: []string{"imgoptim", "run", "--titles", "-r", root, "site"},
		},
		{
			name: "named set replaces defaults",
			args: []string{"imgoptim", "run", "site", "@quiet", "-r", root},
			want: []string{"imgoptim", "run", "site", "--output", "json", "--no-color", "-r", root},
		},
		{
			name: "unknown set expands to nothing",
			args: []string{"imgoptim", "run", "@nope", "-r", root},
			want: []string{"imgoptim", "run", "-r", root},
		},
		{
			name: "group command inserts after subcommand",
			args: []string{"imgoptim", "cache", "stats", "-r", root},
			want: []string{"imgoptim", "cache", "stats", "--output", "yaml", "-r", root},
		},
		{
			name: "help short-circuits",
			args: []string{"imgoptim", "run", "site", "-h"},
			want: []string{"imgoptim", "run", "--help"},
		},
		{
			name: "help keeps the group subcommand",
			args: []string{"imgoptim", "cache", "purge", "--hours", "1", "--help"},
			want: []string{"imgoptim", "cache", "purge", "--help"},
		},
		{
			name: "root flag untouched",
			args: []string{"imgoptim", "--version"},
			want: []string{"imgoptim", "--version"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.Config = config.Type{}
			assert.Equal(t, tt.want, mangleArguments(tt.args))
		})
	}
}

func TestRealMain_ExitCodes(t *testing.T) {
	root := setupSets(t)

	assert.Equal(t, 0, realMain([]string{"imgoptim", "--version"}))
	assert.Equal(t, 1, realMain([]string{"imgoptim", "run", "-r", filepath.Join(root, "missing")}))
	// No tasks declared in the task file.
	assert.Equal(t, 2, realMain([]string{"imgoptim", "run", "-r", root}))
}
