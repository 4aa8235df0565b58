// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/imgoptim/internal/config"
	"github.com/staranto/imgoptim/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the imgoptim
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// The project root decides which task file supplies flag defaults, so it
	// has to be known before the flags are built.
	rootDir, err := RootFromArgs(args, sd)
	if err != nil {
		return nil, err
	}

	config.Config.Namespace = ns
	cfg, err := config.Load(rootDir)
	if err != nil {
		log.Debugf("no task file: %v", err)
	}

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		RootDir:     rootDir,
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:  "imgoptim",
		Usage: "optimize project images with ImageOptim-CLI",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "imgoptim version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		CacheCommandBuilder(meta),
		CompletionCommandBuilder(app, meta),
		OptimizeCommandBuilder(meta),
		RunCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sortFlags(cmd)
	}

	return app, nil
}

func sortFlags(cmd *cli.Command) {
	sort.Slice(cmd.Flags, func(i, j int) bool {
		return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
	})
	for _, sub := range cmd.Commands {
		sortFlags(sub)
	}
}

// RootFromArgs finds the --root/-r value in args and returns it as an
// absolute directory. Relative values are taken from cwd, which is also the
// default.
func RootFromArgs(args []string, cwd string) (string, error) {
	root := ""
	for i := 1; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		switch {
		case a == "--root" || a == "-r":
			if i+1 < len(args) {
				root = args[i+1]
				i++
			}
		case strings.HasPrefix(a, "--root="):
			root = strings.TrimPrefix(a, "--root=")
		case strings.HasPrefix(a, "-r="):
			root = strings.TrimPrefix(a, "-r=")
		}
	}

	if root == "" {
		return cwd, nil
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(cwd, root)
	}

	fi, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("failed to parse rootDir (%s): %w", root, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("failed to parse rootDir (%s): not a directory", root)
	}
	return filepath.Clean(root), nil
}
