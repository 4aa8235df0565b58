// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/imgoptim/internal/config"
	"github.com/staranto/imgoptim/internal/meta"
	"github.com/staranto/imgoptim/internal/runner"
)

// OptimizeCommandAction optimizes the files and directories given on the
// command line as a single group, without a task file entry.
func OptimizeCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "optimize") {
		return nil
	}

	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return errors.New("no files or directories given")
	}

	task := config.Task{
		Name:   "optimize",
		Groups: []config.Group{{Src: paths}},
		Options: config.Options{
			ImageAlpha: cmd.Bool("image-alpha"),
			JPEGMini:   cmd.Bool("jpeg-mini"),
			QuitAfter:  cmd.Bool("quit"),
		},
	}
	if !cmd.Bool("no-cache") {
		task.Options.Cache = cmd.String("cache")
	}
	log.Debugf("ad hoc task: %+v", task)

	r := &runner.Runner{
		RootDir: m.RootDir,
		Binary:  cmd.String("binary"),
		Stdout:  ProgressWriter(cmd),
		Stderr:  stderr,
	}

	reports, err := r.Run(ctx, task)
	if err != nil {
		return err
	}

	return EmitReports(reports, cmd)
}

// OptimizeCommandBuilder constructs the cli.Command for "optimize".
func OptimizeCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source

	b := &CommandBuilder{
		Name:      "optimize",
		Usage:     "optimize the given files and directories",
		UsageText: `imgoptim optimize [options] path...`,
		Flags: append([]cli.Flag{
			NewBinaryFlag("optimize", src),
			NewCacheFlag("optimize", src),
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "ignore any configured cache",
			},
		}, NewOptimizerFlags(src)...),
		Reporting: true,
		Action:    OptimizeCommandAction,
		Meta:      meta,
	}
	return b.Build()
}
