// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/imgoptim/internal/config"
	"github.com/staranto/imgoptim/internal/meta"
	"github.com/staranto/imgoptim/internal/runner"
)

// RunCommandAction runs the named tasks of the task file, or all of them in
// name order when none are named.
func RunCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "run") {
		return nil
	}

	cfg, err := config.Load(m.RootDir)
	if err != nil {
		return fmt.Errorf("failed to load task file: %w", err)
	}
	config.Config.Namespace = "run"

	// A deprecated task file is rejected before anything runs.
	if err := config.ValidateShape(cfg.Data).Err(); err != nil {
		return err
	}

	tasks, err := selectTasks(cfg, cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return fmt.Errorf("no tasks declared in %s", cfg.Source)
	}

	r := &runner.Runner{
		RootDir: m.RootDir,
		Binary:  cmd.String("binary"),
		Stdout:  ProgressWriter(cmd),
		Stderr:  stderr,
	}

	reports, err := r.RunAll(ctx, tasks)
	if err != nil {
		return err
	}

	return EmitReports(reports, cmd)
}

// selectTasks returns the named tasks in the order given, or every task.
func selectTasks(cfg config.Type, names []string) ([]config.Task, error) {
	if len(names) == 0 {
		return cfg.Tasks()
	}

	tasks := make([]config.Task, 0, len(names))
	for _, n := range names {
		t, err := cfg.Task(n)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// RunCommandBuilder constructs the cli.Command for "run".
func RunCommandBuilder(meta meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:      "run",
		Usage:     "run the tasks of the task file",
		UsageText: `imgoptim run [options] [task...]`,
		Flags: []cli.Flag{
			NewBinaryFlag("run", meta.Config.Source),
		},
		Reporting: true,
		Action:    RunCommandAction,
		Meta:      meta,
	}
	return b.Build()
}
