// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package runner drives the optimizer over the groups of a task: for each
// group a files step and then a directories step, run strictly one after
// the other. The first failing step ends the task.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"

	"github.com/staranto/imgoptim/internal/batch"
	"github.com/staranto/imgoptim/internal/cache"
	"github.com/staranto/imgoptim/internal/config"
	"github.com/staranto/imgoptim/internal/optimizer"
)

// Report describes one executed batch.
type Report struct {
	Task        string     `json:"task" yaml:"task"`
	Group       int        `json:"group" yaml:"group"`
	Kind        batch.Kind `json:"kind" yaml:"kind"`
	Inputs      int        `json:"inputs" yaml:"inputs"`
	Cached      int        `json:"cached" yaml:"cached"`
	Optimized   int        `json:"optimized" yaml:"optimized"`
	BytesBefore int64      `json:"bytes_before" yaml:"bytes_before"`
	BytesAfter  int64      `json:"bytes_after" yaml:"bytes_after"`
}

// Saved is the number of bytes the batch shaved off.
func (r Report) Saved() int64 {
	return r.BytesBefore - r.BytesAfter
}

// Runner runs tasks rooted at RootDir.
type Runner struct {
	RootDir string
	// Binary overrides optimizer discovery when set.
	Binary string
	Stdout io.Writer
	Stderr io.Writer
	// OpenStore resolves a task's cache option. Defaults to cache.OpenStore.
	OpenStore func(ctx context.Context, spec, rootDir string) (cache.Store, error)
}

// step is one batch of a group. run returns a nil report for an empty batch.
type step struct {
	group int
	kind  batch.Kind
	run   func(ctx context.Context) (*Report, error)
}

// RunAll runs tasks in order and stops at the first failure. Reports of the
// batches that completed are returned either way.
func (r *Runner) RunAll(ctx context.Context, tasks []config.Task) ([]Report, error) {
	var reports []Report
	for _, t := range tasks {
		rs, err := r.Run(ctx, t)
		reports = append(reports, rs...)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// Run locates the optimizer and folds over the task's steps.
func (r *Runner) Run(ctx context.Context, task config.Task) ([]Report, error) {
	bin, err := optimizer.Locate(r.RootDir, r.Binary)
	if err != nil {
		return nil, err
	}

	iv := optimizer.New(bin)
	iv.Stdout = r.stdout()
	iv.Stderr = r.stderr()

	var c *cache.Cache
	if task.Options.Cache != "" {
		open := r.OpenStore
		if open == nil {
			open = cache.OpenStore
		}
		store, err := open(ctx, task.Options.Cache, r.RootDir)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", task.Name, err)
		}
		c = cache.New(store, r.stdout())
	}

	ex := &executor{
		task:  task,
		opts:  toOptimizerOptions(task.Options),
		iv:    iv,
		cache: c,
	}

	var reports []Report
	for _, s := range ex.steps(r.RootDir) {
		log.Debugf("task %s: group %d %s", task.Name, s.group, s.kind)
		rep, err := s.run(ctx)
		if err != nil {
			return reports, fmt.Errorf("task %s, group %d, %s: %w", task.Name, s.group, s.kind, err)
		}
		if rep != nil {
			reports = append(reports, *rep)
		}
	}

	fmt.Fprintf(r.stdout(), "%s: done\n", task.Name)
	return reports, nil
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

func toOptimizerOptions(o config.Options) optimizer.Options {
	return optimizer.Options{
		JPEGMini:   o.JPEGMini,
		ImageAlpha: o.ImageAlpha,
		QuitAfter:  o.QuitAfter,
	}
}
