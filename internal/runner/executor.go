// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"os"

	"github.com/apex/log"

	"github.com/staranto/imgoptim/internal/batch"
	"github.com/staranto/imgoptim/internal/cache"
	"github.com/staranto/imgoptim/internal/config"
	"github.com/staranto/imgoptim/internal/optimizer"
)

// optimizerAPI is what the executor needs from *optimizer.Invoker.
type optimizerAPI interface {
	RunFiles(ctx context.Context, opts optimizer.Options, files []string) (optimizer.Result, error)
	RunDirectory(ctx context.Context, opts optimizer.Options, dir string) (optimizer.Result, error)
}

type executor struct {
	task  config.Task
	opts  optimizer.Options
	iv    optimizerAPI
	cache *cache.Cache
}

// steps lists files-then-directories for every group, in group order.
func (ex *executor) steps(rootDir string) []step {
	var steps []step
	for i, g := range ex.task.Groups {
		b := batch.Partition(rootDir, g.Src)
		group := i + 1
		steps = append(steps,
			step{group: group, kind: batch.Files, run: func(ctx context.Context) (*Report, error) {
				return ex.files(ctx, group, b.Files)
			}},
			step{group: group, kind: batch.Directories, run: func(ctx context.Context) (*Report, error) {
				return ex.dirs(ctx, group, b.Dirs)
			}},
		)
	}
	return steps
}

func (ex *executor) files(ctx context.Context, group int, files []string) (*Report, error) {
	if len(files) == 0 {
		return nil, nil
	}
	return ex.optimizeFiles(ctx, ex.report(group, batch.Files), files)
}

// dirs expands the directories into a file batch when a cache is in use so
// every file can be checked against it; otherwise each directory is handed
// to the optimizer as a whole. With a cache, directories without files
// produce no report, like an empty file batch.
func (ex *executor) dirs(ctx context.Context, group int, dirs []string) (*Report, error) {
	if len(dirs) == 0 {
		return nil, nil
	}

	files, err := batch.Expand(dirs)
	if err != nil {
		return nil, err
	}
	if ex.cache != nil {
		if len(files) == 0 {
			return nil, nil
		}
		return ex.optimizeFiles(ctx, ex.report(group, batch.Directories), files)
	}

	rep := ex.report(group, batch.Directories)

	rep.Inputs = len(files)
	rep.BytesBefore = sizeOf(files)
	for _, d := range dirs {
		res, err := ex.iv.RunDirectory(ctx, ex.opts, d)
		if err != nil {
			return nil, err
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
	}
	rep.Optimized = len(files)
	rep.BytesAfter = sizeOf(files)
	return rep, nil
}

func (ex *executor) optimizeFiles(ctx context.Context, rep *Report, files []string) (*Report, error) {
	rep.Inputs = len(files)
	rep.BytesBefore = sizeOf(files)

	pending := files
	var plan *cache.Plan
	if ex.cache != nil {
		var err error
		if plan, err = ex.cache.Reduce(ctx, files); err != nil {
			return nil, err
		}
		pending = plan.Paths()
		rep.Cached = len(plan.Restored)
	}

	if len(pending) > 0 {
		res, err := ex.iv.RunFiles(ctx, ex.opts, pending)
		if err != nil {
			return nil, err
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		if plan != nil {
			if err := ex.cache.Commit(ctx, plan); err != nil {
				return nil, err
			}
		}
	} else {
		log.Debugf("task %s: nothing left to optimize in group %d", ex.task.Name, rep.Group)
	}

	rep.Optimized = len(pending)
	rep.BytesAfter = sizeOf(files)
	return rep, nil
}

func (ex *executor) report(group int, kind batch.Kind) *Report {
	return &Report{Task: ex.task.Name, Group: group, Kind: kind}
}

func sizeOf(files []string) int64 {
	var n int64
	for _, f := range files {
		if fi, err := os.Stat(f); err == nil {
			n += fi.Size()
		}
	}
	return n
}
