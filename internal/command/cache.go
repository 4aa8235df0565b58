// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/imgoptim/internal/cacheutil"
	"github.com/staranto/imgoptim/internal/config"
	"github.com/staranto/imgoptim/internal/meta"
	"github.com/staranto/imgoptim/internal/output"
)

// CachePurgeCommandAction removes entries older than --hours from a local
// cache directory.
func CachePurgeCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "cache") {
		return nil
	}

	dir, err := cacheDir(cmd, m)
	if err != nil {
		return err
	}

	n, err := dir.Purge(cmd.Int("hours"))
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "removed %d entries from %s\n", n, dir)
	return nil
}

// CacheStatsCommandAction reports the size of a local cache directory.
func CacheStatsCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "cache") {
		return nil
	}

	dir, err := cacheDir(cmd, m)
	if err != nil {
		return err
	}

	st, err := dir.Stats()
	if err != nil {
		return err
	}

	return output.EmitStats(st, cmd.String("output"), stdout)
}

// cacheDir resolves the directory the cache subcommands operate on: the
// cache of --task, else --cache, else the default cache directory.
func cacheDir(cmd *cli.Command, m meta.Meta) (*cacheutil.Dir, error) {
	loc := cmd.String("cache")

	if name := cmd.String("task"); name != "" {
		cfg, err := config.Load(m.RootDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load task file: %w", err)
		}
		t, err := cfg.Task(name)
		if err != nil {
			return nil, err
		}
		if t.Options.Cache == "" {
			return nil, fmt.Errorf("task %s has no cache", name)
		}
		loc = t.Options.Cache
	}

	if loc == "" {
		d, ok := cacheutil.DefaultDir()
		if !ok {
			return nil, errors.New("cannot determine the default cache directory, use --cache")
		}
		loc = d
	}

	if strings.HasPrefix(loc, "s3://") {
		return nil, fmt.Errorf("%s is not a local cache directory", loc)
	}

	return &cacheutil.Dir{Path: resolve(m.RootDir, loc)}, nil
}

func cacheLocationFlags(src string) []cli.Flag {
	return []cli.Flag{
		NewCacheFlag("cache", src),
		&cli.StringFlag{
			Name:  "task",
			Usage: "operate on the cache of this task",
		},
	}
}

// CacheCommandBuilder constructs the cli.Command for "cache" and its
// subcommands.
func CacheCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source

	purge := &CommandBuilder{
		Name:      "purge",
		Namespace: "cache",
		Usage:     "remove cache entries older than --hours",
		UsageText: `imgoptim cache purge [options]`,
		Flags: append(cacheLocationFlags(src),
			&cli.IntFlag{
				Name:  "hours",
				Usage: "age in hours beyond which entries are removed",
				Sources: cli.NewValueSourceChain(
					fileSource("cache.hours", src),
				),
				Value: 720, //nolint:mnd
				Validator: func(value int) error {
					return FlagValidators(value, PositiveValidator)
				},
			},
		),
		Action: CachePurgeCommandAction,
		Meta:   meta,
	}

	stats := &CommandBuilder{
		Name:      "stats",
		Namespace: "cache",
		Usage:     "show the number and size of cache entries",
		UsageText: `imgoptim cache stats [options]`,
		Flags:     append(cacheLocationFlags(src), NewOutputFlag("cache", src)),
		Action:    CacheStatsCommandAction,
		Meta:      meta,
	}

	return &cli.Command{
		Name:      "cache",
		Usage:     "inspect and maintain the checksum cache",
		UsageText: `imgoptim cache <purge|stats> [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Commands: []*cli.Command{purge.Build(), stats.Build()},
	}
}
