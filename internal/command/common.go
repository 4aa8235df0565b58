// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/imgoptim/internal/meta"
	"github.com/staranto/imgoptim/internal/output"
	"github.com/staranto/imgoptim/internal/runner"
)

// stdout receives reports and, for text output, the optimizer's progress.
// stderr receives progress when the report is machine readable.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr imgoptim <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "imgoptim", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// ProgressWriter is where optimizer output and cache hit/miss lines go. They
// share stdout with a text report but move to stderr so JSON and YAML
// reports stay parseable.
func ProgressWriter(cmd *cli.Command) io.Writer {
	if f := cmd.String("output"); f == "json" || f == "yaml" {
		return stderr
	}
	return stdout
}

// EmitReports renders reports per the common output flags.
func EmitReports(reports []runner.Report, cmd *cli.Command) error {
	color := false
	if f, ok := stdout.(*os.File); ok {
		color = output.ColorAllowed(cmd.Bool("color"), f)
	}

	s := output.Settings{
		Format: cmd.String("output"),
		Color:  color,
		Titles: cmd.Bool("titles"),
		Sort:   cmd.String("sort"),
		Filter: cmd.String("filter"),
	}
	log.Debugf("report settings: %+v", s)

	return output.Emit(reports, s, stdout)
}

// resolve returns path anchored at rootDir unless it is already absolute.
func resolve(rootDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

// CommandBuilder constructs a cli.Command for the subcommands using a
// consistent pattern. The builder wires metadata, adds the tldr and root
// flags, optionally applies the report flags, and sets up validators.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	// Namespace is the task file key flag defaults are read from. Defaults
	// to Name.
	Namespace string
	// Reporting adds the report flags.
	Reporting bool
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	ns := cb.Namespace
	if ns == "" {
		ns = cb.Name
	}

	flags := append(cb.Flags, newTLDRFlag(), newRootFlag())
	if cb.Reporting {
		flags = append(flags, NewGlobalFlags(ns, cb.Meta.Config.Source)...)
	}

	return &cli.Command{
		Name:      cb.Name,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		Metadata: map[string]any{
			"meta": cb.Meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: cb.Action,
	}
}
