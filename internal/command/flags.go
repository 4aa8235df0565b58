// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"
	"path/filepath"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/json"
	"github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

func newTLDRFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

// newRootFlag is resolved before the app is built, see RootFromArgs. It is
// declared so the parser accepts it.
func newRootFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "root",
		Aliases: []string{"r"},
		Usage:   "project root. Defaults to the current directory",
	}
}

// NewGlobalFlags returns the report flags. params[0] is the command
// namespace and params[1] the task file that supplies defaults.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	ns, src := params[0], params[1]

	flags = []cli.Flag{
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				fileSource(ns+"."+"color", src),
				fileSource("color", src),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to the report",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		NewOutputFlag(ns, src),
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of report columns to sort by",
			Sources: cli.NewValueSourceChain(
				fileSource(ns+"."+"sort", src),
			),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				fileSource(ns+"."+"titles", src),
				fileSource("titles", src),
			),
			Value: false,
		},
	}

	return
}

// NewOutputFlag constructs the --output flag.
func NewOutputFlag(ns, src string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output format",
		Sources: cli.NewValueSourceChain(
			fileSource(ns+"."+"output", src),
			fileSource("output", src),
		),
		Value: "text",
		Validator: func(value string) error {
			return FlagValidators(value, OutputValidator)
		},
	}
}

// NewBinaryFlag constructs the optimizer override flag. The environment wins
// over the task file.
func NewBinaryFlag(ns, src string) *cli.StringFlag {
	flag := &cli.StringFlag{
		Name:    "binary",
		Aliases: []string{"b"},
		Usage:   "optimizer binary to use instead of the project's node_modules install",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("IMGOPTIM_BIN"),
		),
	}
	return NameSpacedValueChainFlagFromConfigFile(ns, src, flag)
}

// NewOptimizerFlags are the optimizer switches for ad hoc runs. Defaults come
// from the task file's top-level options.
func NewOptimizerFlags(src string) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "image-alpha",
			Usage: "run ImageAlpha before ImageOptim",
			Sources: cli.NewValueSourceChain(
				fileSource("options.imageAlpha", src),
			),
		},
		&cli.BoolFlag{
			Name:  "jpeg-mini",
			Usage: "run JPEGmini after ImageOptim",
			Sources: cli.NewValueSourceChain(
				fileSource("options.jpegMini", src),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:  "quit",
			Usage: "quit the optimizer applications when done",
			Sources: cli.NewValueSourceChain(
				fileSource("options.quitAfter", src),
			),
			Value: false,
		},
	}
}

// NewCacheFlag constructs the cache location flag. A local directory or an
// s3://bucket/prefix URL. The task file's default task options are the last
// source.
func NewCacheFlag(ns, src string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "cache",
		Usage: "cache location, a directory or s3://bucket/prefix",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("IMGOPTIM_CACHE_DIR"),
			fileSource(ns+".cache", src),
			fileSource("options.cache", src),
		),
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := fileSource(ns+"."+flag.Name, path)
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = fileSource(flag.Name, path)
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// fileSource reads key from the task file at path, JSON or YAML by extension.
func fileSource(key, path string) cli.ValueSource {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.JSON(key, altsrc.StringSourcer(path))
	}
	return yaml.YAML(key, altsrc.StringSourcer(path))
}

// pathHas checks if the given executable is on the PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
