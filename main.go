// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/imgoptim/internal/command"
	"github.com/staranto/imgoptim/internal/config"
	mylog "github.com/staranto/imgoptim/internal/log"
	"github.com/staranto/imgoptim/internal/version"
)

// groupCommands take a subcommand, so set arguments go after it.
var groupCommands = map[string]bool{"cache": true}

func main() {
	os.Exit(realMain(os.Args))
}

func realMain(args []string) int {
	mylog.InitLogger()

	// An interrupt cancels the context, which kills a running optimizer.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an @set argument into the flags stored under
// <command>.sets.<set> in the task file. Without an explicit @set the
// "defaults" set is applied when it exists.
func mangleArguments(args []string) []string {
	// Short-circuit for --help/-h. If help is requested, just keep the command
	// path and add --help flag.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			end := 2
			if strings.HasPrefix(args[1], "-") {
				end = 1
			} else if groupCommands[args[1]] && len(args) > 2 && !strings.HasPrefix(args[2], "-") {
				end = 3
			}
			return append(append([]string{}, args[:end]...), "--help")
		}
	}

	if strings.HasPrefix(args[1], "-") {
		return args
	}

	cwd, _ := os.Getwd()
	if root, err := command.RootFromArgs(args, cwd); err == nil {
		config.Config.RootDir = root
		if _, err := config.Load(root); err != nil {
			log.Debugf("no task file for sets: %v", err)
		}
	}

	// The insertion point is right after the command path.
	idx := 2
	if groupCommands[args[1]] && len(args) > 2 && !strings.HasPrefix(args[2], "-") {
		idx = 3
	}

	out := append([]string{}, args[:idx]...)
	rest := args[idx:]

	// See if there is a @set specified. If so, that becomes our insertion
	// point and the @set entry is removed from args.
	set := "defaults"
	for i, a := range rest {
		if a == "--" {
			break
		}
		if strings.HasPrefix(a, "@") {
			set = a[1:]
			out = append(out, rest[:i]...)
			rest = rest[i+1:]
			break
		}
	}

	setArgs, _ := config.GetStringSlice(args[1] + ".sets." + set)
	for _, arg := range setArgs {
		out = append(out, strings.Fields(arg)...)
	}
	out = append(out, rest...)

	log.Debugf("set=%s, args=%v", set, out)
	return out
}
