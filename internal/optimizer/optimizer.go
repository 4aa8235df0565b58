// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package optimizer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/apex/log"
)

// FailureMessage is the diagnostic carried by every non-zero exit.
const FailureMessage = "ImageOptim-CLI exited with a failure status"

// maxLine bounds a single line of optimizer output.
const maxLine = 1024 * 1024

// Options are the optimizer switches of a task.
type Options struct {
	JPEGMini   bool
	ImageAlpha bool
	QuitAfter  bool
}

// Args returns the flags in the order the optimizer documents them.
func (o Options) Args() []string {
	var args []string
	if o.QuitAfter {
		args = append(args, "--quit")
	}
	if o.ImageAlpha {
		args = append(args, "--image-alpha")
	}
	if o.JPEGMini {
		args = append(args, "--jpeg-mini")
	}
	return args
}

// Result is how an optimizer run ended.
type Result struct {
	ExitCode   int
	Diagnostic string
}

// OK reports a zero exit.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Err returns nil for a successful run and an *ExitError otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ExitError{Code: r.ExitCode, Message: r.Diagnostic}
}

// ExitError is a non-zero optimizer exit.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s (exit code %d)", e.Message, e.Code)
}

// Invoker runs the optimizer binary. Stdout of the child is streamed line
// by line to Stdout; stderr is passed through to Stderr.
type Invoker struct {
	Binary string
	Shell  string
	Stdout io.Writer
	Stderr io.Writer
}

// New returns an Invoker for binary writing to the process' stdout/stderr.
func New(binary string) *Invoker {
	return &Invoker{
		Binary: binary,
		Shell:  "/bin/sh",
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// RunFiles optimizes files. The paths are written newline separated to the
// child's stdin and the child runs in the binary's own directory.
func (iv *Invoker) RunFiles(ctx context.Context, opts Options, files []string) (Result, error) {
	args := opts.Args()
	log.Debugf("running %s %v on %d file(s)", iv.Binary, args, len(files))

	c := exec.CommandContext(ctx, iv.Binary, args...)
	c.Dir = filepath.Dir(iv.Binary)
	c.Stdin = strings.NewReader(strings.Join(files, "\n") + "\n")

	return iv.run(ctx, c)
}

// RunDirectory optimizes the files of dir through `--directory`. The command
// line is interpreted by the shell, with dir as working directory.
func (iv *Invoker) RunDirectory(ctx context.Context, opts Options, dir string) (Result, error) {
	line := strings.Join(append(append([]string{ShellQuote(iv.Binary)}, opts.Args()...),
		"--directory", ShellQuote(dir)), " ")
	log.Debugf("running %q in %s", line, dir)

	shell := iv.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	c := exec.CommandContext(ctx, shell, "-c", line)
	c.Dir = dir

	return iv.run(ctx, c)
}

// ShellQuote single-quotes p for the shell. Embedded single quotes are
// closed, escaped and reopened.
func ShellQuote(p string) string {
	return "'" + strings.ReplaceAll(p, "'", `'\''`) + "'"
}

func (iv *Invoker) run(ctx context.Context, c *exec.Cmd) (Result, error) {
	stdout, err := c.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("failed to attach to optimizer output: %w", err)
	}
	c.Stderr = iv.stderr()

	if err := c.Start(); err != nil {
		return Result{}, fmt.Errorf("failed to start optimizer: %w", err)
	}

	out := iv.stdout()
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine) //nolint:mnd
	for scanner.Scan() {
		fmt.Fprintln(out, strings.TrimRight(scanner.Text(), "\r\n"))
	}
	if err := scanner.Err(); err != nil {
		log.WithError(err).Warn("optimizer output could not be read")
		_, _ = io.Copy(io.Discard, stdout)
	}

	err = c.Wait()
	if err == nil {
		return Result{}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.Debugf("optimizer exited with %d", exitErr.ExitCode())
		return Result{ExitCode: exitErr.ExitCode(), Diagnostic: FailureMessage}, nil
	}
	return Result{}, fmt.Errorf("optimizer failed: %w", err)
}

func (iv *Invoker) stdout() io.Writer {
	if iv.Stdout == nil {
		return io.Discard
	}
	return iv.Stdout
}

func (iv *Invoker) stderr() io.Writer {
	if iv.Stderr == nil {
		return io.Discard
	}
	return iv.Stderr
}
