// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package optimizertest provides a stand-in optimizer binary for tests.
package optimizertest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Suffix is appended to every file the fake optimizes.
const Suffix = "+opt"

const script = `#!/bin/sh
log=%q
echo "CALL $*" >> "$log"
echo "PWD $(pwd)" >> "$log"
echo "starting"
dir=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--directory" ]; then dir="$a"; fi
  prev="$a"
done
if [ -n "$dir" ]; then
  for f in "$dir"/*; do
    [ -f "$f" ] || continue
    printf '%%s' %q >> "$f"
    echo "FILE $f" >> "$log"
    echo "optimized $f"
  done
else
  while IFS= read -r f || [ -n "$f" ]; do
    [ -z "$f" ] && continue
    printf '%%s' %q >> "$f"
    echo "FILE $f" >> "$log"
    echo "optimized $f"
  done
fi
exit %d
`

// Fake is an installed fake optimizer.
type Fake struct {
	Bin string
	Log string
}

// Call is one recorded invocation.
type Call struct {
	Args  string
	Dir   string
	Files []string
}

// Install writes an executable fake optimizer to path that exits with
// exitCode. Every invocation and every file it touches is recorded.
func Install(t testing.TB, path string, exitCode int) *Fake {
	t.Helper()

	logPath := filepath.Join(t.TempDir(), "calls.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	body := fmt.Sprintf(script, logPath, Suffix, Suffix, exitCode)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil { //nolint:gosec
		t.Fatal(err)
	}
	return &Fake{Bin: path, Log: logPath}
}

// Calls parses the invocation log.
func (f *Fake) Calls(t testing.TB) []Call {
	t.Helper()

	b, err := os.ReadFile(f.Log)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}

	var calls []Call
	for _, line := range strings.Split(strings.TrimRight(string(b), "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "CALL"):
			calls = append(calls, Call{Args: strings.TrimSpace(strings.TrimPrefix(line, "CALL"))})
		case strings.HasPrefix(line, "PWD ") && len(calls) > 0:
			calls[len(calls)-1].Dir = strings.TrimPrefix(line, "PWD ")
		case strings.HasPrefix(line, "FILE ") && len(calls) > 0:
			c := &calls[len(calls)-1]
			c.Files = append(c.Files, strings.TrimPrefix(line, "FILE "))
		}
	}
	return calls
}
