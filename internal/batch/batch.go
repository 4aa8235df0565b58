// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package batch turns the source paths of a task group into absolute file
// and directory batches.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/apex/log"
)

// Kind tells the two batches of a group apart.
type Kind string

const (
	Files       Kind = "files"
	Directories Kind = "directories"
)

// Batch is the partitioned source list of one group.
type Batch struct {
	Files []string
	Dirs  []string
}

// Partition classifies every source by a filesystem check and resolves it
// against rootDir. Sources that are neither a regular file nor a directory
// are dropped. Duplicates are dropped too; order is otherwise preserved.
func Partition(rootDir string, src []string) Batch {
	var b Batch
	seen := make(map[string]bool, len(src))

	for _, s := range src {
		p := Abs(rootDir, s)
		if seen[p] {
			continue
		}

		fi, err := os.Stat(p)
		switch {
		case err != nil:
			log.Debugf("skipping %s: %v", s, err)
			continue
		case fi.IsDir():
			b.Dirs = append(b.Dirs, p)
		case fi.Mode().IsRegular():
			b.Files = append(b.Files, p)
		default:
			log.Debugf("skipping %s: not a file or directory", s)
			continue
		}
		seen[p] = true
	}

	return b
}

// Abs resolves p against rootDir unless it is already absolute.
func Abs(rootDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(rootDir, p)
}

// Expand lists the regular files directly inside each directory, sorted by
// name per directory. Symlinks are followed. Subdirectories are not
// descended into.
func Expand(dirs []string) ([]string, error) {
	var files []string
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", d, err)
		}

		var names []string
		for _, e := range entries {
			fi, err := os.Stat(filepath.Join(d, e.Name()))
			if err != nil {
				log.Debugf("skipping %s: %v", e.Name(), err)
				continue
			}
			if fi.Mode().IsRegular() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, n := range names {
			files = append(files, filepath.Join(d, n))
		}
	}
	return files, nil
}
