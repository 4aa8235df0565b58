// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MigrationURL documents the move from the deprecated `files` shape to `src`.
const MigrationURL = "https://github.com/staranto/imgoptim#migrating-from-files-to-src"

// ErrDeprecatedShape is wrapped by the error returned for task files that
// still list plain path strings under `files`.
var ErrDeprecatedShape = errors.New("deprecated task configuration")

// Options are the per-task switches passed to the optimizer. Cache is empty
// when caching is off.
type Options struct {
	JPEGMini   bool   `json:"jpegMini" yaml:"jpegMini"`
	ImageAlpha bool   `json:"imageAlpha" yaml:"imageAlpha"`
	QuitAfter  bool   `json:"quitAfter" yaml:"quitAfter"`
	Cache      string `json:"cache,omitempty" yaml:"cache,omitempty"`
}

// Group is one list of source paths of a task.
type Group struct {
	Src []string
}

// Task is one configured unit of work.
type Task struct {
	Name    string
	Groups  []Group
	Options Options
}

type ShapeStatus int

const (
	ShapeValid ShapeStatus = iota
	ShapeDeprecated
)

// ShapeResult is the outcome of ValidateShape. Tasks lists the offending task
// names when Status is ShapeDeprecated.
type ShapeResult struct {
	Status ShapeStatus
	Tasks  []string
}

// Err converts a deprecated result into a user-facing error, nil otherwise.
func (r ShapeResult) Err() error {
	if r.Status == ShapeValid {
		return nil
	}
	return fmt.Errorf(
		"%w: task(s) %s list plain paths under `files`; move them to `src: [...]` (see %s)",
		ErrDeprecatedShape, strings.Join(r.Tasks, ", "), MigrationURL)
}

// ValidateShape reports whether any task still uses `files` entries that are
// plain strings.
func ValidateShape(data map[string]interface{}) ShapeResult {
	tasks, _ := data["tasks"].(map[string]interface{})

	var bad []string
	for name, raw := range tasks {
		def, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		files, ok := def["files"].([]interface{})
		if !ok {
			continue
		}
		for _, f := range files {
			if _, isString := f.(string); isString {
				bad = append(bad, name)
				break
			}
		}
	}

	if len(bad) == 0 {
		return ShapeResult{Status: ShapeValid}
	}
	sort.Strings(bad)
	return ShapeResult{Status: ShapeDeprecated, Tasks: bad}
}

// Tasks decodes every task in the loaded file, sorted by name.
func (cfg Type) Tasks() ([]Task, error) {
	return DecodeTasks(cfg.Data)
}

// Task decodes a single task by name.
func (cfg Type) Task(name string) (Task, error) {
	tasks, err := cfg.Tasks()
	if err != nil {
		return Task{}, err
	}
	for _, t := range tasks {
		if t.Name == name {
			return t, nil
		}
	}
	return Task{}, fmt.Errorf("task %q not found in %s", name, cfg.Source)
}

// DecodeTasks decodes the `tasks` mapping. Top-level `options` are defaults
// that each task's own `options` override key by key.
func DecodeTasks(data map[string]interface{}) ([]Task, error) {
	if r := ValidateShape(data); r.Status != ShapeValid {
		return nil, r.Err()
	}

	defaults, _ := data["options"].(map[string]interface{})

	rawTasks, ok := data["tasks"].(map[string]interface{})
	if !ok {
		if _, present := data["tasks"]; present {
			return nil, errors.New("`tasks` must be a mapping of task names")
		}
		return nil, nil
	}

	names := make([]string, 0, len(rawTasks))
	for name := range rawTasks {
		names = append(names, name)
	}
	sort.Strings(names)

	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		def, ok := rawTasks[name].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("task %q must be a mapping", name)
		}

		own, _ := def["options"].(map[string]interface{})
		opts, err := decodeOptions(merge(defaults, own))
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", name, err)
		}

		groups, err := decodeGroups(def)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", name, err)
		}

		tasks = append(tasks, Task{Name: name, Groups: groups, Options: opts})
	}

	return tasks, nil
}

func merge(base, over map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

func decodeOptions(m map[string]interface{}) (opts Options, err error) {
	flags := []struct {
		key string
		dst *bool
	}{
		{"jpegMini", &opts.JPEGMini},
		{"imageAlpha", &opts.ImageAlpha},
		{"quitAfter", &opts.QuitAfter},
	}
	for _, f := range flags {
		v, ok := m[f.key]
		if !ok || v == nil {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return Options{}, fmt.Errorf("option %q must be a boolean", f.key)
		}
		*f.dst = b
	}

	if v, ok := m["cache"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return Options{}, errors.New(`option "cache" must be a path`)
		}
		opts.Cache = s
	}

	return opts, nil
}

func decodeGroups(def map[string]interface{}) ([]Group, error) {
	var groups []Group

	if raw, ok := def["src"]; ok {
		src, err := toStringSlice(raw)
		if err != nil {
			return nil, fmt.Errorf("src: %w", err)
		}
		groups = append(groups, Group{Src: src})
	}

	if raw, ok := def["files"]; ok {
		files, ok := raw.([]interface{})
		if !ok {
			return nil, errors.New("`files` must be a list of {src: [...]} entries")
		}
		for i, f := range files {
			entry, ok := f.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("files[%d] must be a mapping", i)
			}
			src, err := toStringSlice(entry["src"])
			if err != nil {
				return nil, fmt.Errorf("files[%d].src: %w", i, err)
			}
			groups = append(groups, Group{Src: src})
		}
	}

	if len(groups) == 0 {
		return nil, errors.New("no `src` or `files` declared")
	}
	return groups, nil
}
