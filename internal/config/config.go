// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// FileNames are the task file names looked up in the project root, in order.
var FileNames = []string{"imgoptim.yaml", "imgoptim.yml", "imgoptim.json"}

type Type struct {
	Source    string
	Namespace string
	RootDir   string
	Data      map[string]interface{}
}

var Config Type

// Load locates the task file for rootDir (defaults to the CWD), parses it and
// stores it in Config.
func Load(rootDir ...string) (Type, error) {
	root := Config.RootDir
	if len(rootDir) > 0 && rootDir[0] != "" {
		root = rootDir[0]
	}
	if root == "" {
		root, _ = os.Getwd()
	}

	path, err := getConfigPath(root)
	if err != nil {
		return Type{RootDir: root}, err
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Type{RootDir: root}, err
	}

	data, err := parse(path, bytes)
	if err != nil {
		return Type{RootDir: root}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	Config = Type{
		Source:    path,
		Namespace: Config.Namespace,
		RootDir:   root,
		Data:      data,
	}

	return Config, nil
}

// parse decodes YAML, or JSON when the file has a .json extension.
func parse(path string, b []byte) (map[string]interface{}, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if len(strings.TrimSpace(string(b))) == 0 {
			return nil, nil
		}
		if !gjson.ValidBytes(b) {
			return nil, errors.New("invalid JSON")
		}
		m, ok := gjson.ParseBytes(b).Value().(map[string]interface{})
		if !ok {
			return nil, errors.New("top level must be an object")
		}
		return m, nil
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// get traverses the map using a dotted key path
func (cfg *Type) get(kspec string) (any, error) {
	if len(cfg.Data) == 0 {
		if loaded, err := Load(cfg.RootDir); err == nil {
			cfg.Data = loaded.Data
		}
	}

	candidateKeys := []string{kspec}
	if cfg.Namespace != "" {
		candidateKeys = []string{cfg.Namespace + "." + kspec, kspec}
	}

	for _, key := range candidateKeys {
		if v, ok := lookup(cfg.Data, key); ok {
			return v, nil
		}
	}

	return nil, fmt.Errorf("no valid path found among: %v", candidateKeys)
}

func lookup(data map[string]interface{}, key string) (any, bool) {
	var current interface{} = data
	for _, k := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func GetString(key string, defaultValue ...string) (string, error) {
	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return "", err
	}

	s, ok := val.(string)
	if !ok {
		return "", errors.New("value is not a string")
	}

	return s, nil
}

func GetInt(key string, defaultValue ...int) (int, error) {
	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	// YAML numbers may be unmarshaled as int/float64 depending on content and
	// JSON numbers are always float64.
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.New("value is not an int")
	}
}

func GetBool(key string, defaultValue ...bool) (bool, error) {
	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return false, err
	}

	b, ok := val.(bool)
	if !ok {
		return false, errors.New("value is not a bool")
	}
	return b, nil
}

// GetStringSlice accepts either a list of strings or a single string.
func GetStringSlice(key string) ([]string, error) {
	val, err := Config.get(key)
	if err != nil {
		return nil, err
	}
	return toStringSlice(val)
}

func toStringSlice(val any) ([]string, error) {
	switch v := val.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list item %v is not a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errors.New("value is not a list of strings")
	}
}

func getConfigPath(rootDir string) (string, error) {
	if p, ok := os.LookupEnv("IMGOPTIM_CFG"); ok && p != "" {
		fileInfo, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("config file not found: %s", p)
		}
		if fileInfo.IsDir() {
			return "", fmt.Errorf("IMGOPTIM_CFG points to a directory: %s", p)
		}
		return p, nil
	}

	var candidates []string
	if rootDir != "" {
		for _, name := range FileNames {
			candidates = append(candidates, filepath.Join(rootDir, name))
		}
	}
	for _, dir := range []string{os.Getenv("XDG_CONFIG_HOME"), os.Getenv("HOME")} {
		if dir != "" {
			candidates = append(candidates, filepath.Join(dir, FileNames[0]))
		}
	}

	for _, file := range candidates {
		if fileInfo, err := os.Stat(file); err == nil && !fileInfo.IsDir() {
			log.Debugf("using config file: %s", file)
			return file, nil
		}
	}
	return "", fmt.Errorf("no config file found in standard locations")
}
