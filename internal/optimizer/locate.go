// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package optimizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
)

// IssueURL is where users are sent when the binary cannot be found.
const IssueURL = "https://github.com/staranto/imgoptim/issues"

// InstallLocations are the places, relative to the project root, where an
// ImageOptim-CLI install is looked for.
var InstallLocations = []string{
	"node_modules/imageoptim-cli/bin/imageOptim",
	"node_modules/grunt-imageoptim/node_modules/imageoptim-cli/bin/imageOptim",
}

// ErrBinaryNotFound is wrapped by Locate when no usable binary exists.
var ErrBinaryNotFound = errors.New("ImageOptim-CLI binary not found")

// Locate returns the absolute path of the optimizer binary. A non-empty
// override is the only candidate when given; otherwise InstallLocations are
// tried in order beneath rootDir. A relative override is taken from rootDir
// too.
func Locate(rootDir, override string) (string, error) {
	candidates := make([]string, 0, len(InstallLocations))
	if override != "" {
		if !filepath.IsAbs(override) {
			override = filepath.Join(rootDir, override)
		}
		candidates = append(candidates, override)
	} else {
		for _, loc := range InstallLocations {
			candidates = append(candidates, filepath.Join(rootDir, filepath.FromSlash(loc)))
		}
	}

	for _, c := range candidates {
		abs, err := filepath.Abs(c)
		if err != nil {
			continue
		}
		fi, err := os.Stat(abs)
		if err != nil || !fi.Mode().IsRegular() {
			log.Debugf("no optimizer at %s", abs)
			continue
		}
		if fi.Mode().Perm()&0o111 == 0 {
			log.Warnf("optimizer at %s is not executable", abs)
			continue
		}
		log.Debugf("using optimizer %s", abs)
		return abs, nil
	}

	return "", fmt.Errorf("%w (looked in %s); if it is installed, please report this at %s",
		ErrBinaryNotFound, strings.Join(candidates, ", "), IssueURL)
}
