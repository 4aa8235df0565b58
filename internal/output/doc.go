// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output renders run reports and cache statistics as text tables,
// JSON or YAML.
package output
