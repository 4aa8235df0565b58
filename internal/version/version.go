// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package version

// Version is overwritten at build time with -ldflags "-X ...version.Version=".
var Version = "0.0.0-dev"
