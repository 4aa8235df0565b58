// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cache is the checksum cache in front of the optimizer. Files whose
// MD5 already names a stored entry get the stored (optimized) bytes written
// back over them and are dropped from the work list; the rest are optimized
// and then stored under the checksum they had before optimization.
package cache
