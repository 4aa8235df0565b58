// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v2"

	"github.com/staranto/imgoptim/internal/cacheutil"
)

type statsDoc struct {
	Path    string     `json:"path" yaml:"path"`
	Entries int        `json:"entries" yaml:"entries"`
	Bytes   int64      `json:"bytes" yaml:"bytes"`
	Oldest  *time.Time `json:"oldest,omitempty" yaml:"oldest,omitempty"`
	Newest  *time.Time `json:"newest,omitempty" yaml:"newest,omitempty"`
}

// EmitStats writes cache directory statistics to w.
func EmitStats(st cacheutil.Stats, format string, w io.Writer) error {
	doc := statsDoc{Path: st.Path, Entries: st.Entries, Bytes: st.Bytes}
	if !st.Oldest.IsZero() {
		doc.Oldest, doc.Newest = &st.Oldest, &st.Newest
	}

	switch format {
	case "json":
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		b, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case "", "text":
		fmt.Fprintf(w, "path     %s\n", st.Path)
		fmt.Fprintf(w, "entries  %s\n", humanize.Comma(int64(st.Entries)))
		fmt.Fprintf(w, "size     %s\n", humanize.Bytes(uint64(st.Bytes)))
		if doc.Oldest != nil {
			fmt.Fprintf(w, "oldest   %s\n", humanize.Time(st.Oldest))
			fmt.Fprintf(w, "newest   %s\n", humanize.Time(st.Newest))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q, must be one of %v", format, Formats)
	}
}
