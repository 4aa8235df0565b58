// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"

	"github.com/staranto/imgoptim/internal/config"
	"github.com/staranto/imgoptim/internal/filters"
	"github.com/staranto/imgoptim/internal/runner"
)

// Formats are the accepted --output values.
var Formats = []string{"text", "json", "yaml"}

// Settings control text rendering.
type Settings struct {
	Format string
	Color  bool
	Titles bool
	Sort   string
	Filter string
}

// Emit writes reports to w in the requested format.
func Emit(reports []runner.Report, s Settings, w io.Writer) error {
	reports, err := FilterReports(reports, s.Filter)
	if err != nil {
		return err
	}
	if err := SortReports(reports, s.Sort); err != nil {
		return err
	}

	switch s.Format {
	case "json":
		if reports == nil {
			reports = []runner.Report{}
		}
		b, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		b, err := yaml.Marshal(reports)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		_, err = w.Write(b)
		return err
	case "", "text":
		TableWriter(reports, s, w)
		return nil
	default:
		return fmt.Errorf("unknown output format %q, must be one of %v", s.Format, Formats)
	}
}

// FilterReports keeps the reports that match the filter spec. Filter keys
// are the JSON field names of a report.
func FilterReports(reports []runner.Report, spec string) ([]runner.Report, error) {
	fs, err := filters.BuildFilters(spec)
	if err != nil || len(fs) == 0 {
		return reports, err
	}

	var kept []runner.Report
	for _, r := range reports {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal report: %w", err)
		}
		ok, err := filters.Match(gjson.ParseBytes(b), fs)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, r)
		}
	}
	log.Debugf("filter %q kept %d of %d reports", spec, len(kept), len(reports))
	return kept, nil
}

// reportKeys maps sort keys to comparable values.
var reportKeys = map[string]func(r runner.Report) any{
	"task":      func(r runner.Report) any { return r.Task },
	"group":     func(r runner.Report) any { return int64(r.Group) },
	"kind":      func(r runner.Report) any { return string(r.Kind) },
	"inputs":    func(r runner.Report) any { return int64(r.Inputs) },
	"cached":    func(r runner.Report) any { return int64(r.Cached) },
	"optimized": func(r runner.Report) any { return int64(r.Optimized) },
	"before":    func(r runner.Report) any { return r.BytesBefore },
	"after":     func(r runner.Report) any { return r.BytesAfter },
	"saved":     func(r runner.Report) any { return r.Saved() },
}

// SortKeys returns the accepted sort keys in alphabetical order.
func SortKeys() []string {
	keys := make([]string, 0, len(reportKeys))
	for k := range reportKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortReports sorts in place by a comma-separated list of keys. A leading
// '-' sorts that key descending. The sort is stable, so an empty spec keeps
// execution order.
func SortReports(reports []runner.Report, spec string) error {
	if strings.TrimSpace(spec) == "" {
		return nil
	}

	type key struct {
		get  func(runner.Report) any
		desc bool
	}
	var keys []key
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		get, ok := reportKeys[name]
		if !ok {
			return fmt.Errorf("unknown sort key %q", name)
		}
		keys = append(keys, key{get: get, desc: desc})
	}

	sort.SliceStable(reports, func(i, j int) bool {
		for _, k := range keys {
			c := compare(k.get(reports[i]), k.get(reports[j]))
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return nil
}

func compare(a, b any) int {
	switch av := a.(type) {
	case int64:
		bv := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

// TableWriter renders the reports as a table with a totals row when there
// is more than one batch.
func TableWriter(reports []runner.Report, s Settings, w io.Writer) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "nothing to optimize")
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if s.Color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	var total runner.Report
	rows := make([][]string, 0, len(reports)+1)
	for _, r := range reports {
		rows = append(rows, reportRow(r, r.Task, strconv.Itoa(r.Group), string(r.Kind)))
		total.Inputs += r.Inputs
		total.Cached += r.Cached
		total.Optimized += r.Optimized
		total.BytesBefore += r.BytesBefore
		total.BytesAfter += r.BytesAfter
	}
	if len(reports) > 1 {
		rows = append(rows, reportRow(total, "total", "", ""))
	}

	pad, _ := config.GetInt("padding", 2)
	log.Debugf("padding: %v", pad)

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}
			if col > 0 {
				style = style.PaddingLeft(pad)
			}
			return style
		}).
		Rows(rows...)

	if s.Titles {
		t = t.Headers("TASK", "GROUP", "KIND", "INPUTS", "CACHED", "OPTIMIZED", "BEFORE", "AFTER", "SAVED").
			BorderHeader(false)
	}

	fmt.Fprintln(w, t)
}

func reportRow(r runner.Report, task, group, kind string) []string {
	return []string{
		task,
		group,
		kind,
		strconv.Itoa(r.Inputs),
		strconv.Itoa(r.Cached),
		strconv.Itoa(r.Optimized),
		humanize.Bytes(uint64(r.BytesBefore)),
		humanize.Bytes(uint64(r.BytesAfter)),
		Saved(r.BytesBefore, r.BytesAfter),
	}
}

// Saved renders the difference between before and after, e.g. "1.2 kB (12%)".
func Saved(before, after int64) string {
	diff := before - after
	sign := ""
	if diff < 0 {
		sign = "-"
		diff = -diff
	}
	if before <= 0 {
		return sign + humanize.Bytes(uint64(diff))
	}
	pct := float64(diff) / float64(before) * 100 //nolint:mnd
	return fmt.Sprintf("%s%s (%s%%)", sign, humanize.Bytes(uint64(diff)), humanize.FtoaWithDigits(pct, 1))
}

// ColorAllowed reports whether colored output should be produced on f.
func ColorAllowed(requested bool, f *os.File) bool {
	return requested && f != nil && term.IsTerminal(int(f.Fd()))
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}
