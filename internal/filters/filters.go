// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package filters parses --filter expressions and matches them against
// report rows rendered as JSON.
package filters

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
)

// filterRegex is the pattern used to parse filter expressions into key, operator, and target components.
// Operators are one of = ^ ~ < > @ or /, optionally prefixed with '!'.
// This allows forms like '=', '!=', '^', '!^', etc.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// Filter represents a single parsed --filter expression including the key,
// operand, optional negation and target value.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter specification string into a slice of Filter.
// Entries are separated by ",", or by IMGOPTIM_FILTER_DELIM when set.
func BuildFilters(spec string) ([]Filter, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}

	delim := ","
	if d, ok := os.LookupEnv("IMGOPTIM_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	var filters []Filter
	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(strings.TrimSpace(filterSpec))
		if parts == nil || parts[1] == "" {
			return nil, fmt.Errorf("invalid filter: %q", filterSpec)
		}

		negate := strings.HasPrefix(parts[2], "!")
		filters = append(filters, Filter{
			Key:     strings.TrimSpace(parts[1]),
			Negate:  negate,
			Operand: strings.TrimPrefix(parts[2], "!"),
			Target:  parts[3],
		})
	}
	return filters, nil
}

// Match reports whether row satisfies every filter. A key that is not a
// field of the row is an error.
func Match(row gjson.Result, filters []Filter) (bool, error) {
	for _, filter := range filters {
		value := row.Get(filter.Key)
		if !value.Exists() {
			return false, fmt.Errorf("filter key not found: %s", filter.Key)
		}

		var ok bool
		switch value.Type {
		case gjson.Number:
			ok = checkNumericOperand(value.Float(), filter)
		case gjson.String, gjson.True, gjson.False:
			ok = checkStringOperand(value.String(), filter)
		case gjson.JSON:
			ok = checkContainsOperand(value, filter)
		default:
			ok = false
		}

		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// checkContainsOperand evaluates a membership style filter (operand '@')
// against array or object values.
func checkContainsOperand(value gjson.Result, filter Filter) bool {
	if filter.Operand != "@" {
		log.Errorf("unsupported operand %s for %s", filter.Operand, filter.Key)
		return false
	}

	found := false
	if value.IsArray() {
		for _, item := range value.Array() {
			if item.String() == filter.Target {
				found = true
				break
			}
		}
	} else {
		found = value.Get(gjson.Escape(filter.Target)).Exists()
	}
	return found != filter.Negate
}

// checkNumericOperand compares a numeric value against the filter target using
// numeric semantics. Supported operands: =, >, < and the negated form via
// filter.Negate (e.g., != is represented as Negate + "=").
func checkNumericOperand(value float64, filter Filter) bool {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(filter.Target), 64)
	if err != nil {
		log.Error("invalid numeric target: " + filter.Target)
		return false
	}

	switch filter.Operand {
	case "=":
		return (value == tgt) == !filter.Negate
	case ">":
		return (value > tgt) == !filter.Negate
	case "<":
		return (value < tgt) == !filter.Negate
	default:
		log.Error("unsupported numeric operand: " + filter.Operand)
		return false
	}
}

// checkStringOperand evaluates a string comparison style filter against the
// provided value using the operand semantics.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Target == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Target) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Target) == !filter.Negate
	case ">":
		return value > filter.Target == !filter.Negate
	case "<":
		return value < filter.Target == !filter.Negate
	case "@":
		return strings.Contains(value, filter.Target) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		return matched == !filter.Negate
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
}
