// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/imgoptim/internal/output"
)

// GlobalFlagsValidator checks the flags shared by the reporting commands.
func GlobalFlagsValidator(_ context.Context, c *cli.Command) error {
	if c.IsSet("sort") {
		for _, k := range strings.Split(c.String("sort"), ",") {
			if err := SortKeyValidator(strings.TrimSpace(k)); err != nil {
				return fmt.Errorf("--sort: %w", err)
			}
		}
	}
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func PositiveValidator(value any) error {
	if value.(int) <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func OutputValidator(value any) error {
	if !slices.Contains(output.Formats, value.(string)) {
		return fmt.Errorf("must be one of %v", output.Formats)
	}
	return nil
}

// SortKeyValidator accepts the report columns, optionally prefixed with '-'.
func SortKeyValidator(value any) error {
	key := strings.TrimPrefix(value.(string), "-")
	if !slices.Contains(output.SortKeys(), key) {
		return fmt.Errorf("unknown sort key %q, must be one of %v", key, output.SortKeys())
	}
	return nil
}
