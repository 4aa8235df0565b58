// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    []Filter
		wantErr bool
	}{
		{name: "empty", spec: "", want: nil},
		{
			name: "single equality",
			spec: "kind=files",
			want: []Filter{{Key: "kind", Operand: "=", Target: "files"}},
		},
		{
			name: "negated and multiple",
			spec: "task!^legacy, bytes_before>1000",
			want: []Filter{
				{Key: "task", Negate: true, Operand: "^", Target: "legacy"},
				{Key: "bytes_before", Operand: ">", Target: "1000"},
			},
		},
		{
			name: "regex keeps the rest of the expression",
			spec: "task/^s.*=x$",
			want: []Filter{{Key: "task", Operand: "/", Target: "^s.*=x$"}},
		},
		{name: "no operator", spec: "kind", wantErr: true},
		{name: "no key", spec: "=files", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildFilters(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildFilters_Delimiter(t *testing.T) {
	t.Setenv("IMGOPTIM_FILTER_DELIM", ";")

	got, err := BuildFilters("task@a,b;kind=files")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a,b", got[0].Target)
}

func TestMatch(t *testing.T) {
	row := gjson.Parse(`{"task":"site","group":2,"kind":"files","inputs":3,"tags":["hero","logo"],"cached":true}`)

	tests := []struct {
		spec string
		want bool
	}{
		{"task=site", true},
		{"task!=site", false},
		{"task~SITE", true},
		{"task^si", true},
		{"task@it", true},
		{"task/^s.t", true},
		{"task/^x", false},
		{"task<t", true},
		{"group=2", true},
		{"group>1", true},
		{"group<2", false},
		{"group!>5", true},
		{"inputs=3,kind=files", true},
		{"inputs=3,kind=directories", false},
		{"tags@hero", true},
		{"tags!@hero", false},
		{"tags@other", false},
		{"cached=true", true},
		{"group=abc", false},
		{"group^2", false},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			fs, err := BuildFilters(tt.spec)
			require.NoError(t, err)

			got, err := Match(row, fs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatch_UnknownKey(t *testing.T) {
	fs, err := BuildFilters("size>1")
	require.NoError(t, err)

	_, err = Match(gjson.Parse(`{"task":"site"}`), fs)
	assert.ErrorContains(t, err, "filter key not found: size")
}

func TestMatch_NoFilters(t *testing.T) {
	ok, err := Match(gjson.Parse(`{}`), nil)
	assert.NoError(t, err)
	assert.True(t, ok)
}
