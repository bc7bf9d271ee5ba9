package rewrite

import (
	"strings"
	"testing"
)

func TestPreprocessShadowAttrs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "shadowrootmode renamed",
			in:   `<template shadowrootmode="open"></template>`,
			want: `<template data-shadowrootmode="open"></template>`,
		},
		{
			name: "shadowmode renamed",
			in:   `<template shadowmode="open"></template>`,
			want: `<template data-shadowmode="open"></template>`,
		},
		{
			name: "unrelated attribute untouched",
			in:   `<div data-mode="open"></div>`,
			want: `<div data-mode="open"></div>`,
		},
		{
			name: "case insensitive match",
			in:   `<template SHADOWROOTMODE="open"></template>`,
			want: `<template data-shadowrootmode="open"></template>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PreprocessShadowAttrs(tt.in)
			if got != tt.want {
				t.Errorf("PreprocessShadowAttrs(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPreprocessShadowAttrsDoesNotDoublePrefix(t *testing.T) {
	in := `<template shadowrootmode="open"><div shadowmode="closed"></div></template>`
	got := PreprocessShadowAttrs(in)
	if strings.Contains(got, "data-data-") {
		t.Errorf("PreprocessShadowAttrs() double-prefixed an attribute: %q", got)
	}
}
