// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package template resolves `{key}` placeholders against session state.
package template

import (
	"fmt"
	"regexp"
)

var placeholder = regexp.MustCompile(`\{[^{}]+\}`)

// Resolve substitutes every `{key}` placeholder in s with its value in state.
//
// When s is exactly one placeholder ("{key}" with nothing else), the
// underlying value's type is returned as-is. Placeholders embedded in a
// larger string are stringified with fmt.Sprint. A placeholder whose key is
// absent from state is left unchanged, not treated as an error.
func Resolve(s string, state map[string]any) any {
	if m := placeholder.FindString(s); m != "" && m == s {
		key := s[1 : len(s)-1]
		if v, ok := state[key]; ok {
			return v
		}
		return s
	}

	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		key := match[1 : len(match)-1]
		v, ok := state[key]
		if !ok {
			return match
		}
		return fmt.Sprint(v)
	})
}

// ResolveString is [Resolve] with the result coerced to a string, for callers
// (like model instructions) that always need text regardless of the matched
// value's underlying type.
func ResolveString(s string, state map[string]any) string {
	v := Resolve(s, state)
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}
