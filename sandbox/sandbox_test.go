// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox_test

import (
	"testing"

	"github.com/flowforge/workflowcore/sandbox"
)

func TestCompileAndEval(t *testing.T) {
	tests := []struct {
		name string
		expr string
		vars map[string]any
		want any
	}{
		{"arithmetic", "1 + 2 * 3", nil, int64(7)},
		{"comparison", "rate > threshold", map[string]any{"rate": 4300.0, "threshold": 4200.0}, true},
		{"ternary", "rate > threshold ? 'high' : 'low'", map[string]any{"rate": 1.0, "threshold": 2.0}, "low"},
		{"membership", "'COP' in currencies", map[string]any{"currencies": []any{"USD", "COP"}}, true},
		{"len_builtin", "len(items)", map[string]any{"items": []any{1, 2, 3}}, int64(3)},
		{"sum_builtin", "sum(items)", map[string]any{"items": []any{1, 2, 3}}, int64(6)},
		{"abs_builtin", "abs(-5)", nil, int64(5)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			names := make([]string, 0, len(tc.vars))
			for k := range tc.vars {
				names = append(names, k)
			}
			prog, err := sandbox.Compile(tc.expr, names)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tc.expr, err)
			}
			got, err := prog.Eval(tc.vars)
			if err != nil {
				t.Fatalf("Eval(%q): %v", tc.expr, err)
			}
			if got != tc.want {
				t.Errorf("Eval(%q) = %#v, want %#v", tc.expr, got, tc.want)
			}
		})
	}
}

func TestCompileRejectsForbiddenConstructs(t *testing.T) {
	tests := []string{
		"__import__('os').system('x')",
		"x.__class__",
		"_private",
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			if _, err := sandbox.Compile(expr, []string{"x"}); err == nil {
				t.Fatalf("Compile(%q) succeeded, want rejection", expr)
			}
		})
	}
}

func TestCompileRejectsUndeclaredName(t *testing.T) {
	if _, err := sandbox.Compile("undeclared_var + 1", []string{"x"}); err == nil {
		t.Fatal("Compile with undeclared free variable succeeded, want rejection")
	}
}

func TestEvalDivisionByZeroIsRuntimeError(t *testing.T) {
	prog, err := sandbox.Compile("a / b", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := prog.Eval(map[string]any{"a": int64(1), "b": int64(0)}); err == nil {
		t.Fatal("Eval division by zero succeeded, want error")
	}
}

func TestEvalMissingVariableIsRuntimeError(t *testing.T) {
	prog, err := sandbox.Compile("a + b", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := prog.Eval(map[string]any{"a": int64(1)}); err == nil {
		t.Fatal("Eval with missing variable binding succeeded, want error")
	}
}
