// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package sandbox implements the restricted expression evaluator used by
// expression agents and condition tooling (spec §4.6).
//
// The grammar is CEL (Common Expression Language): a non-Turing-complete,
// side-effect-free expression language that has no import/exec/eval/open,
// no attribute access into runtime internals, and no unbounded recursion,
// used in place of a hand-rolled AST walker; newEnv lists the built-in
// functions it declares. Validation (parse + type-check) happens once at hydration;
// evaluation happens on every execution, against an explicit read-only
// variable mapping.
package sandbox

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// forbiddenIdentifier matches identifiers the grammar must never resolve,
// even if a caller accidentally declares a variable under that name:
// dunder/runtime-internal attribute names and leading-underscore privates.
var forbiddenIdentifier = regexp.MustCompile(`(^|[^A-Za-z0-9_])_[A-Za-z0-9_]*`)

// Program is a validated, ready-to-evaluate expression.
type Program struct {
	source string
	prg    cel.Program
}

// Source returns the original expression text, for diagnostics.
func (p *Program) Source() string { return p.source }

// Compile validates expr against the restricted grammar and, on success,
// returns a [Program] ready for repeated [Program.Eval] calls. variables
// names every variable expr may reference; any other free identifier is a
// hydration-time [ValidationError].
//
// Compile is the sandbox's "parse, whitelist" half (§4.6): any rejection here
// is a hydration-time configuration error, never surfaced as a runtime panic.
func Compile(expr string, variables []string) (*Program, error) {
	if forbiddenIdentifier.MatchString(expr) {
		return nil, &ValidationError{Expr: expr, Reason: "leading-underscore identifiers are forbidden"}
	}

	env, err := newEnv(variables)
	if err != nil {
		return nil, fmt.Errorf("sandbox: building environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, &ValidationError{Expr: expr, Reason: issues.Err().Error()}
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, &ValidationError{Expr: expr, Reason: err.Error()}
	}

	return &Program{source: expr, prg: prg}, nil
}

// Eval evaluates the compiled program against vars, the read-only state view
// named by the expression agent's input_keys. Any evaluation-time failure
// (missing key, division by zero, type mismatch) is returned as an error for
// the caller to fold into a runtime error event — it is never a panic.
func (p *Program) Eval(vars map[string]any) (any, error) {
	out, _, err := p.prg.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("sandbox: evaluating %q: %w", p.source, err)
	}
	return unwrap(out), nil
}

// ValidationError reports a sandbox expression that fails to parse,
// type-check, or that references a forbidden construct. Produced once at
// hydration time (spec §4.6/§7 HydrationError).
type ValidationError struct {
	Expr   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("expression %q: %s", e.Expr, e.Reason)
}

// newEnv builds the CEL environment: one DynType variable per declared name,
// plus the custom, side-effect-free functions len, abs, round, max, min, sum,
// sorted and str. CEL's standard library supplies the bool/int/double/string
// conversions, size(), and the `all`/`exists` comprehension macros in method
// form (items.all(x, x > 0)). No float, all, any, tuple or list function is
// declared, so an expression that calls one fails [Compile].
func newEnv(variables []string) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(variables)+1)
	for _, v := range variables {
		opts = append(opts, cel.Variable(v, cel.DynType))
	}
	opts = append(opts,
		cel.Function("len", cel.Overload("len_dyn", []*cel.Type{cel.DynType}, cel.IntType,
			cel.UnaryBinding(celLen))),
		cel.Function("abs", cel.Overload("abs_dyn", []*cel.Type{cel.DynType}, cel.DynType,
			cel.UnaryBinding(celAbs))),
		cel.Function("round", cel.Overload("round_dyn", []*cel.Type{cel.DynType}, cel.IntType,
			cel.UnaryBinding(celRound))),
		cel.Function("max", cel.Overload("max_list", []*cel.Type{cel.ListType(cel.DynType)}, cel.DynType,
			cel.UnaryBinding(celMax)),
			cel.Overload("max_binary", []*cel.Type{cel.DynType, cel.DynType}, cel.DynType,
				cel.BinaryBinding(celMaxBinary))),
		cel.Function("min", cel.Overload("min_list", []*cel.Type{cel.ListType(cel.DynType)}, cel.DynType,
			cel.UnaryBinding(celMin)),
			cel.Overload("min_binary", []*cel.Type{cel.DynType, cel.DynType}, cel.DynType,
				cel.BinaryBinding(celMinBinary))),
		cel.Function("sum", cel.Overload("sum_list", []*cel.Type{cel.ListType(cel.DynType)}, cel.DynType,
			cel.UnaryBinding(celSum))),
		cel.Function("sorted", cel.Overload("sorted_list", []*cel.Type{cel.ListType(cel.DynType)}, cel.ListType(cel.DynType),
			cel.UnaryBinding(celSorted))),
		cel.Function("str", cel.Overload("str_dyn", []*cel.Type{cel.DynType}, cel.StringType,
			cel.UnaryBinding(celStr))),
	)
	return cel.NewEnv(opts...)
}

func celLen(v ref.Val) ref.Val {
	switch vv := v.Value().(type) {
	case []ref.Val:
		return types.Int(len(vv))
	case string:
		return types.Int(len(vv))
	case map[ref.Val]ref.Val:
		return types.Int(len(vv))
	default:
		if sizer, ok := v.(types.Sizer); ok {
			return sizer.Size()
		}
		return types.NewErr("len: unsupported type %T", v.Value())
	}
}

func celAbs(v ref.Val) ref.Val {
	switch n := v.Value().(type) {
	case int64:
		if n < 0 {
			return types.Int(-n)
		}
		return types.Int(n)
	case float64:
		if n < 0 {
			return types.Double(-n)
		}
		return types.Double(n)
	default:
		return types.NewErr("abs: unsupported type %T", v.Value())
	}
}

func celRound(v ref.Val) ref.Val {
	switch n := v.Value().(type) {
	case int64:
		return types.Int(n)
	case float64:
		if n >= 0 {
			return types.Int(n + 0.5)
		}
		return types.Int(n - 0.5)
	default:
		return types.NewErr("round: unsupported type %T", v.Value())
	}
}

func celStr(v ref.Val) ref.Val {
	return types.String(fmt.Sprint(v.Value()))
}

func celMaxBinary(a, b ref.Val) ref.Val {
	return binaryCompare(a, b, false)
}

func celMinBinary(a, b ref.Val) ref.Val {
	return binaryCompare(a, b, true)
}

func binaryCompare(a, b ref.Val, wantMin bool) ref.Val {
	av, aok := numeric(a)
	bv, bok := numeric(b)
	if !aok || !bok {
		return types.NewErr("max/min: non-numeric operand")
	}
	if (wantMin && av <= bv) || (!wantMin && av >= bv) {
		return a
	}
	return b
}

func numeric(v ref.Val) (float64, bool) {
	switch n := v.Value().(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func refList(v ref.Val) ([]ref.Val, bool) {
	lister, ok := v.(traits.Lister)
	if !ok {
		return nil, false
	}
	n, ok := lister.Size().(types.Int)
	if !ok {
		return nil, false
	}
	items := make([]ref.Val, 0, int(n))
	for i := types.Int(0); i < n; i++ {
		items = append(items, lister.Get(i))
	}
	return items, true
}

func celMax(v ref.Val) ref.Val {
	items, ok := refList(v)
	if !ok || len(items) == 0 {
		return types.NewErr("max: empty or non-list argument")
	}
	best := items[0]
	for _, it := range items[1:] {
		if r := celMaxBinary(best, it); r != nil {
			best = r
		}
	}
	return best
}

func celMin(v ref.Val) ref.Val {
	items, ok := refList(v)
	if !ok || len(items) == 0 {
		return types.NewErr("min: empty or non-list argument")
	}
	best := items[0]
	for _, it := range items[1:] {
		best = celMinBinary(best, it)
	}
	return best
}

func celSum(v ref.Val) ref.Val {
	items, ok := refList(v)
	if !ok {
		return types.NewErr("sum: non-list argument")
	}
	var total float64
	isFloat := false
	for _, it := range items {
		n, ok := numeric(it)
		if !ok {
			return types.NewErr("sum: non-numeric element")
		}
		if _, isF := it.Value().(float64); isF {
			isFloat = true
		}
		total += n
	}
	if isFloat {
		return types.Double(total)
	}
	return types.Int(int64(total))
}

func celSorted(v ref.Val) ref.Val {
	items, ok := refList(v)
	if !ok {
		return types.NewErr("sorted: non-list argument")
	}
	sortable := make([]ref.Val, len(items))
	copy(sortable, items)
	sort.SliceStable(sortable, func(i, j int) bool {
		a, aok := numeric(sortable[i])
		b, bok := numeric(sortable[j])
		if aok && bok {
			return a < b
		}
		return fmt.Sprint(sortable[i].Value()) < fmt.Sprint(sortable[j].Value())
	})
	return types.NewRefValList(types.DefaultTypeAdapter, sortable)
}

// unwrap converts a CEL ref.Val result back to a plain Go value suitable for
// recording as an expression agent's output_key.
func unwrap(v ref.Val) any {
	if v == nil {
		return nil
	}
	return v.Value()
}
