package pruner_test

import (
	"fmt"
	"testing"

	"github.com/grapeloop/gpoe/automaton"
	"github.com/grapeloop/gpoe/evaluator"
	"github.com/grapeloop/gpoe/pruner"
	"github.com/grapeloop/gpoe/term"
	"github.com/stretchr/testify/require"
)

func intDSL() map[string]evaluator.Callable {
	return map[string]evaluator.Callable{
		"+": func(args []any) (any, error) { return args[0].(int) + args[1].(int), nil },
		"0": func(args []any) (any, error) { return 0, nil },
		"1": func(args []any) (any, error) { return 1, nil },
	}
}

func TestPruneDedupesRedundantPrograms(t *testing.T) {
	inputs := map[string][]any{"int": {[]any{1}, []any{2}, []any{3}}}
	eval := evaluator.New(intDSL(), nil, inputs, nil, nil)

	entries := []pruner.Entry{
		{Name: "+", Type: "int -> int -> int"},
		{Name: "0", Type: "int"},
		{Name: "1", Type: "int"},
	}
	p := pruner.New(entries, []string{"int"}, "int", eval, nil, pruner.Config{MaxSize: 4})

	grammar, allowed, err := p.Run()
	require.NoError(t, err)
	require.NotNil(t, grammar)
	require.NotEmpty(t, allowed)

	seenSignatures := make(map[string]bool)
	for _, a := range allowed {
		sig, err := eval.Signature(a.Program, a.TypeReq)
		require.NoError(t, err)
		key := fmt.Sprintf("%s|%v", sig.Type, sig.Results)
		require.False(t, seenSignatures[key], "duplicate equivalence class kept: %s", a.Program)
		seenSignatures[key] = true
	}
}

func TestNonLinearProgramsAreKeptByDefault(t *testing.T) {
	inputs := map[string][]any{"int": {[]any{1}, []any{2}, []any{3}}}
	eval := evaluator.New(intDSL(), nil, inputs, nil, nil)

	entries := []pruner.Entry{
		{Name: "+", Type: "int -> int -> int"},
		{Name: "1", Type: "int"},
	}
	p := pruner.New(entries, []string{"int"}, "int", eval, nil, pruner.Config{MaxSize: 3})
	_, allowed, err := p.Run()
	require.NoError(t, err)

	seen := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		seen[a.Program.String()] = true
	}
	// 2x is expressible only with a repeated variable; without a forbidden
	// pattern proving it redundant it must survive as its class's
	// representative.
	require.True(t, seen["(+ var0 var0)"])
}

func TestOptimizeNeverDropsACanonicalRepresentative(t *testing.T) {
	inputs := map[string][]any{"int": {[]any{1}, []any{2}, []any{3}}}
	eval := evaluator.New(intDSL(), nil, inputs, nil, nil)

	entries := []pruner.Entry{
		{Name: "+", Type: "int -> int -> int"},
		{Name: "0", Type: "int"},
		{Name: "1", Type: "int"},
	}

	plain := pruner.New(entries, []string{"int"}, "int", eval, nil, pruner.Config{MaxSize: 4})
	_, plainAllowed, err := plain.Run()
	require.NoError(t, err)

	optimized := pruner.New(entries, []string{"int"}, "int", eval, nil, pruner.Config{MaxSize: 4, Optimize: true})
	grammar, optimizedAllowed, err := optimized.Run()
	require.NoError(t, err)
	require.NotNil(t, grammar)

	require.Equal(t, len(plainAllowed), len(optimizedAllowed), "optimize must not change which programs are canonical representatives")
	for i := range plainAllowed {
		require.True(t, plainAllowed[i].Program.Equal(optimizedAllowed[i].Program))
	}
}

func TestSeedRefinesAPreviouslyPrunedGrammar(t *testing.T) {
	inputs := map[string][]any{"int": {[]any{1}, []any{2}, []any{3}}}
	eval := evaluator.New(intDSL(), nil, inputs, nil, nil)

	entries := []pruner.Entry{
		{Name: "+", Type: "int -> int -> int"},
		{Name: "0", Type: "int"},
		{Name: "1", Type: "int"},
	}

	base := pruner.New(entries, []string{"int"}, "int", eval, nil, pruner.Config{MaxSize: 3})
	baseGrammar, baseAllowed, err := base.Run()
	require.NoError(t, err)

	text := baseGrammar.Text(func(s string) string { return s }, func(p term.Program) string { return p.String() })
	strDFTA, _, err := automaton.ParseText(text)
	require.NoError(t, err)
	progDFTA := automaton.MapAlphabet(strDFTA, func(l string) term.Program {
		prog, err := term.Parse(l)
		require.NoError(t, err)
		return prog
	})

	refined := pruner.New(entries, []string{"int"}, "int", eval, nil, pruner.Config{MaxSize: 3})
	require.NoError(t, refined.Seed(progDFTA))
	_, refinedAllowed, err := refined.Run()
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(refinedAllowed), len(baseAllowed))
	seen := make(map[string]bool, len(refinedAllowed))
	for _, a := range refinedAllowed {
		seen[a.Program.String()] = true
	}
	for _, a := range baseAllowed {
		require.True(t, seen[a.Program.String()], "seeding must not drop a previously-kept representative: %s", a.Program)
	}
}
