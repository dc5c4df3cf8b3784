package constraints_test

import (
	"testing"

	"github.com/grapeloop/gpoe/automaton"
	"github.com/grapeloop/gpoe/constraints"
	"github.com/grapeloop/gpoe/evaluator"
	"github.com/grapeloop/gpoe/term"
	"github.com/stretchr/testify/require"
)

func TestFindDiscoversIdentityPattern(t *testing.T) {
	// "+"(var0, 0) always equals var0: a redundant pattern the finder should surface.
	dsl := map[string]evaluator.Callable{
		"+": func(args []any) (any, error) { return args[0].(int) + args[1].(int), nil },
		"0": func(args []any) (any, error) { return 0, nil },
	}
	inputs := map[string][]any{"int": {[]any{1}, []any{2}, []any{3}}}
	eval := evaluator.New(dsl, nil, inputs, nil, nil)

	rules := []automaton.Transition[string, term.Program]{
		{Letter: term.Variable{No: 0}, Args: nil, Dst: "int"},
		{Letter: term.Primitive{Name: "0"}, Args: nil, Dst: "int"},
		{Letter: term.Primitive{Name: "+"}, Args: []string{"int", "int"}, Dst: "int"},
	}
	grammar := automaton.New(rules, []string{"int"})

	finder := constraints.New(eval, 3)
	patterns := finder.Find(grammar, func(string) string { return "int" })

	found := false
	for _, p := range patterns {
		if p.Canonical.Equal(term.Variable{No: 0}) {
			found = true
		}
	}
	require.True(t, found, "expected var0 to be discovered as a canonical for some redundant pattern")
}

func TestForbidsDetectsSubterm(t *testing.T) {
	pattern := term.NewApplication(term.Primitive{Name: "+"}, []term.Program{term.Variable{No: 0}, term.Primitive{Name: "0"}})
	outer := term.NewApplication(term.Primitive{Name: "*"}, []term.Program{pattern, term.Variable{No: 1}})

	patterns := []constraints.Pattern{{Pattern: pattern, Canonical: term.Variable{No: 0}}}
	require.True(t, constraints.Forbids(outer, patterns))
	require.False(t, constraints.Forbids(term.Variable{No: 1}, patterns))
}
