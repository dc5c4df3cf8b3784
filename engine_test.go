package gpoe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grapeloop/gpoe/evaluator"
	"github.com/grapeloop/gpoe/loader"
	"github.com/grapeloop/gpoe/pruner"
	"github.com/grapeloop/gpoe/term"
)

type staticProvider struct{ spec *loader.Spec }

func (s staticProvider) GetSpec() (*loader.Spec, error) { return s.spec, nil }

// arithmeticSpec is the "1"/"+" DSL with target int -> int: programs over a
// single int variable.
func arithmeticSpec() *loader.Spec {
	counter := 0
	return &loader.Spec{
		DSL: []loader.Entry{
			{Name: "+", Type: "int -> int -> int"},
			{Name: "1", Type: "int"},
		},
		Callables: map[string]evaluator.Callable{
			"+": func(args []any) (any, error) { return args[0].(int) + args[1].(int), nil },
			"1": func(args []any) (any, error) { return 1, nil },
		},
		SampleDict: map[string]func() any{
			"int": func() any { counter++; return counter },
		},
		TargetType: "int -> int",
	}
}

func TestRunArithmeticKeepsOneProgramPerBehavior(t *testing.T) {
	result, err := Run(staticProvider{arithmeticSpec()}, RunOptions{MaxSize: 5, Samples: 10, Strategy: StrategyNone})
	require.NoError(t, err)
	require.NotNil(t, result.Grammar)
	require.Equal(t, len(result.Allowed), result.ClassCount)

	seen := make(map[string]bool)
	for _, a := range result.Allowed {
		require.False(t, seen[a.Program.String()], "duplicate representative %s", a.Program)
		seen[a.Program.String()] = true
	}
	require.True(t, seen["var0"])
	require.True(t, seen["1"])
	require.False(t, result.Grammar.Unbounded(), "strategy none must leave the grammar finite")
}

func TestRunGrapeClosesLoops(t *testing.T) {
	result, err := Run(staticProvider{arithmeticSpec()}, RunOptions{MaxSize: 3, Samples: 10, Strategy: StrategyGRAPE})
	require.NoError(t, err)
	require.True(t, result.Grammar.Unbounded(), "loop closure must produce an unbounded grammar")
}

func TestExpandEntriesClonesPolymorphicVariants(t *testing.T) {
	entries, mergeBack, err := expandEntries([]loader.Entry{
		{Name: "id", Type: "'a[int|bool] -> 'a"},
		{Name: "1", Type: "int"},
	})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Len(t, mergeBack, 2)
	for clone, orig := range mergeBack {
		require.Equal(t, "id", orig)
		require.Contains(t, clone, "id|@>")
	}
}

func TestMergeProgramRestoresDeclaredNames(t *testing.T) {
	mergeBack := map[string]string{"id|@>int -> int": "id"}
	prog := term.NewApplication(term.Primitive{Name: "id|@>int -> int"}, []term.Program{term.Variable{No: 0}})
	merged := mergeProgram(prog, mergeBack)
	require.Equal(t, "(id var0)", merged.String())
}

func TestBuildInputSuitePairsArgumentSamples(t *testing.T) {
	raw := map[string][]any{"int": {1, 2}, "bool": {true, false}}
	entries := []pruner.Entry{{Name: "+", Type: "int -> int -> int"}}
	inputs, err := buildInputSuite(raw, []string{"int", "bool"}, entries, "int", 2)
	require.NoError(t, err)
	suite := inputs["int"]
	require.Len(t, suite, 2)
	require.Equal(t, []any{1, true}, suite[0])
	require.Equal(t, []any{2, false}, suite[1])
}
