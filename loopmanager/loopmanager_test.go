package loopmanager_test

import (
	"testing"

	"github.com/grapeloop/gpoe/evaluator"
	"github.com/grapeloop/gpoe/loopmanager"
	"github.com/grapeloop/gpoe/pruner"
	"github.com/grapeloop/gpoe/typesys"
	"github.com/stretchr/testify/require"
)

// arithmeticPruner builds a pruner over the closed "1"/"+" DSL, whose pruned
// output grammar and state-type map are what the loop manager consumes.
func arithmeticPruner(t *testing.T, maxSize int) (*pruner.Pruner, *evaluator.Evaluator) {
	t.Helper()
	dsl := map[string]evaluator.Callable{
		"+": func(args []any) (any, error) { return args[0].(int) + args[1].(int), nil },
		"1": func(args []any) (any, error) { return 1, nil },
	}
	inputs := map[string][]any{"int": {[]any{1}, []any{2}, []any{3}, []any{4}, []any{5}}}
	eval := evaluator.New(dsl, nil, inputs, nil, nil)

	entries := []pruner.Entry{
		{Name: "+", Type: "int -> int -> int"},
		{Name: "1", Type: "int"},
	}
	p := pruner.New(entries, nil, "int", eval, nil, pruner.Config{MaxSize: maxSize})
	return p, eval
}

func TestAddLoopsGrapeStaysSoundAndUnbounded(t *testing.T) {
	p, _ := arithmeticPruner(t, 4)
	grammar, _, err := p.Run()
	require.NoError(t, err)
	require.False(t, grammar.Unbounded(), "pre-closure grammar must be finite")

	before := grammar.TreesBySize(4)

	entries := []pruner.Entry{
		{Name: "+", Type: "int -> int -> int"},
		{Name: "1", Type: "int"},
	}
	primitives := make(map[string][]loopmanager.Signature, len(entries))
	for _, e := range entries {
		ty := typesys.Parse(e.Type)
		primitives[e.Name] = append(primitives[e.Name], loopmanager.Signature{ArgTypes: ty.ArgTypes(), ReturnType: ty.ReturnType()})
	}

	looped, err := loopmanager.AddLoops(grammar, loopmanager.Config{
		StateType:  p.StateTypes(),
		Primitives: primitives,
		Strategy:   loopmanager.GRAPE,
	})
	require.NoError(t, err)
	require.True(t, looped.Unbounded(), "looped grammar must derive arbitrarily large trees")

	after := looped.TreesBySize(4)
	for size, n := range before {
		require.GreaterOrEqual(t, after[size], n, "loop closure must not drop any program of size %d", size)
	}
}

func TestAddLoopsAcceptsSpecializedPrunerOutput(t *testing.T) {
	p, _ := arithmeticPruner(t, 3)
	grammar, _, err := p.Run()
	require.NoError(t, err)

	// A grammar is only non-specialized if some state has two different
	// inbound letters; the pruner's output grammar never produces that by
	// construction (one derivation per kept state), so AddLoops should
	// succeed here rather than reject it.
	_, err = loopmanager.AddLoops(grammar, loopmanager.Config{
		StateType: p.StateTypes(),
		Primitives: map[string][]loopmanager.Signature{
			"+": {{ArgTypes: []string{"int", "int"}, ReturnType: "int"}},
			"1": {{ArgTypes: nil, ReturnType: "int"}},
		},
		Strategy: loopmanager.ObservationalEquivalence,
	})
	require.NoError(t, err)
}
