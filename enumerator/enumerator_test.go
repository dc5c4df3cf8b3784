package enumerator_test

import (
	"testing"

	"github.com/grapeloop/gpoe/automaton"
	"github.com/grapeloop/gpoe/enumerator"
	"github.com/grapeloop/gpoe/term"
	"github.com/stretchr/testify/require"
)

// buildArithmetic mirrors automaton_test's small int-arithmetic grammar, but
// typed with term.Program letters: var0 : q0 (final), 1 : q1 (final),
// +(q0,q0)->q0, +(q0,q1)->q0, +(q1,q1)->q1.
func buildArithmetic() *automaton.DFTA[string, term.Program] {
	rules := []automaton.Transition[string, term.Program]{
		{Letter: term.Variable{No: 0}, Args: nil, Dst: "q0"},
		{Letter: term.Primitive{Name: "1"}, Args: nil, Dst: "q1"},
		{Letter: term.Primitive{Name: "+"}, Args: []string{"q0", "q0"}, Dst: "q0"},
		{Letter: term.Primitive{Name: "+"}, Args: []string{"q0", "q1"}, Dst: "q0"},
		{Letter: term.Primitive{Name: "+"}, Args: []string{"q1", "q1"}, Dst: "q1"},
	}
	return automaton.New(rules, []string{"q0", "q1"})
}

func TestEnumerateSizeOneYieldsNullaryLetters(t *testing.T) {
	grammar := buildArithmetic()
	enum := enumerator.New(grammar, nil)

	var seen []string
	enum.EnumerateUntilSize(1, func(program term.Program, state string) bool {
		seen = append(seen, program.String())
		return true
	})
	require.ElementsMatch(t, []string{"var0", "1"}, seen)
}

func TestEnumerateAllowsRejection(t *testing.T) {
	grammar := buildArithmetic()
	enum := enumerator.New(grammar, nil)

	accepted := 0
	enum.EnumerateUntilSize(4, func(program term.Program, state string) bool {
		if program.Size() > 1 {
			accepted++
			return false // reject every application: should never be rebuilt into larger ones
		}
		return true
	})
	// Since every size>1 candidate is rejected, none can feed a later application,
	// so only one application per size should ever be produced per state/rule/partition.
	require.Greater(t, accepted, 0)
}

func TestPruneSkipsCandidate(t *testing.T) {
	grammar := buildArithmetic()
	enum := enumerator.New(grammar, []term.Program{term.Primitive{Name: "1"}})

	var seen []string
	enum.EnumerateUntilSize(1, func(program term.Program, state string) bool {
		seen = append(seen, program.String())
		return true
	})
	require.NotContains(t, seen, "1")
	require.Contains(t, seen, "var0")
}

func TestEnumerationMonotoneUniqueAndMatchesTreeCounts(t *testing.T) {
	grammar := buildArithmetic()
	enum := enumerator.New(grammar, nil)

	last := 0
	counts := make(map[int]int64)
	seen := make(map[string]bool)
	enum.EnumerateUntilSize(5, func(program term.Program, state string) bool {
		require.GreaterOrEqual(t, program.Size(), last, "sizes must be non-decreasing")
		last = program.Size()
		key := state + "|" + program.String()
		require.False(t, seen[key], "program yielded twice: %s", key)
		seen[key] = true
		counts[program.Size()]++
		return true
	})

	expected := grammar.TreesBySize(5)
	for size := 1; size <= 5; size++ {
		require.Equal(t, expected[size], counts[size], "size %d", size)
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	var runA, runB []string
	for _, dst := range []*[]string{&runA, &runB} {
		grammar := buildArithmetic()
		enum := enumerator.New(grammar, nil)
		d := dst
		enum.EnumerateUntilSize(4, func(program term.Program, state string) bool {
			*d = append(*d, program.String())
			return true
		})
	}
	require.Equal(t, runA, runB)
}
