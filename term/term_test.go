package term_test

import (
	"testing"

	"github.com/grapeloop/gpoe/term"
	"github.com/stretchr/testify/require"
)

func TestSize(t *testing.T) {
	v := term.Variable{No: 0}
	p := term.Primitive{Name: "1"}
	require.Equal(t, 1, v.Size())
	require.Equal(t, 1, p.Size())

	app := term.NewApplication(term.Primitive{Name: "+"}, []term.Program{v, p})
	require.Equal(t, 3, app.Size())
}

func TestEqualityAndHash(t *testing.T) {
	a := term.NewApplication(term.Primitive{Name: "+"}, []term.Program{term.Variable{No: 0}, term.Variable{No: 0}})
	b := term.NewApplication(term.Primitive{Name: "+"}, []term.Program{term.Variable{No: 0}, term.Variable{No: 0}})
	c := term.NewApplication(term.Primitive{Name: "+"}, []term.Program{term.Variable{No: 0}, term.Variable{No: 1}})

	require.True(t, a.Equal(b))
	require.Equal(t, a.Hash(), b.Hash())
	require.False(t, a.Equal(c))
}

func TestLinearity(t *testing.T) {
	linear := term.NewApplication(term.Primitive{Name: "+"}, []term.Program{term.Variable{No: 0}, term.Variable{No: 1}})
	nonlinear := term.NewApplication(term.Primitive{Name: "+"}, []term.Program{term.Variable{No: 0}, term.Variable{No: 0}})

	require.True(t, term.Linear(linear))
	require.False(t, term.Linear(nonlinear))

	repeated, used := term.SameVarUsedMoreThanOnce(nonlinear)
	require.True(t, repeated)
	require.True(t, used[0])
}

func TestEmbedding(t *testing.T) {
	pattern := term.NewApplication(term.Primitive{Name: "and"}, []term.Program{term.Variable{No: 0}, term.Variable{No: 0}})
	canonical := term.NewApplication(term.Primitive{Name: "and"}, []term.Program{term.Variable{No: 0}, term.Primitive{Name: "true"}})
	require.True(t, pattern.Embeds(canonical))

	mismatchedArity := term.NewApplication(term.Primitive{Name: "and"}, []term.Program{term.Variable{No: 0}})
	require.False(t, pattern.Embeds(mismatchedArity))
}

func TestParseRoundTrip(t *testing.T) {
	for _, s := range []string{"var0", "1", "(+ var0 1)", "(+ (+ var0 1) var1)"} {
		p, err := term.Parse(s)
		require.NoError(t, err)
		require.Equal(t, s, p.String())
	}
}
