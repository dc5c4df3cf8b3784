package evaluator_test

import (
	"errors"
	"testing"

	"github.com/grapeloop/gpoe/evaluator"
	"github.com/grapeloop/gpoe/term"
	"github.com/stretchr/testify/require"
)

func plusDSL() map[string]evaluator.Callable {
	return map[string]evaluator.Callable{
		"+": func(args []any) (any, error) {
			return args[0].(int) + args[1].(int), nil
		},
		"div": func(args []any) (any, error) {
			a, b := args[0].(int), args[1].(int)
			if b == 0 {
				return nil, &evaluator.SkipError{Kind: "division", Err: errors.New("division by zero")}
			}
			return a / b, nil
		},
		"1": func(args []any) (any, error) { return 1, nil },
	}
}

func TestEvalVariableAndPrimitive(t *testing.T) {
	eval := evaluator.New(plusDSL(), nil, nil, nil, []string{"division"})

	out, err := eval.Eval(term.Variable{No: 0}, []any{42})
	require.NoError(t, err)
	require.Equal(t, 42, out)

	out, err = eval.Eval(term.Primitive{Name: "1"}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, out)
}

func TestEvalApplication(t *testing.T) {
	eval := evaluator.New(plusDSL(), nil, nil, nil, []string{"division"})
	prog := term.NewApplication(term.Primitive{Name: "+"}, []term.Program{term.Variable{No: 0}, term.Primitive{Name: "1"}})

	out, err := eval.Eval(prog, []any{10})
	require.NoError(t, err)
	require.Equal(t, 11, out)
}

func TestSkipExceptionBecomesUndefined(t *testing.T) {
	eval := evaluator.New(plusDSL(), nil, nil, nil, []string{"division"})
	prog := term.NewApplication(term.Primitive{Name: "div"}, []term.Program{term.Variable{No: 0}, term.Variable{No: 1}})

	out, err := eval.Eval(prog, []any{10, 0})
	require.NoError(t, err)
	require.Equal(t, evaluator.Undefined{}, out)
}

func TestSignatureAndEqual(t *testing.T) {
	inputs := map[string][]any{
		"int": {[]any{1}, []any{2}, []any{3}},
	}
	eval := evaluator.New(plusDSL(), nil, inputs, nil, nil)

	a := term.NewApplication(term.Primitive{Name: "+"}, []term.Program{term.Variable{No: 0}, term.Primitive{Name: "1"}})
	b := term.Variable{No: 0}

	sigA, err := eval.Signature(a, "int")
	require.NoError(t, err)
	sigB, err := eval.Signature(b, "int")
	require.NoError(t, err)

	require.False(t, eval.Equal(sigA, sigB))
	sigA2, err := eval.Signature(a, "int")
	require.NoError(t, err)
	require.True(t, eval.Equal(sigA, sigA2))
}

func TestUndefinedEqualsOnlyUndefined(t *testing.T) {
	eval := evaluator.New(plusDSL(), nil, nil, nil, nil)
	sigA := evaluator.Signature{Type: "int", Results: []any{evaluator.Undefined{}, 1}}
	sigB := evaluator.Signature{Type: "int", Results: []any{evaluator.Undefined{}, 1}}
	sigC := evaluator.Signature{Type: "int", Results: []any{2, 1}}

	require.True(t, eval.Equal(sigA, sigB))
	require.False(t, eval.Equal(sigA, sigC))
}
