package loader

import (
	"fmt"
	"math/rand"

	"github.com/grapeloop/gpoe/evaluator"
)

// BuiltinRegistry resolves the closed set of primitives a declarative YAML
// DSL manifest is allowed to name: arithmetic, boolean logic, a ternary, and
// constants/identity over int and bool. This is the "worked example" DSL the
// rest of the repo's scenarios and tests run against, since a YAML manifest
// alone cannot express arbitrary behavior the way a Go plugin can.
func BuiltinRegistry() Registry {
	return Registry{
		Callables: map[string]evaluator.Callable{
			"+": func(args []any) (any, error) { return args[0].(int) + args[1].(int), nil },
			"-": func(args []any) (any, error) { return args[0].(int) - args[1].(int), nil },
			"*": func(args []any) (any, error) { return args[0].(int) * args[1].(int), nil },
			"/": func(args []any) (any, error) {
				b := args[1].(int)
				if b == 0 {
					return nil, &evaluator.SkipError{Kind: "division", Err: fmt.Errorf("division by zero")}
				}
				return args[0].(int) / b, nil
			},
			"and": func(args []any) (any, error) { return args[0].(bool) && args[1].(bool), nil },
			"or":  func(args []any) (any, error) { return args[0].(bool) || args[1].(bool), nil },
			"not": func(args []any) (any, error) { return !args[0].(bool), nil },
			"if": func(args []any) (any, error) {
				if args[0].(bool) {
					return args[1], nil
				}
				return args[2], nil
			},
			"id":    func(args []any) (any, error) { return args[0], nil },
			"0":     func(args []any) (any, error) { return 0, nil },
			"1":     func(args []any) (any, error) { return 1, nil },
			"true":  func(args []any) (any, error) { return true, nil },
			"false": func(args []any) (any, error) { return false, nil },
		},
		Samplers: map[string]func() any{
			"int":  func() any { return rand.Intn(21) - 10 },
			"bool": func() any { return rand.Intn(2) == 0 },
		},
	}
}
