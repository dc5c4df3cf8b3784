// Package evaluator runs programs against sampled inputs and turns their
// observed outcomes into comparable behavior signatures. Expected failures
// from DSL callables (a configured skip kind) become the Undefined sentinel;
// everything else propagates as a fatal error.
package evaluator

import (
	"fmt"
	"reflect"

	"github.com/grapeloop/gpoe/term"
)

// Undefined is the sentinel outcome produced when evaluation raises one of
// the configured skip exceptions. It equals only itself.
type Undefined struct{}

func (Undefined) String() string { return "<undefined>" }

// SkipError marks an error that the evaluator should treat as "undefined"
// rather than propagate. DSL callables that can fail in an expected way
// (division by zero, out-of-range index, ...) should return a SkipError.
type SkipError struct {
	Kind string
	Err  error
}

func (s *SkipError) Error() string { return fmt.Sprintf("%s: %v", s.Kind, s.Err) }
func (s *SkipError) Unwrap() error { return s.Err }

// Callable is the behavior bound to a Primitive: a Go function taking its
// evaluated arguments (len == arity) and returning a single result, or an
// error. Nullary primitives (constants) are arity 0 and are called once per
// evaluation with no arguments.
type Callable func(args []any) (any, error)

// EqualFunc decides whether two outcomes of a given type are behaviorally
// equal. The zero value (nil) falls back to Go's == where comparable,
// otherwise fmt.Sprintf equality.
type EqualFunc func(a, b any) bool

// Evaluator holds the DSL's bound callables, sampled inputs per type, and
// per-type equality predicates.
type Evaluator struct {
	dsl       map[string]Callable
	dslTypes  map[string]string // primitive name -> declared type string, for diagnostics
	inputs    map[string][]any  // type -> sample input vector
	equal     map[string]EqualFunc
	skipKinds map[string]bool
}

// New builds an Evaluator. skipKinds names the SkipError.Kind values that
// should be caught as "undefined"; any other error aborts evaluation fatally.
func New(dsl map[string]Callable, dslTypes map[string]string, inputs map[string][]any, equal map[string]EqualFunc, skipKinds []string) *Evaluator {
	skip := make(map[string]bool, len(skipKinds))
	for _, k := range skipKinds {
		skip[k] = true
	}
	return &Evaluator{
		dsl:       dsl,
		dslTypes:  dslTypes,
		inputs:    inputs,
		equal:     equal,
		skipKinds: skip,
	}
}

// Eval walks program, evaluating it against the given input vector (indexed
// by the program's Variable positions). A caught skip exception yields
// Undefined{}; anything else is returned as a fatal error.
func (e *Evaluator) Eval(program term.Program, inputVector []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluator: panic evaluating %s: %v", program, r)
		}
	}()
	return e.eval(program, inputVector)
}

func (e *Evaluator) eval(program term.Program, inputVector []any) (any, error) {
	switch p := program.(type) {
	case term.Variable:
		if p.No < 0 || p.No >= len(inputVector) {
			return nil, fmt.Errorf("evaluator: variable index %d out of range (have %d inputs)", p.No, len(inputVector))
		}
		return inputVector[p.No], nil
	case term.Primitive:
		fn, ok := e.dsl[p.Name]
		if !ok {
			return nil, fmt.Errorf("evaluator: no callable bound for primitive %q", p.Name)
		}
		out, err := fn(nil)
		return e.handleErr(out, err)
	case term.Application:
		fn, ok := e.dsl[headName(p.Head)]
		if !ok {
			return nil, fmt.Errorf("evaluator: no callable bound for primitive %q", headName(p.Head))
		}
		args := make([]any, len(p.Args))
		for i, a := range p.Args {
			v, err := e.eval(a, inputVector)
			if err != nil {
				return nil, err
			}
			// An undefined argument makes the whole application undefined.
			if _, undef := v.(Undefined); undef {
				return Undefined{}, nil
			}
			args[i] = v
		}
		out, err := fn(args)
		return e.handleErr(out, err)
	default:
		return nil, fmt.Errorf("evaluator: unsupported program node %T", program)
	}
}

func (e *Evaluator) handleErr(out any, err error) (any, error) {
	if err == nil {
		return out, nil
	}
	if se, ok := err.(*SkipError); ok && e.skipKinds[se.Kind] {
		return Undefined{}, nil
	}
	return nil, err
}

func headName(head term.Program) string {
	switch h := head.(type) {
	case term.Primitive:
		return h.Name
	default:
		return fmt.Sprintf("%v", head)
	}
}

// Signature is the tuple of outcomes a program produces across every sample
// input of its return type, i.e. its behavior signature.
type Signature struct {
	Type    string
	Results []any
}

// Signature evaluates program against every sample input registered for
// returnType, producing its behavior signature. Any fatal (non-skip) error
// aborts and is returned.
func (e *Evaluator) Signature(program term.Program, returnType string) (Signature, error) {
	samples := e.inputs[returnType]
	results := make([]any, 0, len(samples))
	for _, input := range samples {
		vec, ok := input.([]any)
		if !ok {
			vec = []any{input}
		}
		out, err := e.Eval(program, vec)
		if err != nil {
			return Signature{}, err
		}
		results = append(results, out)
	}
	return Signature{Type: returnType, Results: results}, nil
}

// Equal compares two signatures element-wise under the per-type equality
// predicate; "undefined" equals only "undefined".
func (e *Evaluator) Equal(a, b Signature) bool {
	if a.Type != b.Type || len(a.Results) != len(b.Results) {
		return false
	}
	eq := e.equal[a.Type]
	for i := range a.Results {
		ra, rb := a.Results[i], b.Results[i]
		_, aUndef := ra.(Undefined)
		_, bUndef := rb.(Undefined)
		if aUndef || bUndef {
			if aUndef != bUndef {
				return false
			}
			continue
		}
		if eq != nil {
			if !eq(ra, rb) {
				return false
			}
			continue
		}
		if !defaultEqual(ra, rb) {
			return false
		}
	}
	return true
}

func defaultEqual(a, b any) bool {
	// == panics on two values of the same uncomparable type (slices, maps),
	// so only comparable values are compared directly.
	if t := reflect.TypeOf(a); t == nil || t.Comparable() {
		if a == b {
			return true
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
