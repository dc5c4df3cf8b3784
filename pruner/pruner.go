// Package pruner implements the main regular-constraint pruning loop: seed a
// "universe" DFTA over every type appearing in the (already monomorphized)
// DSL, drive an Enumerator over it, keep only one representative per
// observational-equivalence class at every type, and progressively build a
// second, output DFTA whose states correspond 1:1 to kept representatives.
// Every output state is reached by exactly one derivation, which is what the
// loop manager's "specialized" precondition requires.
package pruner

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/grapeloop/gpoe/automaton"
	"github.com/grapeloop/gpoe/constraints"
	"github.com/grapeloop/gpoe/enumerator"
	"github.com/grapeloop/gpoe/evaluator"
	"github.com/grapeloop/gpoe/term"
	"github.com/grapeloop/gpoe/typesys"
)

// Entry describes one DSL primitive or constant: its name and its
// monomorphic arrow type.
type Entry struct {
	Name string
	Type string
}

// AllowedProgram is one row of the "allowed.csv" style output: a kept
// program paired with the monomorphic type request it was derived under.
type AllowedProgram struct {
	Program term.Program
	TypeReq string
}

// Config controls a pruning run.
type Config struct {
	MaxSize  int
	Optimize bool
}

// Pruner drives the main loop described above.
type Pruner struct {
	dsl       []Entry
	typeOf    map[string]typesys.Type // primitive name -> parsed type
	argTypes  []string                // target signature's argument types, in order
	eval      *evaluator.Evaluator
	forbidden []constraints.Pattern
	cfg       Config

	universe     *automaton.DFTA[string, term.Program]
	output       *automaton.DFTA[string, term.Program]
	classes      map[string]string       // "type|signatureKey" -> output state name
	stateType    map[string]string       // output state name -> its type
	stateProgram map[string]term.Program // output state name -> its representative program
	nextID       int
	allowed      []AllowedProgram
}

// BuildUniverse seeds the "universe" grammar described in the package doc
// comment: one state per distinct type (the state name IS the type string),
// nullary rules for every zero-arity DSL entry and for each argument of
// argTypes, and an application rule for every arity >= 1 entry wired to its
// argument types' states. Every state is final. Exposed so the
// approximate-constraint finder can scan the same grammar the pruner will
// later walk, before any forbidden pattern exists to configure the pruner
// with.
func BuildUniverse(dsl []Entry, argTypes []string, targetType string) *automaton.DFTA[string, term.Program] {
	typeOf := make(map[string]typesys.Type, len(dsl))
	for _, e := range dsl {
		typeOf[e.Name] = typesys.Parse(e.Type)
	}

	typeSet := map[string]bool{}
	if targetType != "" {
		typeSet[targetType] = true
	}
	for _, t := range argTypes {
		typeSet[t] = true
	}
	for _, e := range dsl {
		t := typeOf[e.Name]
		typeSet[t.ReturnType()] = true
		for _, a := range t.ArgTypes() {
			typeSet[a] = true
		}
	}

	var rules []automaton.Transition[string, term.Program]
	for i, t := range argTypes {
		rules = append(rules, automaton.Transition[string, term.Program]{
			Letter: term.Variable{No: i},
			Args:   nil,
			Dst:    t,
		})
	}
	for _, e := range dsl {
		t := typeOf[e.Name]
		if t.Arity() == 0 {
			rules = append(rules, automaton.Transition[string, term.Program]{
				Letter: term.Primitive{Name: e.Name},
				Args:   nil,
				Dst:    t.ReturnType(),
			})
			continue
		}
		args := make([]string, 0, t.Arity())
		args = append(args, t.ArgTypes()...)
		rules = append(rules, automaton.Transition[string, term.Program]{
			Letter: term.Primitive{Name: e.Name},
			Args:   args,
			Dst:    t.ReturnType(),
		})
	}

	finals := make([]string, 0, len(typeSet))
	for t := range typeSet {
		finals = append(finals, t)
	}
	return automaton.New(rules, finals)
}

// TypeOfState recovers a type string from a universe state: states are
// named after their type directly, so this is the identity function; it
// exists so callers don't need to know that representation detail.
func TypeOfState(state string) string { return state }

// New builds a Pruner and seeds the universe grammar: one state per distinct
// type, nullary rules for every zero-arity DSL entry and for each argument of
// argTypes (the target function signature), and an application rule for
// every arity >= 1 entry wired to its argument types' states. Every state is
// final: pruning applies uniformly at every type, not only at the top-level
// target type, since intermediate sub-expressions need deduping too.
func New(dsl []Entry, argTypes []string, targetType string, eval *evaluator.Evaluator, forbidden []constraints.Pattern, cfg Config) *Pruner {
	p := &Pruner{
		dsl:          dsl,
		typeOf:       make(map[string]typesys.Type, len(dsl)),
		argTypes:     argTypes,
		eval:         eval,
		forbidden:    forbidden,
		cfg:          cfg,
		classes:      make(map[string]string),
		stateType:    make(map[string]string),
		stateProgram: make(map[string]term.Program),
	}
	for _, e := range dsl {
		p.typeOf[e.Name] = typesys.Parse(e.Type)
	}
	p.universe = BuildUniverse(dsl, argTypes, targetType)

	p.output = automaton.New[string, term.Program](nil, nil)
	return p
}

// Run executes the main loop until the enumerator reaches the configured
// max size, then reduces the output grammar. Run does not minimize it; only
// the optional optimize pass runs a minimization.
func (p *Pruner) Run() (*automaton.DFTA[string, term.Program], []AllowedProgram, error) {
	var runErr error
	enum := enumerator.New(p.universe, nil)
	enum.EnumerateUntilSize(p.cfg.MaxSize, func(program term.Program, typ string) bool {
		if runErr != nil {
			return false
		}
		keep, err := p.consider(program, typ)
		if err != nil {
			runErr = err
			return false
		}
		return keep
	})
	if runErr != nil {
		return nil, nil, runErr
	}

	p.output.Reduce()
	if p.cfg.Optimize {
		p.optimize()
	}

	sort.Slice(p.allowed, func(i, j int) bool {
		if p.allowed[i].Program.Size() != p.allowed[j].Program.Size() {
			return p.allowed[i].Program.Size() < p.allowed[j].Program.Size()
		}
		return p.allowed[i].Program.String() < p.allowed[j].Program.String()
	})
	return p.output, p.allowed, nil
}

// optimize is the optional post-hoc pass: it runs minimization with a
// stricter predicate than the structural-only check Brainerd's algorithm
// applies on its own. Two states may merge only if they pass that structural
// check and also have the same type and representative programs producing
// exactly equal behavior signatures (compared by raw deep equality rather
// than the DSL's own equality predicates, which already decided class
// membership during the main loop).
// This never drops a canonical representative: optimize only merges
// automaton states after every representative has been recorded in
// p.allowed, it never revisits that decision.
func (p *Pruner) optimize() {
	canMerge := func(a, b string) bool {
		ta, tb := p.stateType[a], p.stateType[b]
		if ta == "" || ta != tb {
			return false
		}
		progA, okA := p.stateProgram[a]
		progB, okB := p.stateProgram[b]
		if !okA || !okB {
			return false
		}
		sigA, err := p.eval.Signature(progA, ta)
		if err != nil {
			return false
		}
		sigB, err := p.eval.Signature(progB, tb)
		if err != nil {
			return false
		}
		return reflect.DeepEqual(sigA.Results, sigB.Results)
	}

	minimized := automaton.Minimize(p.output, canMerge)

	newStateType := make(map[int]string, len(minimized.States()))
	for _, r := range minimized.Rules() {
		newStateType[r.Dst] = p.typeOfProgram(representativeProgram(r))
	}

	renamed := automaton.MapStates(minimized, func(id int) string { return fmt.Sprintf("opt#%d", id) })
	renamedTypes := make(map[string]string, len(newStateType))
	for id, t := range newStateType {
		renamedTypes[fmt.Sprintf("opt#%d", id)] = t
	}

	p.output = renamed
	p.stateType = renamedTypes
}

// representativeProgram reconstructs the shallow program shape (letter plus
// placeholder args, only the head matters for type lookup) a minimized
// rule's letter corresponds to, so typeOfProgram can classify the merged
// destination state without needing the original string-keyed state names.
func representativeProgram(r automaton.Transition[int, term.Program]) term.Program {
	if len(r.Args) == 0 {
		return r.Letter
	}
	args := make([]term.Program, len(r.Args))
	for i := range r.Args {
		args[i] = term.Variable{No: 0}
	}
	return term.NewApplication(r.Letter, args)
}

// StateTypes exposes the output grammar's state-to-type map, needed by the
// loop manager's Config (every output state is reached by exactly one
// derivation, so this also satisfies the "specialized" precondition without
// any further bookkeeping).
func (p *Pruner) StateTypes() map[string]string {
	return p.stateType
}

// Seed folds every program derivable in a previously-pruned grammar back
// through the main loop's own dedupe path, so a run can refine an existing
// grammar instead of enumerating from scratch. seed must predate loop
// closure: Seed reconstructs one representative program per reachable state
// by walking the grammar bottom-up, which only terminates over a finite
// grammar.
func (p *Pruner) Seed(seed *automaton.DFTA[string, term.Program]) error {
	if seed.Unbounded() {
		return fmt.Errorf("pruner: cannot seed from a looped automaton; pass a grammar from before loop closure")
	}

	states := seed.States()
	programs := make(map[string]term.Program, len(states))
	var build func(s string) (term.Program, bool)
	build = func(s string) (term.Program, bool) {
		if prog, ok := programs[s]; ok {
			return prog, true
		}
		rules := append([]automaton.Transition[string, term.Program](nil), seed.Reversed(s)...)
		if len(rules) == 0 {
			return nil, false
		}
		// Deterministic derivation choice for states with several inbound rules.
		sort.Slice(rules, func(i, j int) bool {
			ki := fmt.Sprintf("%s|%v", rules[i].Letter, rules[i].Args)
			kj := fmt.Sprintf("%s|%v", rules[j].Letter, rules[j].Args)
			return ki < kj
		})
		r := rules[0]
		if len(r.Args) == 0 {
			programs[s] = r.Letter
			return r.Letter, true
		}
		args := make([]term.Program, len(r.Args))
		for i, a := range r.Args {
			arg, ok := build(a)
			if !ok {
				return nil, false
			}
			args[i] = arg
		}
		prog := term.NewApplication(r.Letter, args)
		programs[s] = prog
		return prog, true
	}

	seeded := make([]term.Program, 0, len(states))
	for s := range states {
		prog, ok := build(s)
		if !ok {
			continue
		}
		seeded = append(seeded, prog)
	}
	sort.Slice(seeded, func(i, j int) bool {
		if seeded[i].Size() != seeded[j].Size() {
			return seeded[i].Size() < seeded[j].Size()
		}
		return seeded[i].String() < seeded[j].String()
	})

	for _, prog := range seeded {
		typ := p.typeOfProgram(prog)
		if typ == "" {
			continue
		}
		if _, err := p.consider(prog, typ); err != nil {
			return fmt.Errorf("pruner: seeding %s: %w", prog, err)
		}
	}
	return nil
}

// consider implements step 3 of the main loop: reject forbidden patterns,
// dedupe by behavior signature, and on a fresh class register the kept
// derivation in the output grammar (step 4). Non-linear programs (a repeated
// variable index) carry no special treatment here: a redundant non-linear
// shape is rejected only when a forbidden pattern proves it equivalent to
// something smaller.
func (p *Pruner) consider(program term.Program, typ string) (bool, error) {
	if constraints.Forbids(program, p.forbidden) {
		return false, nil
	}

	sig, err := p.eval.Signature(program, typ)
	if err != nil {
		return false, err
	}

	key := typ + "|" + signatureKey(sig)
	if _, exists := p.classes[key]; exists {
		return false, nil
	}

	outState := p.registerDerivation(program, typ)
	p.classes[key] = outState
	p.allowed = append(p.allowed, AllowedProgram{Program: program, TypeReq: typ})
	return true, nil
}

// registerDerivation mints a fresh output state for the kept program and
// adds the rule that reaches it via program's own top-level derivation, by
// looking up each argument's already-registered output state.
func (p *Pruner) registerDerivation(program term.Program, typ string) string {
	p.nextID++
	state := typ + "#" + strconv.Itoa(p.nextID)
	p.stateType[state] = typ
	p.stateProgram[state] = program

	switch prog := program.(type) {
	case term.Variable, term.Primitive:
		p.output.AddRule(prog, nil, state)
	case term.Application:
		argStates := make([]string, len(prog.Args))
		for i, arg := range prog.Args {
			argStates[i] = p.outputStateOf(arg)
		}
		p.output.AddRule(prog.Head, argStates, state)
	}
	p.output.RefreshReversed()

	finals := p.output.Finals()
	finals[state] = true
	return state
}

// outputStateOf recovers the output state minted for an already-kept
// sub-program by recomputing its signature and looking up its class; every
// argument of a kept Application was itself kept earlier by construction,
// since every universe state is final and the enumerator only ever builds
// larger programs out of sub-programs it has already offered to consider.
func (p *Pruner) outputStateOf(program term.Program) string {
	typ := p.typeOfProgram(program)
	sig, err := p.eval.Signature(program, typ)
	if err != nil {
		return fmt.Sprintf("%s#error", typ)
	}
	return p.classes[typ+"|"+signatureKey(sig)]
}

// typeOfProgram infers a program's type by walking its shape against the
// DSL's declared signatures; Variable positions are resolved against the
// target signature's argument types.
func (p *Pruner) typeOfProgram(program term.Program) string {
	switch prog := program.(type) {
	case term.Variable:
		if prog.No >= 0 && prog.No < len(p.argTypes) {
			return p.argTypes[prog.No]
		}
		return ""
	case term.Primitive:
		if t, ok := p.typeOf[prog.Name]; ok {
			return t.ReturnType()
		}
		return ""
	case term.Application:
		if head, ok := prog.Head.(term.Primitive); ok {
			if t, ok := p.typeOf[head.Name]; ok {
				return t.ReturnType()
			}
		}
		return ""
	default:
		return ""
	}
}

func signatureKey(sig evaluator.Signature) string {
	return fmt.Sprintf("%v", sig.Results)
}
