package gpoe

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/projectdiscovery/gologger"

	"github.com/grapeloop/gpoe/automaton"
	"github.com/grapeloop/gpoe/constraints"
	"github.com/grapeloop/gpoe/evaluator"
	"github.com/grapeloop/gpoe/loader"
	"github.com/grapeloop/gpoe/loopmanager"
	"github.com/grapeloop/gpoe/pruner"
	"github.com/grapeloop/gpoe/term"
	"github.com/grapeloop/gpoe/typesys"
)

// Strategy names the loop-closure strategy selectable from the CLI via
// "--no-loop / --strategy {grape,observational_equivalence,none}".
type Strategy string

const (
	StrategyGRAPE                    Strategy = "grape"
	StrategyObservationalEquivalence Strategy = "observational_equivalence"
	StrategyNone                     Strategy = "none"
)

// RunOptions bundles the "prune" operation's parameters, one field per CLI
// flag.
type RunOptions struct {
	MaxSize  int
	Samples  int
	Optimize bool
	Strategy Strategy
	// From, if non-empty, names a grammar file (in the canonical textual
	// format WriteGrammar produces) to refine instead of enumerating the
	// universe from scratch.
	From string
}

// Result is the outcome of a full prune run: the final grammar (already
// reduced, and minimized/loop-closed per Strategy), its canonical
// representatives, and the equivalence-class registry for the optional
// `--classes` dump.
type Result struct {
	Grammar    *automaton.DFTA[int, term.Program]
	Allowed    []pruner.AllowedProgram
	ClassCount int
}

// Run drives the whole pipeline: resolve the DSL provider, expand its
// polymorphic/sum-typed entries into monomorphic variants, sample inputs,
// discover approximate constraints, prune by observational equivalence, and
// optionally close loops. Each stage gets its own config and orchestrator;
// Run folds the results back into one value the CLI can serialize.
func Run(provider loader.Provider, opts RunOptions) (*Result, error) {
	spec, err := provider.GetSpec()
	if err != nil {
		return nil, fmt.Errorf("gpoe: resolving DSL provider: %w", err)
	}
	if len(spec.DSL) == 0 {
		return nil, fmt.Errorf("gpoe: DSL provider declares no entries")
	}

	entries, mergeBack, err := expandEntries(spec.DSL)
	if err != nil {
		return nil, err
	}

	// An arrow-shaped target type declares the variable context: its argument
	// types become var0..varN and its return type is what gets synthesized. A
	// missing target means closed programs of every type.
	var argTypes []string
	targetType := ""
	if spec.TargetType != "" {
		tt := typesys.Parse(spec.TargetType)
		argTypes = tt.ArgTypes()
		targetType = tt.ReturnType()
	}

	raw, err := SampleInputs(spec.SampleDict, spec.EqualDict, opts.Samples)
	if err != nil {
		return nil, err
	}
	inputs, err := buildInputSuite(raw, argTypes, entries, targetType, opts.Samples)
	if err != nil {
		return nil, err
	}

	// Variant clones share their declared entry's callable.
	callables := make(map[string]evaluator.Callable, len(entries))
	dslTypes := make(map[string]string, len(entries))
	for _, e := range entries {
		orig := e.Name
		if o, ok := mergeBack[e.Name]; ok {
			orig = o
		}
		fn, ok := spec.Callables[orig]
		if !ok {
			return nil, fmt.Errorf("gpoe: no callable bound for primitive %q", orig)
		}
		callables[e.Name] = fn
		dslTypes[e.Name] = e.Type
	}
	eval := evaluator.New(callables, dslTypes, inputs, spec.EqualDict, spec.SkipExceptions)

	universe := pruner.BuildUniverse(entries, argTypes, targetType)
	finder := constraints.New(eval, 3)
	forbidden := finder.Find(universe, pruner.TypeOfState)
	if len(forbidden) > 0 {
		gologger.Verbose().Msgf("discovered %d approximate constraint(s)", len(forbidden))
	}

	p := pruner.New(entries, argTypes, targetType, eval, forbidden, pruner.Config{
		MaxSize:  opts.MaxSize,
		Optimize: opts.Optimize,
	})

	if opts.From != "" {
		seed, err := loadSeed(opts.From)
		if err != nil {
			return nil, err
		}
		gologger.Verbose().Msgf("refining seed grammar %q", opts.From)
		if err := p.Seed(seed); err != nil {
			return nil, fmt.Errorf("gpoe: seeding from %q: %w", opts.From, err)
		}
	}

	grammar, allowed, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("gpoe: pruning: %w", err)
	}

	// Merge the monomorphic variant clones back onto their declared names
	// before loop closure, the same order of operations the loop manager's
	// precondition assumes.
	merged := automaton.MapAlphabet(grammar, func(l term.Program) term.Program {
		return mergeLetter(l, mergeBack)
	})
	if lost := len(grammar.Rules()) - len(merged.Rules()); lost > 0 {
		gologger.Warning().Msgf("%d rule(s) collided while merging type variants", lost)
	}
	for i := range allowed {
		allowed[i].Program = mergeProgram(allowed[i].Program, mergeBack)
	}

	for _, e := range spec.DSL {
		if !usesPrimitive(merged, e.Name) {
			gologger.Warning().Msgf("primitive %q never appears in the pruned grammar", e.Name)
		}
	}

	final, err := closeLoops(merged, p.StateTypes(), entries, mergeBack, opts)
	if err != nil {
		return nil, err
	}

	return &Result{Grammar: final, Allowed: allowed, ClassCount: len(allowed)}, nil
}

// mergeLetter rewrites a variant-clone Primitive letter back to its declared
// name; variables and monomorphic primitives pass through unchanged.
func mergeLetter(l term.Program, mergeBack map[string]string) term.Program {
	if p, ok := l.(term.Primitive); ok {
		if orig, cloned := mergeBack[p.Name]; cloned {
			return term.Primitive{Name: orig}
		}
	}
	return l
}

// mergeProgram applies mergeLetter over a whole program tree.
func mergeProgram(p term.Program, mergeBack map[string]string) term.Program {
	switch prog := p.(type) {
	case term.Application:
		args := make([]term.Program, len(prog.Args))
		for i, a := range prog.Args {
			args[i] = mergeProgram(a, mergeBack)
		}
		return term.NewApplication(mergeLetter(prog.Head, mergeBack), args)
	default:
		return mergeLetter(p, mergeBack)
	}
}

// buildInputSuite turns the per-type sample values into the fixed suite of
// input vectors every behavior signature is computed over: vector i binds
// variable j to the i-th sample of argTypes[j]. Every type request shares the
// same variable context, so every type seen in the DSL is keyed to the same
// suite.
func buildInputSuite(raw map[string][]any, argTypes []string, entries []pruner.Entry, targetType string, n int) (map[string][]any, error) {
	if len(argTypes) == 0 {
		// Closed programs evaluate identically on every input vector.
		n = 1
	}
	suite := make([]any, 0, n)
	for i := 0; i < n; i++ {
		vec := make([]any, len(argTypes))
		for j, at := range argTypes {
			vals := raw[at]
			if len(vals) == 0 {
				return nil, fmt.Errorf("gpoe: no sample generator for argument type %q", at)
			}
			vec[j] = vals[i%len(vals)]
		}
		suite = append(suite, vec)
	}

	inputs := make(map[string][]any)
	if targetType != "" {
		inputs[targetType] = suite
	}
	for _, e := range entries {
		t := typesys.Parse(e.Type)
		inputs[t.ReturnType()] = suite
		for _, at := range t.ArgTypes() {
			inputs[at] = suite
		}
	}
	for _, at := range argTypes {
		inputs[at] = suite
	}
	return inputs, nil
}

// expandEntries turns each DSL entry's possibly-polymorphic/sum type string
// into its monomorphic variants. An entry expanding to more than one variant
// is cloned under "name|@>type" so each clone keeps an unambiguous type
// during pruning; the returned merge-back map records how to restore the
// declared names in the output step.
func expandEntries(dsl []loader.Entry) ([]pruner.Entry, map[string]string, error) {
	mergeBack := make(map[string]string)
	var out []pruner.Entry
	for _, e := range dsl {
		variants, err := typesys.AllVariants(e.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("gpoe: expanding type of %q: %w", e.Name, err)
		}
		for _, v := range variants {
			name := e.Name
			if len(variants) > 1 {
				name = e.Name + "|@>" + v
				mergeBack[name] = e.Name
			}
			out = append(out, pruner.Entry{Name: name, Type: v})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Type < out[j].Type
	})
	return out, mergeBack, nil
}

// closeLoops applies the configured loop-closure strategy to grammar,
// producing the densely-renumbered final automaton. Strategy "none" only
// reduces and renumbers.
func closeLoops(grammar *automaton.DFTA[string, term.Program], stateType map[string]string, entries []pruner.Entry, mergeBack map[string]string, opts RunOptions) (*automaton.DFTA[int, term.Program], error) {
	if opts.Strategy == StrategyNone || opts.Strategy == "" {
		grammar.Reduce()
		return automaton.ClassicStateRenaming(grammar, func(s string) string { return s }), nil
	}

	// A merged letter carries one signature per monomorphic variant.
	primitives := make(map[string][]loopmanager.Signature, len(entries))
	for _, e := range entries {
		name := e.Name
		if orig, ok := mergeBack[e.Name]; ok {
			name = orig
		}
		t := typesys.Parse(e.Type)
		primitives[name] = append(primitives[name], loopmanager.Signature{ArgTypes: t.ArgTypes(), ReturnType: t.ReturnType()})
	}

	strategy := loopmanager.ObservationalEquivalence
	if opts.Strategy == StrategyGRAPE {
		strategy = loopmanager.GRAPE
	}

	return loopmanager.AddLoops(grammar, loopmanager.Config{
		StateType:  stateType,
		Primitives: primitives,
		Strategy:   strategy,
	})
}

// loadSeed reads a grammar file written by WriteGrammar and reconstructs its
// term.Program-letter automaton, the shape pruner.Seed expects.
func loadSeed(path string) (*automaton.DFTA[string, term.Program], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gpoe: reading seed grammar: %w", err)
	}
	strDFTA, _, err := automaton.ParseText(string(data))
	if err != nil {
		return nil, fmt.Errorf("gpoe: parsing seed grammar: %w", err)
	}
	var parseErr error
	progDFTA := automaton.MapAlphabet(strDFTA, func(l string) term.Program {
		prog, err := term.Parse(l)
		if err != nil {
			parseErr = fmt.Errorf("gpoe: parsing seed letter %q: %w", l, err)
			return term.Primitive{Name: l}
		}
		return prog
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return progDFTA, nil
}

func usesPrimitive(g *automaton.DFTA[string, term.Program], name string) bool {
	for l := range g.Alphabet() {
		if p, ok := l.(term.Primitive); ok && p.Name == name {
			return true
		}
	}
	return false
}

// WriteGrammar serializes a pruned grammar using its canonical textual
// format.
func WriteGrammar(g *automaton.DFTA[int, term.Program]) string {
	return g.Text(strconv.Itoa, func(p term.Program) string { return p.String() })
}
