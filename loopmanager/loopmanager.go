// Package loopmanager implements the GRAPE loop-closure extension: given a
// finite, "specialized" DFTA (one state per letter/variable), decide which
// oversized derivations can be redirected to an existing, smaller,
// equivalent state, so the resulting grammar can derive arbitrarily large
// trees without growing its state set.
//
// State equivalence is coinductive: two states are mergeable iff they share
// a head letter (or the candidate is a variable) and every inbound rule of
// one has an argumentwise-mergeable counterpart on the other. The pair-keyed
// memo is seeded optimistically so mutually-dependent pairs close instead of
// recursing forever.
package loopmanager

import (
	"fmt"
	"sort"

	"github.com/grapeloop/gpoe/automaton"
	"github.com/grapeloop/gpoe/term"
)

// Strategy selects the admissibility rule used to accept a redirection.
type Strategy int

const (
	// ObservationalEquivalence accepts every oversize derivation
	// unconditionally, redirecting it to the largest mergeable same-family
	// state of the right type.
	ObservationalEquivalence Strategy = iota
	// GRAPE additionally requires every "shrunk" argument tuple reachable
	// within the existing max size to already have a rule, guaranteeing the
	// loop's correctness with respect to previously approved derivations.
	GRAPE
)

// Signature is a primitive's argument types and return type, used to
// enumerate every type-consistent argument tuple a primitive could take.
type Signature struct {
	ArgTypes   []string
	ReturnType string
}

// Config bundles the type information the DFTA's opaque states don't carry
// on their own.
type Config struct {
	// StateType maps every state to its declared type.
	StateType map[string]string
	// Primitives maps every non-variable letter name to its signatures, one
	// per monomorphic variant merged onto that name.
	Primitives map[string][]Signature
	Strategy   Strategy
}

type letterInfo struct {
	family string
	isVar  bool
}

// AddLoops grows dfta so it derives unboundedly large trees, returning a new
// automaton (reduced, minimized, and densely renumbered) that still accepts
// every program the input accepted.
func AddLoops(dfta *automaton.DFTA[string, term.Program], cfg Config) (*automaton.DFTA[int, term.Program], error) {
	if dfta.Unbounded() {
		return nil, fmt.Errorf("loopmanager: automaton is already looping, cannot add loops")
	}
	if !isSpecialized(dfta) {
		return nil, fmt.Errorf("loopmanager: automaton is not specialized, cannot add loops")
	}

	states := dfta.States()
	stateSize := computeSizes(dfta, states)
	stateLetter := computeLetters(dfta, states)

	maxSize := 0
	for _, sz := range stateSize {
		if sz > maxSize {
			maxSize = sz
		}
	}

	working := copyDFTA(dfta)

	maxVarNo := -1
	for _, r := range dfta.Rules() {
		if v, ok := r.Letter.(term.Variable); ok && v.No > maxVarNo {
			maxVarNo = v.No
		}
	}
	nextVarNo := maxVarNo + 1

	statesByType := make(map[string][]string)
	for s := range states {
		t := cfg.StateType[s]
		statesByType[t] = append(statesByType[t], s)
	}

	// Types are visited in sorted order so virtual variable numbering, and
	// with it the whole run, is reproducible.
	typeNames := make([]string, 0, len(statesByType))
	for t := range statesByType {
		typeNames = append(typeNames, t)
	}
	sort.Strings(typeNames)

	virtualVars := make(map[string]term.Variable)
	for _, t := range typeNames {
		hasVar := false
		for _, s := range statesByType[t] {
			if stateLetter[s].isVar {
				hasVar = true
				break
			}
		}
		if hasVar {
			continue
		}
		v := term.Variable{No: nextVarNo}
		nextVarNo++
		vstate := fmt.Sprintf("virtual@%s", v.String())
		working.AddRule(v, nil, vstate)
		stateSize[vstate] = 1
		stateLetter[vstate] = letterInfo{family: v.String(), isVar: true}
		statesByType[t] = append(statesByType[t], vstate)
		virtualVars[vstate] = v
	}
	working.RefreshReversed()

	for _, t := range typeNames {
		ss := statesByType[t]
		sort.SliceStable(ss, func(i, j int) bool {
			if stateSize[ss[i]] != stateSize[ss[j]] {
				return stateSize[ss[i]] > stateSize[ss[j]]
			}
			return ss[i] < ss[j]
		})
	}

	buckets := make(map[[2]string][]string) // (type, family) -> candidate states, desc by size
	for t, ss := range statesByType {
		var vars []string
		byFamily := make(map[string][]string)
		for _, s := range ss {
			if stateLetter[s].isVar {
				vars = append(vars, s)
			} else {
				byFamily[stateLetter[s].family] = append(byFamily[stateLetter[s].family], s)
			}
		}
		for family, ss2 := range byFamily {
			combined := append(append([]string(nil), ss2...), vars...)
			sort.SliceStable(combined, func(i, j int) bool {
				if stateSize[combined[i]] != stateSize[combined[j]] {
					return stateSize[combined[i]] > stateSize[combined[j]]
				}
				return combined[i] < combined[j]
			})
			buckets[[2]string{t, family}] = combined
		}
	}

	mergeMemo := make(map[[2]string]bool)
	var canMerge func(a, b string) bool
	canMerge = func(a, b string) bool {
		key := [2]string{a, b}
		if v, ok := mergeMemo[key]; ok {
			return v
		}
		lb := stateLetter[b]
		la := stateLetter[a]
		if lb.family != la.family && !lb.isVar {
			mergeMemo[key] = false
			mergeMemo[[2]string{b, a}] = false
			return false
		}
		// A variable state consumes nothing, so anything of its type merges
		// into it.
		if lb.isVar {
			mergeMemo[key] = true
			mergeMemo[[2]string{b, a}] = true
			return true
		}
		// Seed the pair optimistically so mutually-dependent pairs close
		// coinductively instead of recursing forever.
		mergeMemo[key] = true
		mergeMemo[[2]string{b, a}] = true
		for _, r1 := range dfta.Reversed(a) {
			matched := false
			for _, r2 := range dfta.Reversed(b) {
				if r1.Letter != r2.Letter || len(r1.Args) != len(r2.Args) {
					continue
				}
				ok := true
				for i := range r1.Args {
					if r1.Args[i] == r2.Args[i] {
						continue
					}
					if !canMerge(r1.Args[i], r2.Args[i]) {
						ok = false
						break
					}
				}
				if ok {
					matched = true
					break
				}
			}
			if !matched {
				mergeMemo[key] = false
				mergeMemo[[2]string{b, a}] = false
				return false
			}
		}
		mergeMemo[key] = true
		mergeMemo[[2]string{b, a}] = true
		return true
	}

	findMerge := func(name string, args []string, candidates []string) string {
		best := ""
		sizeBest := -1
		for _, candidate := range candidates {
			if stateSize[candidate] <= sizeBest {
				break
			}
			if stateLetter[candidate].family != name && !stateLetter[candidate].isVar {
				continue
			}
			matched := stateLetter[candidate].isVar
			for _, r2 := range dfta.Reversed(candidate) {
				if matched {
					break
				}
				if len(r2.Args) != len(args) {
					continue
				}
				ok := true
				for i := range args {
					if args[i] == r2.Args[i] {
						continue
					}
					if !canMerge(args[i], r2.Args[i]) {
						ok = false
						break
					}
				}
				if ok {
					matched = true
					break
				}
			}
			if matched {
				best = candidate
				sizeBest = stateSize[candidate]
			}
		}
		return best
	}

	mergeCandidatesMemo := make(map[string][]string)
	getMergeCandidates := func(state string) []string {
		if v, ok := mergeCandidatesMemo[state]; ok {
			return v
		}
		t := cfg.StateType[state]
		family := stateLetter[state].family
		candidates := buckets[[2]string{t, family}]
		var out []string
		for _, c := range candidates {
			if stateSize[c] >= stateSize[state] {
				continue
			}
			if canMerge(state, c) {
				out = append(out, c)
			}
		}
		mergeCandidatesMemo[state] = out
		return out
	}

	allSubArgs := func(combi []string) [][]string {
		possibles := make([][]string, len(combi))
		for i, s := range combi {
			possibles[i] = getMergeCandidates(s)
		}
		return cartesian(possibles)
	}

	isAllowed := func(p string, combi []string, dstSize int) bool {
		if cfg.Strategy == ObservationalEquivalence {
			return true
		}
		for _, subArgs := range allSubArgs(combi) {
			total := 1
			for _, a := range subArgs {
				total += stateSize[a]
			}
			if total > maxSize {
				continue
			}
			if _, ok := working.Read(term.Primitive{Name: p}, subArgs); !ok {
				return false
			}
		}
		return true
	}

	// Primitives are visited in sorted order: under GRAPE the admissibility
	// check consults rules added for earlier primitives, so the visit order is
	// part of the output contract.
	primNames := make([]string, 0, len(cfg.Primitives))
	for name := range cfg.Primitives {
		primNames = append(primNames, name)
	}
	sort.Strings(primNames)

	for _, name := range primNames {
		for _, sig := range cfg.Primitives[name] {
			var possibles [][]string
			for _, at := range sig.ArgTypes {
				possibles = append(possibles, statesByType[at])
			}
			for _, combi := range cartesian(possibles) {
				dstSize := 1
				for _, a := range combi {
					dstSize += stateSize[a]
				}
				if dstSize <= maxSize {
					continue
				}
				if !isAllowed(name, combi, dstSize) {
					continue
				}
				if dst, exists := working.Read(term.Primitive{Name: name}, combi); exists {
					return nil, fmt.Errorf("loopmanager: rule for %s%v already exists (dst %s)", name, combi, dst)
				}
				candidates := buckets[[2]string{sig.ReturnType, name}]
				target := findMerge(name, combi, candidates)
				if target == "" {
					return nil, fmt.Errorf("loopmanager: no mergeable state found for %s%v", name, combi)
				}
				working.AddRule(term.Primitive{Name: name}, combi, target)
			}
		}
	}

	// Virtual variable states only existed to make pure-primitive types
	// mergeable with a variable family; dropping their nullary rules makes
	// them unreachable, and Reduce then cascades away every loop rule that
	// mentioned one.
	for _, v := range virtualVars {
		working.DeleteRule(v, nil)
	}
	working.RefreshReversed()
	working.Reduce()
	minimized := automaton.Minimize(working, nil)
	return automaton.ClassicStateRenaming(minimized, func(s int) string { return fmt.Sprintf("%d", s) }), nil
}

func cartesian(slots [][]string) [][]string {
	if len(slots) == 0 {
		return [][]string{{}}
	}
	for _, s := range slots {
		if len(s) == 0 {
			return nil
		}
	}
	var out [][]string
	vector := make([]string, len(slots))
	var rec func(depth int)
	rec = func(depth int) {
		if depth == len(slots) {
			out = append(out, append([]string(nil), vector...))
			return
		}
		for _, v := range slots[depth] {
			vector[depth] = v
			rec(depth + 1)
		}
	}
	rec(0)
	return out
}

func computeSizes(d *automaton.DFTA[string, term.Program], states map[string]bool) map[string]int {
	memo := make(map[string]int, len(states))
	var compute func(s string) int
	compute = func(s string) int {
		if v, ok := memo[s]; ok {
			return v
		}
		rules := d.Reversed(s)
		if len(rules) == 0 {
			memo[s] = 1
			return 1
		}
		// A state's size is that of its smallest derivation, which is also
		// independent of rule iteration order.
		best := -1
		for _, r := range rules {
			total := 1
			for _, a := range r.Args {
				total += compute(a)
			}
			if best < 0 || total < best {
				best = total
			}
		}
		memo[s] = best
		return best
	}
	for s := range states {
		compute(s)
	}
	return memo
}

func computeLetters(d *automaton.DFTA[string, term.Program], states map[string]bool) map[string]letterInfo {
	out := make(map[string]letterInfo, len(states))
	for s := range states {
		rules := d.Reversed(s)
		if len(rules) == 0 {
			out[s] = letterInfo{family: s, isVar: false}
			continue
		}
		letter := rules[0].Letter
		if v, ok := letter.(term.Variable); ok {
			out[s] = letterInfo{family: v.String(), isVar: true}
		} else {
			out[s] = letterInfo{family: letter.String(), isVar: false}
		}
	}
	return out
}

// isSpecialized reports whether every state's inbound rules agree on a
// single letter, the precondition loop closure requires of its input grammar.
func isSpecialized(d *automaton.DFTA[string, term.Program]) bool {
	for s := range d.States() {
		rules := d.Reversed(s)
		if len(rules) == 0 {
			continue
		}
		letter := rules[0].Letter
		for _, r := range rules[1:] {
			if r.Letter != letter {
				return false
			}
		}
	}
	return true
}

func copyDFTA(d *automaton.DFTA[string, term.Program]) *automaton.DFTA[string, term.Program] {
	rules := d.Rules()
	finals := make([]string, 0, len(d.Finals()))
	for f := range d.Finals() {
		finals = append(finals, f)
	}
	return automaton.New(rules, finals)
}
