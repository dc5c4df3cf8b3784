package automaton

import (
	"fmt"
	"sort"
)

// consumerRef records that state q appears at argument position K of Rule.
type consumerRef[State comparable, Letter comparable] struct {
	Rule Transition[State, Letter]
	K    int
}

// Minimize runs Brainerd's tree-automaton minimization algorithm: states are
// first split into {finals} and {non-finals}, then each class is repeatedly
// refined by picking a representative and checking, for every consumer of the
// representative, whether substituting a candidate state at that argument
// position still lands in the same class (and symmetrically). canBeMerged is
// an optional user predicate further restricting which states may merge;
// pass nil to allow any merge the structural check permits.
//
// Adapted from Brainerd, W.S. "The Minimalization of Tree Automata" (1968).
func Minimize[State comparable, Letter comparable](d *DFTA[State, Letter], canBeMerged func(a, b State) bool) *DFTA[int, Letter] {
	if canBeMerged == nil {
		canBeMerged = func(State, State) bool { return true }
	}
	states := d.States()

	consumerOf := make(map[State][]consumerRef[State, Letter])
	for s := range states {
		consumerOf[s] = nil
	}
	for _, r := range d.rules {
		for k, arg := range r.Args {
			consumerOf[arg] = append(consumerOf[arg], consumerRef[State, Letter]{Rule: r, K: k})
		}
	}

	// Class membership lists are built in sorted state order so that the
	// fresh class ids minted during refinement are identical across runs.
	sortedStates := make([]State, 0, len(states))
	for s := range states {
		sortedStates = append(sortedStates, s)
	}
	sort.Slice(sortedStates, func(i, j int) bool {
		return fmt.Sprint(sortedStates[i]) < fmt.Sprint(sortedStates[j])
	})

	stateToCls := make(map[State]int, len(states))
	clsToStates := map[int][]State{0: {}, 1: {}}
	for _, s := range sortedStates {
		c := 0
		if d.finals[s] {
			c = 1
		}
		stateToCls[s] = c
		clsToStates[c] = append(clsToStates[c], s)
	}

	substituted := func(args []State, k int, replacement State) []State {
		out := make([]State, len(args))
		copy(out, args)
		out[k] = replacement
		return out
	}

	areEquivalent := func(a, b State) bool {
		if !canBeMerged(a, b) {
			return false
		}
		check := func(x, y State) bool {
			for _, c := range consumerOf[x] {
				newArgs := substituted(c.Rule.Args, c.K, y)
				dstCls := stateToCls[c.Rule.Dst]
				out, ok := d.Read(c.Rule.Letter, newArgs)
				if !ok || stateToCls[out] != dstCls {
					return false
				}
			}
			return true
		}
		return check(a, b) && check(b, a)
	}

	n := 1
	finished := false
	for !finished {
		finished = true
		for i := 0; i <= n; i++ {
			cls := append([]State(nil), clsToStates[i]...)
			for len(cls) > 0 {
				representative := cls[len(cls)-1]
				cls = cls[:len(cls)-1]
				newCls := []State{representative}
				var nextCls []State
				for _, q := range cls {
					if areEquivalent(representative, q) {
						newCls = append(newCls, q)
					} else {
						nextCls = append(nextCls, q)
					}
				}
				cls = nextCls
				if len(cls) != 0 {
					n++
					for _, q := range newCls {
						stateToCls[q] = n
					}
					clsToStates[n] = newCls
					finished = false
				} else {
					clsToStates[i] = newCls
				}
			}
		}
	}

	newRules := make([]Transition[int, Letter], 0, len(d.rules))
	for _, r := range d.rules {
		args := make([]int, len(r.Args))
		for i, a := range r.Args {
			args[i] = stateToCls[a]
		}
		newRules = append(newRules, Transition[int, Letter]{Letter: r.Letter, Args: args, Dst: stateToCls[r.Dst]})
	}
	finalsSeen := make(map[int]bool)
	finals := make([]int, 0)
	for f := range d.finals {
		c := stateToCls[f]
		if !finalsSeen[c] {
			finalsSeen[c] = true
			finals = append(finals, c)
		}
	}
	return New(newRules, finals)
}

// MapStates produces a new automaton with every state rewritten by mapping,
// preserving determinism (a collision in the mapping simply merges the rules
// that land on the same new state).
func MapStates[State comparable, Letter comparable, NewState comparable](d *DFTA[State, Letter], mapping func(State) NewState) *DFTA[NewState, Letter] {
	rules := make([]Transition[NewState, Letter], 0, len(d.rules))
	for _, r := range d.rules {
		args := make([]NewState, len(r.Args))
		for i, a := range r.Args {
			args[i] = mapping(a)
		}
		rules = append(rules, Transition[NewState, Letter]{Letter: r.Letter, Args: args, Dst: mapping(r.Dst)})
	}
	finals := make([]NewState, 0, len(d.finals))
	for f := range d.finals {
		finals = append(finals, mapping(f))
	}
	return New(rules, finals)
}

// MapAlphabet produces a new automaton with every letter rewritten by mapping
// (used to merge monomorphic type-variant clones back onto their original name).
func MapAlphabet[State comparable, Letter comparable, NewLetter comparable](d *DFTA[State, Letter], mapping func(Letter) NewLetter) *DFTA[State, NewLetter] {
	rules := make([]Transition[State, NewLetter], 0, len(d.rules))
	for _, r := range d.rules {
		rules = append(rules, Transition[State, NewLetter]{Letter: mapping(r.Letter), Args: r.Args, Dst: r.Dst})
	}
	finals := make([]State, 0, len(d.finals))
	for f := range d.finals {
		finals = append(finals, f)
	}
	return New(rules, finals)
}

// ClassicStateRenaming remaps every state to a dense integer id in
// deterministic (sorted string) order of the original states, used to
// normalize an automaton after loop closure.
func ClassicStateRenaming[State comparable, Letter comparable](d *DFTA[State, Letter], stateLabel func(State) string) *DFTA[int, Letter] {
	states := d.States()
	labels := make([]string, 0, len(states))
	labelToState := make(map[string]State, len(states))
	for s := range states {
		l := stateLabel(s)
		labels = append(labels, l)
		labelToState[l] = s
	}
	sort.Strings(labels)
	ids := make(map[State]int, len(states))
	for i, l := range labels {
		ids[labelToState[l]] = i
	}
	return MapStates(d, func(s State) int {
		if id, ok := ids[s]; ok {
			return id
		}
		return -1
	})
}
