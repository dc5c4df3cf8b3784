// Package automaton implements the Deterministic Finite Tree Automaton (DFTA)
// data structure: states, a ranked alphabet, a transition table, and a final
// state set, together with reachability/productiveness reduction, Brainerd
// minimization, state/alphabet remapping, and size-bucketed tree counting.
package automaton

import (
	"fmt"
	"strings"
)

// Transition is one rule (letter, args) -> dst of the automaton.
type Transition[State comparable, Letter comparable] struct {
	Letter Letter
	Args   []State
	Dst    State
}

// DFTA is a deterministic finite tree automaton over states of type State and
// a ranked alphabet of type Letter. The zero value is not usable; build one
// with New.
type DFTA[State comparable, Letter comparable] struct {
	rules    map[string]Transition[State, Letter]
	finals   map[State]bool
	reversed map[State][]Transition[State, Letter]
}

// New builds a DFTA from an explicit rule set and final-state set. Callers
// must ensure determinism: no two rules may share the same (letter, args) key.
func New[State comparable, Letter comparable](rules []Transition[State, Letter], finals []State) *DFTA[State, Letter] {
	d := &DFTA[State, Letter]{
		rules:  make(map[string]Transition[State, Letter], len(rules)),
		finals: make(map[State]bool, len(finals)),
	}
	for _, f := range finals {
		d.finals[f] = true
	}
	for _, r := range rules {
		d.rules[ruleKey(r.Letter, r.Args)] = r
	}
	d.RefreshReversed()
	return d
}

func ruleKey[State comparable, Letter comparable](letter Letter, args []State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v\x1f%d", letter, len(args))
	for _, a := range args {
		fmt.Fprintf(&b, "\x1f%v", a)
	}
	return b.String()
}

// AddRule inserts or overwrites (letter, args) -> dst. Callers are responsible
// for determinism.
func (d *DFTA[State, Letter]) AddRule(letter Letter, args []State, dst State) {
	d.rules[ruleKey(letter, args)] = Transition[State, Letter]{Letter: letter, Args: append([]State(nil), args...), Dst: dst}
}

// DeleteRule removes the rule keyed by (letter, args), if present. Callers
// must RefreshReversed (or Reduce) afterwards.
func (d *DFTA[State, Letter]) DeleteRule(letter Letter, args []State) {
	delete(d.rules, ruleKey(letter, args))
}

// Read looks up the destination state for (letter, args), if any.
func (d *DFTA[State, Letter]) Read(letter Letter, args []State) (State, bool) {
	r, ok := d.rules[ruleKey(letter, args)]
	return r.Dst, ok
}

// Rules returns every transition, in no particular order.
func (d *DFTA[State, Letter]) Rules() []Transition[State, Letter] {
	out := make([]Transition[State, Letter], 0, len(d.rules))
	for _, r := range d.rules {
		out = append(out, r)
	}
	return out
}

// Finals returns the final state set.
func (d *DFTA[State, Letter]) Finals() map[State]bool { return d.finals }

// IsFinal reports whether s is a final state.
func (d *DFTA[State, Letter]) IsFinal(s State) bool { return d.finals[s] }

// RefreshReversed rebuilds the destination -> incoming-transitions index.
// Must be called after any direct mutation of the rule table.
func (d *DFTA[State, Letter]) RefreshReversed() {
	d.reversed = make(map[State][]Transition[State, Letter])
	for _, r := range d.rules {
		d.reversed[r.Dst] = append(d.reversed[r.Dst], r)
	}
}

// Reversed returns the incoming transitions for state s (letter, args) -> s.
func (d *DFTA[State, Letter]) Reversed(s State) []Transition[State, Letter] {
	return d.reversed[s]
}

// States returns the set of reachable states: a state is reachable if some
// rule whose argument states are all already known-reachable lands in it,
// seeded by nullary rules.
func (d *DFTA[State, Letter]) States() map[State]bool {
	reachable := make(map[State]bool)
	byDst := make(map[State][][]State)
	for _, r := range d.rules {
		byDst[r.Dst] = append(byDst[r.Dst], r.Args)
	}
	changed := true
	for changed {
		changed = false
		for dst, argsList := range byDst {
			if reachable[dst] {
				continue
			}
			for _, args := range argsList {
				ok := true
				for _, a := range args {
					if !reachable[a] {
						ok = false
						break
					}
				}
				if ok {
					reachable[dst] = true
					changed = true
					break
				}
			}
		}
	}
	return reachable
}

// Alphabet returns the set of letters appearing in some rule.
func (d *DFTA[State, Letter]) Alphabet() map[Letter]bool {
	out := make(map[Letter]bool)
	for _, r := range d.rules {
		out[r.Letter] = true
	}
	return out
}

// removeUnreachable drops every rule whose destination or any argument is not reachable.
func (d *DFTA[State, Letter]) removeUnreachable() {
	reachable := d.States()
	for k, r := range d.rules {
		if !reachable[r.Dst] {
			delete(d.rules, k)
			continue
		}
		for _, a := range r.Args {
			if !reachable[a] {
				delete(d.rules, k)
				break
			}
		}
	}
	for f := range d.finals {
		if !reachable[f] {
			delete(d.finals, f)
		}
	}
}

// consumed returns the final states plus, transitively, every state that
// appears as an argument of a rule landing in an already-consumed state.
func (d *DFTA[State, Letter]) consumed() map[State]bool {
	out := make(map[State]bool, len(d.finals))
	queue := make([]State, 0, len(d.finals))
	for f := range d.finals {
		out[f] = true
		queue = append(queue, f)
	}
	for len(queue) > 0 {
		dst := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, r := range d.rules {
			if r.Dst != dst {
				continue
			}
			for _, a := range r.Args {
				if !out[a] {
					out[a] = true
					queue = append(queue, a)
				}
			}
		}
	}
	return out
}

// removeUnproductive deletes rules whose destination is never consumed by a
// final state, iterating to a fixpoint since removing a rule can shrink the
// consumed set further.
func (d *DFTA[State, Letter]) removeUnproductive() {
	for {
		removedAny := false
		consumed := d.consumed()
		for k, r := range d.rules {
			if !consumed[r.Dst] {
				delete(d.rules, k)
				removedAny = true
			}
		}
		if !removedAny {
			return
		}
	}
}

// Reduce removes unreachable and unproductive states/rules, iterating until
// stable, then refreshes the reverse index.
func (d *DFTA[State, Letter]) Reduce() {
	prevSize := -1
	for prevSize != len(d.rules) {
		prevSize = len(d.rules)
		d.removeUnreachable()
		d.removeUnproductive()
	}
	d.RefreshReversed()
}
