// Package enumerator performs bottom-up enumeration of the programs accepted
// by a DFTA, in strictly increasing size, driven by a caller-supplied
// accept/reject callback invoked once per candidate whose destination state
// is final. Ordering is fully deterministic given the grammar: sorted states,
// letter-sorted rules, ascending size partitions.
package enumerator

import (
	"sort"

	"github.com/grapeloop/gpoe/automaton"
	"github.com/grapeloop/gpoe/term"
)

// Keeper is called once per candidate whose destination state is final. It
// returns true to retain the candidate (it becomes available as a building
// block for larger programs) or false to drop it.
type Keeper func(candidate term.Program, state string) bool

// Enumerator drives bottom-up enumeration over a grammar of type
// automaton.DFTA[string, term.Program], where alphabet letters are always
// Variable or Primitive instances (never Application).
type Enumerator struct {
	grammar *automaton.DFTA[string, term.Program]
	states  []string
	prune   map[uint64][]term.Program

	memory      map[string]map[int][]term.Program
	comboCache  map[string]map[int][][]term.Program
	currentSize int
}

// New builds an Enumerator over grammar. subprogramsToPrune, if non-nil, is a
// set of programs that are skipped before ever reaching the keeper.
func New(grammar *automaton.DFTA[string, term.Program], subprogramsToPrune []term.Program) *Enumerator {
	e := &Enumerator{
		grammar:    grammar,
		memory:     make(map[string]map[int][]term.Program),
		comboCache: make(map[string]map[int][][]term.Program),
	}
	states := grammar.States()
	e.states = make([]string, 0, len(states))
	for s := range states {
		e.states = append(e.states, s)
		e.memory[s] = make(map[int][]term.Program)
	}
	sort.Strings(e.states)

	for _, s := range e.states {
		rules := append([]automaton.Transition[string, term.Program](nil), e.grammar.Reversed(s)...)
		sortRules(rules)
		for _, r := range rules {
			if len(r.Args) == 0 {
				continue
			}
			key := argsKey(r.Args)
			if _, ok := e.comboCache[key]; !ok {
				e.comboCache[key] = make(map[int][][]term.Program)
			}
		}
	}

	e.prune = make(map[uint64][]term.Program)
	for _, p := range subprogramsToPrune {
		h := p.Hash()
		e.prune[h] = append(e.prune[h], p)
	}
	return e
}

func (e *Enumerator) isPruned(p term.Program) bool {
	for _, candidate := range e.prune[p.Hash()] {
		if candidate.Equal(p) {
			return true
		}
	}
	return false
}

func argsKey(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += "\x1f"
		}
		out += a
	}
	return out
}

func sortRules(rules []automaton.Transition[string, term.Program]) {
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Letter.String() < rules[j].Letter.String()
	})
}

// EnumerateUntilSize enumerates the accepted programs of size <= maxSize,
// invoking keep exactly once per final-state candidate, in strictly
// increasing size order. Argument sizes are split by IntegerPartitions, so
// only applications whose argument sizes are non-decreasing left to right
// are built. Non-final destinations are stored unconditionally
// since they may still be needed to build a larger final program.
func (e *Enumerator) EnumerateUntilSize(maxSize int, keep Keeper) {
	for e.currentSize < maxSize {
		e.currentSize++
		if e.currentSize == 1 {
			e.enumerateSizeOne(keep)
		} else {
			e.enumerateSize(e.currentSize, keep)
		}
	}
}

func (e *Enumerator) enumerateSizeOne(keep Keeper) {
	for _, s := range e.states {
		rules := append([]automaton.Transition[string, term.Program](nil), e.grammar.Reversed(s)...)
		sortRules(rules)
		for _, r := range rules {
			if len(r.Args) != 0 {
				continue
			}
			letter := r.Letter
			if e.isPruned(letter) {
				continue
			}
			if e.grammar.IsFinal(s) {
				if keep(letter, s) {
					e.memory[s][1] = append(e.memory[s][1], letter)
				}
			} else {
				e.memory[s][1] = append(e.memory[s][1], letter)
			}
		}
	}
}

func (e *Enumerator) enumerateSize(size int, keep Keeper) {
	for _, s := range e.states {
		rules := append([]automaton.Transition[string, term.Program](nil), e.grammar.Reversed(s)...)
		sortRules(rules)
		for _, r := range rules {
			if len(r.Args) == 0 {
				continue
			}
			for _, combo := range e.combinations(r.Args, size-1) {
				program := term.NewApplication(r.Letter, append([]term.Program(nil), combo...))
				if e.isPruned(program) {
					continue
				}
				if e.grammar.IsFinal(s) {
					if keep(program, s) {
						e.memory[s][size] = append(e.memory[s][size], program)
					}
				} else {
					e.memory[s][size] = append(e.memory[s][size], program)
				}
			}
		}
	}
}

// combinations returns every argument-combination of arity len(args) whose
// programs' sizes partition to targetSize, memoized per args-tuple+size.
func (e *Enumerator) combinations(args []string, targetSize int) [][]term.Program {
	key := argsKey(args)
	if cached, ok := e.comboCache[key][targetSize]; ok {
		return cached
	}

	var out [][]term.Program
	for _, partition := range automaton.IntegerPartitions(len(args), targetSize) {
		slots := make([][]term.Program, len(args))
		empty := false
		for i, argState := range args {
			slots[i] = e.memory[argState][partition[i]]
			if len(slots[i]) == 0 {
				empty = true
				break
			}
		}
		if empty {
			continue
		}
		clusterBomb(slots, func(vector []term.Program) {
			out = append(out, append([]term.Program(nil), vector...))
		})
	}
	e.comboCache[key][targetSize] = out
	return out
}

// clusterBomb produces every combination choosing one element per slot, in
// strict slot order.
func clusterBomb(slots [][]term.Program, emit func([]term.Program)) {
	if len(slots) == 0 {
		return
	}
	vector := make([]term.Program, len(slots))
	var rec func(depth int)
	rec = func(depth int) {
		if depth == len(slots) {
			emit(vector)
			return
		}
		for _, v := range slots[depth] {
			vector[depth] = v
			rec(depth + 1)
		}
	}
	rec(0)
}
