// Package constraints discovers small forbidden sub-patterns of the DSL:
// rewrite rules "pattern => canonical" where the canonical program embeds
// into the pattern and the two evaluate identically on every sample input.
// Any program containing such a pattern is provably equivalent, on the
// sample, to one with the canonical substituted in its place, so downstream
// pruning may forbid the pattern as a sub-tree outright.
package constraints

import (
	"sort"

	"github.com/grapeloop/gpoe/automaton"
	"github.com/grapeloop/gpoe/enumerator"
	"github.com/grapeloop/gpoe/evaluator"
	"github.com/grapeloop/gpoe/term"
)

// Pattern is a forbidden sub-tree: any program containing Pattern as a
// sub-term is provably equivalent, on the sample, to one with Canonical
// substituted in its place.
type Pattern struct {
	Pattern   term.Program
	Canonical term.Program
}

// Finder scans a seed automaton at small sizes to discover Patterns.
type Finder struct {
	eval    *evaluator.Evaluator
	maxSize int
}

// New builds a Finder that searches programs up to maxSize (3 by default).
func New(eval *evaluator.Evaluator, maxSize int) *Finder {
	if maxSize <= 0 {
		maxSize = 3
	}
	return &Finder{eval: eval, maxSize: maxSize}
}

type candidate struct {
	program term.Program
	state   string
	sig     evaluator.Signature
}

// Find enumerates every program of size <= f.maxSize accepted by grammar,
// and for each pair (small, large) sharing a destination state where
// small.Size() < large.Size(), small embeds into large, and their
// signatures agree, records large => small as a forbidden pattern: the
// larger, redundant shape is forbidden and the smaller survives as
// canonical. typeOf maps a destination state to the return type used to
// look up sample inputs and select an equality predicate.
func (f *Finder) Find(grammar *automaton.DFTA[string, term.Program], typeOf func(state string) string) []Pattern {
	var all []candidate
	enum := enumerator.New(grammar, nil)
	enum.EnumerateUntilSize(f.maxSize, func(program term.Program, state string) bool {
		sig, err := f.eval.Signature(program, typeOf(state))
		if err != nil {
			// A fatal evaluation error disqualifies the candidate from the
			// pattern search but must not abort the scan.
			return true
		}
		all = append(all, candidate{program: program, state: state, sig: sig})
		return true
	})

	sort.SliceStable(all, func(i, j int) bool { return all[i].program.Size() < all[j].program.Size() })

	var patterns []Pattern
	for i, small := range all {
		for j := i + 1; j < len(all); j++ {
			large := all[j]
			if large.state != small.state {
				continue
			}
			if large.program.Size() <= small.program.Size() {
				continue
			}
			if !small.program.Embeds(large.program) {
				continue
			}
			if !f.eval.Equal(small.sig, large.sig) {
				continue
			}
			patterns = append(patterns, Pattern{Pattern: large.program, Canonical: small.program})
		}
	}
	return patterns
}

// Forbids reports whether program contains any of patterns as a sub-term.
func Forbids(program term.Program, patterns []Pattern) bool {
	for _, p := range patterns {
		if structurallyContains(program, p.Pattern) {
			return true
		}
	}
	return false
}

// structurallyContains walks program looking for any sub-term structurally
// equal to pattern.
func structurallyContains(program, pattern term.Program) bool {
	if program.Equal(pattern) {
		return true
	}
	app, ok := program.(term.Application)
	if !ok {
		return false
	}
	if structurallyContains(app.Head, pattern) {
		return true
	}
	for _, a := range app.Args {
		if structurallyContains(a, pattern) {
			return true
		}
	}
	return false
}
