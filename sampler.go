// Package gpoe ties the core packages (loader, evaluator, constraints,
// pruner, loopmanager, automaton) into the end-to-end "prune" operation.
package gpoe

import (
	"fmt"

	"github.com/grapeloop/gpoe/evaluator"
)

// maxConsecutiveDuplicates bounds how long the sampler retries a type's
// generator before giving up and padding the suite by repetition.
const maxConsecutiveDuplicates = 100

// SampleInputs draws, for every type in sampleDict, up to n behaviorally
// distinct values (distinctness decided by equal[type], defaulting to Go
// equality) by repeatedly calling that type's zero-arg generator. A type
// that cannot produce n distinct values within maxConsecutiveDuplicates
// consecutive duplicate draws has its suite padded out to n by repeating
// already-drawn values.
func SampleInputs(sampleDict map[string]func() any, equal map[string]evaluator.EqualFunc, n int) (map[string][]any, error) {
	if n <= 0 {
		return nil, fmt.Errorf("gpoe: sample count must be positive, got %d", n)
	}
	out := make(map[string][]any, len(sampleDict))
	for typ, gen := range sampleDict {
		if gen == nil {
			return nil, fmt.Errorf("gpoe: type %q has a nil sample generator", typ)
		}
		eq := equal[typ]
		values := make([]any, 0, n)
		consecutiveDupes := 0
		for len(values) < n && consecutiveDupes < maxConsecutiveDuplicates {
			candidate := gen()
			if indexOfEqual(values, candidate, eq) >= 0 {
				consecutiveDupes++
				continue
			}
			values = append(values, candidate)
			consecutiveDupes = 0
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("gpoe: type %q produced no sample values", typ)
		}
		for i := 0; len(values) < n; i++ {
			values = append(values, values[i%len(values)])
		}
		out[typ] = values
	}
	return out, nil
}

func indexOfEqual(haystack []any, needle any, eq evaluator.EqualFunc) int {
	for i, v := range haystack {
		if eq != nil {
			if eq(v, needle) {
				return i
			}
			continue
		}
		if v == needle {
			return i
		}
	}
	return -1
}
