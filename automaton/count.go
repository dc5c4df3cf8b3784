package automaton

// TreesBySize returns, for every size in [1, maxSize], a count of accepted
// trees of exactly that size: for each state and target size s, sum over each
// inbound rule the product of child counts at sizes drawn from an integer
// partition of s-1 across the rule's arity. IntegerPartitions yields only
// non-decreasing splits, so trees whose argument sizes decrease left to right
// are not counted; the count matches what the enumerator yields.
func (d *DFTA[State, Letter]) TreesBySize(maxSize int) map[int]int64 {
	states := d.States()
	count := make(map[State]map[int]int64, len(states))
	for s := range states {
		count[s] = make(map[int]int64, maxSize)
	}

	for size := 1; size <= maxSize; size++ {
		for s := range states {
			var total int64
			for _, r := range d.reversed[s] {
				if len(r.Args) == 0 {
					if size == 1 {
						total++
					}
					continue
				}
				for _, partition := range IntegerPartitions(len(r.Args), size-1) {
					sub := int64(1)
					for i, argSize := range partition {
						sub *= count[r.Args[i]][argSize]
						if sub == 0 {
							break
						}
					}
					total += sub
				}
			}
			count[s][size] = total
		}
	}

	out := make(map[int]int64, maxSize)
	for size := 1; size <= maxSize; size++ {
		var total int64
		for f := range d.finals {
			total += count[f][size]
		}
		out[size] = total
	}
	return out
}

// TreesAtSize returns the number of accepted trees of exactly the given size.
func (d *DFTA[State, Letter]) TreesAtSize(size int) int64 {
	return d.TreesBySize(size)[size]
}

// Unbounded reports whether the automaton's transition graph has a cycle
// reachable from a leaf (nullary) rule and leading to a final state, the
// structural signature of a grammar that can derive arbitrarily large trees.
func (d *DFTA[State, Letter]) Unbounded() bool {
	states := d.States()
	adjacency := make(map[State][]State)
	for _, r := range d.rules {
		for _, a := range r.Args {
			adjacency[a] = append(adjacency[a], r.Dst)
		}
	}

	onStack := make(map[State]bool)
	visited := make(map[State]bool)
	inCycle := make(map[State]bool)

	var dfs func(s State, stack []State)
	dfs = func(s State, stack []State) {
		visited[s] = true
		onStack[s] = true
		stack = append(stack, s)
		for _, next := range adjacency[s] {
			if onStack[next] {
				for i := len(stack) - 1; i >= 0; i-- {
					inCycle[stack[i]] = true
					if stack[i] == next {
						break
					}
				}
				continue
			}
			if !visited[next] {
				dfs(next, stack)
			}
		}
		onStack[s] = false
	}

	for s := range states {
		if !visited[s] {
			dfs(s, nil)
		}
	}
	if len(inCycle) == 0 {
		return false
	}

	// A cycling state is relevant only if it is reachable from some leaf and
	// can reach some final state.
	reachesFinal := make(map[State]bool)
	var canReach func(s State, seen map[State]bool) bool
	canReach = func(s State, seen map[State]bool) bool {
		if d.finals[s] {
			return true
		}
		if seen[s] {
			return false
		}
		seen[s] = true
		for _, next := range adjacency[s] {
			if canReach(next, seen) {
				return true
			}
		}
		return false
	}
	for s := range inCycle {
		if canReach(s, make(map[State]bool)) {
			reachesFinal[s] = true
		}
	}
	if len(reachesFinal) == 0 {
		return false
	}

	leaves := make(map[State]bool)
	for _, r := range d.rules {
		if len(r.Args) == 0 {
			leaves[r.Dst] = true
		}
	}
	for s := range reachesFinal {
		if reachableFromAny(leaves, s, adjacency) {
			return true
		}
	}
	return false
}

func reachableFromAny[State comparable](leaves map[State]bool, target State, adjacency map[State][]State) bool {
	visited := make(map[State]bool)
	var dfs func(s State) bool
	dfs = func(s State) bool {
		if s == target {
			return true
		}
		if visited[s] {
			return false
		}
		visited[s] = true
		for _, next := range adjacency[s] {
			if dfs(next) {
				return true
			}
		}
		return false
	}
	for leaf := range leaves {
		if dfs(leaf) {
			return true
		}
	}
	return false
}
