// Package typesys parses the arrow-type language used by DSL entries and
// expands polymorphic/sum-typed schemas into the cross-product of monomorphic
// variants.
package typesys

import (
	"fmt"
	"strings"
)

// Type is a parsed arrow sequence t1 -> t2 -> ... -> tn -> r.
type Type struct {
	raw string
	seq []string
}

// Parse splits a raw arrow-type string into its segments without resolving
// polymorphism or sums; use AllVariants first if the schema declares either.
func Parse(typeReq string) Type {
	parts := strings.Split(typeReq, "->")
	seq := make([]string, len(parts))
	for i, p := range parts {
		seq[i] = strings.TrimSpace(p)
	}
	return Type{raw: typeReq, seq: seq}
}

// ArgTypes returns the argument types (everything but the last arrow segment).
func (t Type) ArgTypes() []string {
	if len(t.seq) == 0 {
		return nil
	}
	return t.seq[:len(t.seq)-1]
}

// ReturnType returns the last arrow segment.
func (t Type) ReturnType() string {
	if len(t.seq) == 0 {
		return ""
	}
	return t.seq[len(t.seq)-1]
}

// Arity is the number of arguments the type takes before reaching its return type.
func (t Type) Arity() int { return len(t.seq) - 1 }

func (t Type) String() string { return strings.Join(t.seq, " -> ") }

// possibleSet tracks, for each polymorphic/sum segment, its declared branch
// list, in the order first seen, so expansion order is deterministic.
type possibleSet struct {
	order  []string
	values map[string][]string
}

// AllVariants expands a schema with polymorphic placeholders (`'name[a|b|c]`
// declaration, `'name` reuse) and sum types (`a|b|c`) into the Cartesian
// product of monomorphic arrow-type strings, substituted consistently.
func AllVariants(typeReq string) ([]string, error) {
	parts := strings.Split(typeReq, "->")
	names := make([]string, len(parts))
	possibles := &possibleSet{values: map[string][]string{}}

	for i, raw := range parts {
		el := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(el, "'"):
			if idx := strings.IndexByte(el, '['); idx >= 0 {
				if !strings.HasSuffix(el, "]") {
					return nil, fmt.Errorf("typesys: malformed polymorphic declaration %q", el)
				}
				name := strings.TrimSpace(el[1:idx])
				sumExpr := el[idx+1 : len(el)-1]
				variants, err := AllVariants(sumExpr)
				if err != nil {
					return nil, err
				}
				if _, seen := possibles.values[name]; !seen {
					possibles.order = append(possibles.order, name)
				}
				possibles.values[name] = variants
				names[i] = name
			} else {
				name := strings.TrimSpace(el[1:])
				if _, declared := possibles.values[name]; !declared {
					return nil, fmt.Errorf("typesys: polymorphic name '%s used before definition! defined: %s", name, strings.Join(possibles.order, ", "))
				}
				names[i] = name
			}
		case strings.Contains(el, "|"):
			key := fmt.Sprintf("#%d", i)
			branches := splitTrim(el, "|")
			possibles.values[key] = branches
			possibles.order = append(possibles.order, key)
			names[i] = key
		default:
			key := fmt.Sprintf("#%d", i)
			possibles.values[key] = []string{el}
			possibles.order = append(possibles.order, key)
			names[i] = key
		}
	}

	configs := cartesianProduct(possibles.order, possibles.values)
	out := make([]string, 0, len(configs))
	for _, cfg := range configs {
		segs := make([]string, len(names))
		for i, n := range names {
			segs[i] = cfg[n]
		}
		out = append(out, strings.Join(segs, " -> "))
	}
	return out, nil
}

func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// cartesianProduct enumerates every assignment of one branch per name, in the
// declaration order recorded by order, producing deterministic output order.
func cartesianProduct(order []string, values map[string][]string) []map[string]string {
	if len(order) == 0 {
		return []map[string]string{{}}
	}
	first, rest := order[0], order[1:]
	tails := cartesianProduct(rest, values)
	out := make([]map[string]string, 0, len(values[first])*len(tails))
	for _, v := range values[first] {
		for _, tail := range tails {
			cfg := map[string]string{first: v}
			for k, val := range tail {
				cfg[k] = val
			}
			out = append(out, cfg)
		}
	}
	return out
}
