// Package term implements the immutable program terms produced by the DSL:
// variables, primitives, and applications. Terms are value-equal iff
// structurally equal, and hashing is stable across runs so terms can be
// interned and used as map keys without pointer-identity games.
package term

import (
	"fmt"
	"strconv"
	"strings"
)

// Program is the sum type of the three term shapes the DSL can produce.
type Program interface {
	fmt.Stringer
	// Size returns 1 for Variable/Primitive, and size(head)+sum(size(args)) for Application.
	Size() int
	// Hash is stable across runs for structurally equal terms.
	Hash() uint64
	// Equal reports structural equality.
	Equal(other Program) bool
	// Embeds reports whether this term embeds into other (see the Embeds
	// methods below for the embedding partial order).
	Embeds(other Program) bool
	usedVars(used map[int]bool) bool
}

// Variable refers to the n-th argument of the top-level type being synthesized.
type Variable struct {
	No int
}

// Primitive is a DSL entry referenced by name.
type Primitive struct {
	Name string
}

// Application applies Head (usually a Primitive) to a non-empty ordered list of arguments.
type Application struct {
	Head Program
	Args []Program
}

func (v Variable) String() string { return "var" + strconv.Itoa(v.No) }
func (p Primitive) String() string { return p.Name }
func (a Application) String() string {
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = arg.String()
	}
	return "(" + a.Head.String() + " " + strings.Join(parts, " ") + ")"
}

func (v Variable) Size() int { return 1 }
func (p Primitive) Size() int { return 1 }
func (a Application) Size() int {
	total := a.Head.Size()
	for _, arg := range a.Args {
		total += arg.Size()
	}
	return total
}

// hashSeed is an FNV-1a offset basis; combine folds further values into a
// running hash, keeping term hashes stable across runs.
const hashSeed uint64 = 14695981039346656037
const hashPrime uint64 = 1099511628211

func combine(h uint64, x uint64) uint64 {
	h ^= x
	h *= hashPrime
	return h
}

func hashString(s string) uint64 {
	h := hashSeed
	for i := 0; i < len(s); i++ {
		h = combine(h, uint64(s[i]))
	}
	return h
}

func (v Variable) Hash() uint64 { return combine(hashSeed, uint64(v.No)+1) }
func (p Primitive) Hash() uint64 { return combine(hashSeed^0x5a17, hashString(p.Name)) }
func (a Application) Hash() uint64 {
	h := combine(hashSeed^0xa11ca7, a.Head.Hash())
	for _, arg := range a.Args {
		h = combine(h, arg.Hash())
	}
	return h
}

func (v Variable) Equal(other Program) bool {
	o, ok := other.(Variable)
	return ok && o.No == v.No
}

func (p Primitive) Equal(other Program) bool {
	o, ok := other.(Primitive)
	return ok && o.Name == p.Name
}

func (a Application) Equal(other Program) bool {
	o, ok := other.(Application)
	if !ok || len(o.Args) != len(a.Args) || !a.Head.Equal(o.Head) {
		return false
	}
	for i := range a.Args {
		if !a.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Embeds implements the embedding partial order: a Variable embeds into anything,
// a Primitive embeds only into an identical Primitive, and an Application embeds
// componentwise into another Application of the same arity.
func (v Variable) Embeds(Program) bool { return true }

func (p Primitive) Embeds(other Program) bool {
	o, ok := other.(Primitive)
	return ok && o.Name == p.Name
}

func (a Application) Embeds(other Program) bool {
	o, ok := other.(Application)
	if !ok || len(o.Args) != len(a.Args) {
		return false
	}
	if !a.Head.Embeds(o.Head) {
		return false
	}
	for i := range a.Args {
		if !a.Args[i].Embeds(o.Args[i]) {
			return false
		}
	}
	return true
}

func (v Variable) usedVars(used map[int]bool) bool {
	if used[v.No] {
		return true
	}
	used[v.No] = true
	return false
}

func (p Primitive) usedVars(map[int]bool) bool { return false }

func (a Application) usedVars(used map[int]bool) bool {
	if a.Head.usedVars(used) {
		return true
	}
	for _, arg := range a.Args {
		if arg.usedVars(used) {
			return true
		}
	}
	return false
}

// SameVarUsedMoreThanOnce reports whether p is non-linear (some variable index
// appears more than once) and returns the set of variable indices seen.
func SameVarUsedMoreThanOnce(p Program) (bool, map[int]bool) {
	used := make(map[int]bool)
	repeated := p.usedVars(used)
	return repeated, used
}

// Linear reports that each variable index appears at most once in p.
func Linear(p Program) bool {
	repeated, _ := SameVarUsedMoreThanOnce(p)
	return !repeated
}

// NewApplication builds an Application, panicking if args is empty since the
// term model requires a non-empty argument list for every application.
func NewApplication(head Program, args []Program) Application {
	if len(args) == 0 {
		panic("term: application requires a non-empty argument list")
	}
	return Application{Head: head, Args: args}
}
