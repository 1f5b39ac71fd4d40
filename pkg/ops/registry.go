// Package ops implements Amorph's operator registry: for every
// built-in operator it records an arity class and a pure evaluator
// over already-evaluated argument values, mirroring the shape of
// graft's OperatorRegistry/OperatorInfoRegistry (pkg/graft/operator_registry.go)
// but replacing graft's merge-time operators (grab, concat, vault-try,
// ...) with Amorph's expression-language operator set.
package ops

import "fmt"

// ArityClass is one of fixed(n), ranged(lo,hi), or variadic(min).
type ArityClass struct {
	Kind string // "fixed", "ranged", "variadic"
	Lo   int
	Hi   int // only meaningful for "ranged"; -1 means unbounded
}

func Fixed(n int) ArityClass    { return ArityClass{Kind: "fixed", Lo: n, Hi: n} }
func Ranged(lo, hi int) ArityClass { return ArityClass{Kind: "ranged", Lo: lo, Hi: hi} }
func Variadic(min int) ArityClass { return ArityClass{Kind: "variadic", Lo: min, Hi: -1} }

// Accepts reports whether n arguments satisfy the arity class.
func (a ArityClass) Accepts(n int) bool {
	switch a.Kind {
	case "fixed":
		return n == a.Lo
	case "ranged":
		return n >= a.Lo && n <= a.Hi
	case "variadic":
		return n >= a.Lo
	default:
		return false
	}
}

func (a ArityClass) String() string {
	switch a.Kind {
	case "fixed":
		return fmt.Sprintf("exactly %d argument(s)", a.Lo)
	case "ranged":
		return fmt.Sprintf("between %d and %d argument(s)", a.Lo, a.Hi)
	case "variadic":
		return fmt.Sprintf("at least %d argument(s)", a.Lo)
	default:
		return "unknown arity"
	}
}

// Evaluator is a pure function over already-evaluated argument values.
type Evaluator func(args []interface{}) (interface{}, error)

// Operator is one registry entry.
type Operator struct {
	Name     string
	Class    string // "arith", "compare", "logic", "collection", "sequence", "io", "conversion"
	Arity    ArityClass
	Eval     Evaluator // nil for and/or and input, which the VM evaluates itself
	ShortCircuit bool  // true for and/or: the VM evaluates operands itself
}

// Registry maps operator identifiers to their Operator entry.
type Registry struct {
	ops map[string]*Operator
}

// NewRegistry builds the registry with every built-in operator
// registered, as graft's NewOperatorRegistry does from
// OperatorInfoRegistry.
func NewRegistry() *Registry {
	r := &Registry{ops: make(map[string]*Operator)}
	for _, op := range builtins() {
		o := op
		r.ops[o.Name] = &o
	}
	return r
}

// Normalize strips a namespace qualifier (`ns.op` -> `op`).
func Normalize(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

// Get looks up an operator by (possibly namespaced) name.
func (r *Registry) Get(name string) (*Operator, bool) {
	op, ok := r.ops[Normalize(name)]
	return op, ok
}

// Default is the process-wide default registry, built once.
var Default = NewRegistry()
