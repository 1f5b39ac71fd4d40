package ops

// builtins returns every registry entry, grouped the way spec.md §4.1
// groups them and graft's OperatorInfoRegistry lists operator metadata
// as one flat table.
func builtins() []Operator {
	return []Operator{
		// Arithmetic
		{Name: "add", Class: "arith", Arity: Variadic(2), Eval: evalAdd},
		{Name: "sub", Class: "arith", Arity: Fixed(2), Eval: evalSub},
		{Name: "mul", Class: "arith", Arity: Variadic(2), Eval: evalMul},
		{Name: "div", Class: "arith", Arity: Fixed(2), Eval: evalDiv},
		{Name: "mod", Class: "arith", Arity: Fixed(2), Eval: evalMod},
		{Name: "pow", Class: "arith", Arity: Fixed(2), Eval: evalPow},

		// Compare
		{Name: "eq", Class: "compare", Arity: Fixed(2), Eval: evalEq},
		{Name: "ne", Class: "compare", Arity: Fixed(2), Eval: evalNe},
		{Name: "lt", Class: "compare", Arity: Fixed(2), Eval: evalLt},
		{Name: "le", Class: "compare", Arity: Fixed(2), Eval: evalLe},
		{Name: "gt", Class: "compare", Arity: Fixed(2), Eval: evalGt},
		{Name: "ge", Class: "compare", Arity: Fixed(2), Eval: evalGe},

		// Logic — and/or are VM-level short-circuit special forms; no
		// pure Eval here, only arity metadata for the registry/validator.
		{Name: "and", Class: "logic", Arity: Variadic(1), ShortCircuit: true},
		{Name: "or", Class: "logic", Arity: Variadic(1), ShortCircuit: true},
		{Name: "not", Class: "logic", Arity: Fixed(1), Eval: evalNot},

		// Collection
		{Name: "list", Class: "collection", Arity: Variadic(0), Eval: evalList},
		{Name: "len", Class: "collection", Arity: Fixed(1), Eval: evalLen},
		{Name: "get", Class: "collection", Arity: Fixed(2), Eval: evalGet},
		{Name: "has", Class: "collection", Arity: Fixed(2), Eval: evalHas},
		{Name: "concat", Class: "collection", Arity: Variadic(2), Eval: evalConcat},

		// Sequence
		{Name: "range", Class: "sequence", Arity: Ranged(1, 2), Eval: evalRange},

		// I/O — input needs the VM's IO backend, so (like and/or) it is
		// a VM-level special form; only arity metadata lives here.
		{Name: "input", Class: "io", Arity: Ranged(0, 1)},

		// Conversion
		{Name: "int", Class: "conversion", Arity: Fixed(1), Eval: evalInt},
	}
}
