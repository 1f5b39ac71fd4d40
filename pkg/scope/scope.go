// Package scope implements Amorph's optional static scope analyzer: a
// lexical scope-chain walk (global -> function -> if-branch) that
// flags shadowed variables and reads/writes of names never defined in
// scope, independent of the semantic validator's symbol/arity checks.
package scope

import (
	"fmt"

	"github.com/amorph-lang/amorph/pkg/ast"
)

// Result holds the diagnostics a scope analysis pass produced.
type Result struct {
	Diagnostics []ast.Diagnostic
}

func (r *Result) OK() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == ast.SeverityError {
			return false
		}
	}
	return true
}

func (r *Result) add(code string, sev ast.Severity, path, hint, format string, args ...interface{}) {
	r.Diagnostics = append(r.Diagnostics, ast.Diagnostic{
		Code: code, Severity: sev, Path: path, Hint: hint,
		Message: fmt.Sprintf(format, args...),
	})
}

// chainScope is a compile-time scope: a set of defined names plus a
// parent, mirroring vm.Frame's shape but built from the AST rather
// than live execution.
type chainScope struct {
	names  map[string]bool
	parent *chainScope
}

func newScope(parent *chainScope) *chainScope {
	return &chainScope{names: map[string]bool{}, parent: parent}
}

func (s *chainScope) has(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.names[name] {
			return true
		}
	}
	return false
}

func (s *chainScope) definedInAncestor(name string) bool {
	for sc := s.parent; sc != nil; sc = sc.parent {
		if sc.names[name] {
			return true
		}
	}
	return false
}

// Analyze runs the scope walk described in spec.md §4.4.
func Analyze(prog *ast.Program) *Result {
	r := &Result{}
	global := newScope(nil)
	walkBody(prog.Body, global, ast.Root(), r)
	return r
}

func walkBody(stmts []interface{}, sc *chainScope, base *ast.Path, r *Result) {
	for i, stmt := range stmts {
		walkStmt(stmt, sc, base.Copy().PushIndex(i), r)
	}
}

func walkStmt(stmt ast.Node, sc *chainScope, path *ast.Path, r *Result) {
	_, key, payload, ok := ast.Discriminator(stmt)
	if !ok {
		return
	}
	p := path.Copy().Push(key)

	switch key {
	case "let":
		name, _ := ast.Field(payload, "name")
		n, _ := name.(string)
		if valueExpr, ok := ast.Field(payload, "value"); ok {
			walkExpr(valueExpr, sc, p.Copy().Push("value"), r)
		}
		if sc.definedInAncestor(n) {
			r.add(ast.WCodeVariableShadow, ast.SeverityWarning, p.String(), "",
				"let %q shadows a variable from an enclosing scope", n)
		}
		sc.names[n] = true

	case "set":
		name, _ := ast.Field(payload, "name")
		n, _ := name.(string)
		if valueExpr, ok := ast.Field(payload, "value"); ok {
			walkExpr(valueExpr, sc, p.Copy().Push("value"), r)
		}
		if !sc.has(n) {
			r.add(ast.ECodeUndefinedVar, ast.SeverityError, p.String(), "",
				"set: %q is not defined in any enclosing scope", n)
		}

	case "def":
		name, _ := ast.Field(payload, "name")
		n, _ := name.(string)
		sc.names[n] = true

		fnScope := newScope(nil) // function bodies do not inherit caller scope
		params, _ := ast.Field(payload, "params")
		if seq, ok := params.([]interface{}); ok {
			for _, pn := range seq {
				if s, ok := pn.(string); ok {
					fnScope.names[s] = true
				}
			}
		}
		if body, ok := ast.Field(payload, "body"); ok {
			if seq, ok := body.([]interface{}); ok {
				walkBody(seq, fnScope, p.Copy().Push("body"), r)
			}
		}

	case "if":
		cond, _ := ast.Field(payload, "cond")
		walkExpr(cond, sc, p.Copy().Push("cond"), r)
		if then, ok := ast.Field(payload, "then"); ok {
			if seq, ok := then.([]interface{}); ok {
				walkBody(seq, newScope(sc), p.Copy().Push("then"), r)
			}
		}
		if els, ok := ast.Field(payload, "else"); ok {
			if seq, ok := els.([]interface{}); ok {
				walkBody(seq, newScope(sc), p.Copy().Push("else"), r)
			}
		}

	case "return", "expr":
		walkExpr(payload, sc, p, r)

	case "print":
		if seq, ok := payload.([]interface{}); ok {
			for i, e := range seq {
				if _, k2, p2, ok := ast.Discriminator(e); ok && k2 == "spread" {
					walkExpr(p2, sc, p.Copy().PushIndex(i).Push("spread"), r)
					continue
				}
				walkExpr(e, sc, p.Copy().PushIndex(i), r)
			}
		}
	}
}

func walkExpr(n ast.Node, sc *chainScope, path *ast.Path, r *Result) {
	switch t := n.(type) {
	case []interface{}:
		for i, e := range t {
			walkExpr(e, sc, path.Copy().PushIndex(i), r)
		}
	case map[string]interface{}:
		_, key, payload, ok := ast.Discriminator(t)
		if !ok {
			return
		}
		p := path.Copy().Push(key)
		switch key {
		case "var":
			name, _ := payload.(string)
			if !sc.has(name) {
				r.add(ast.ECodeUndefinedVar, ast.SeverityError, path.String(),
					fmt.Sprintf("Add 'let %s' before use or check for typos", name),
					"undefined variable %q", name)
			}
		case "call":
			if args, ok := ast.Field(payload, "args"); ok {
				if seq, ok := args.([]interface{}); ok {
					for i, a := range seq {
						walkExpr(a, sc, p.Copy().Push("args").PushIndex(i), r)
					}
				}
			}
		default:
			switch pv := payload.(type) {
			case []interface{}:
				for i, o := range pv {
					walkExpr(o, sc, p.Copy().PushIndex(i), r)
				}
			case nil:
			default:
				walkExpr(pv, sc, p, r)
			}
		}
	}
}
