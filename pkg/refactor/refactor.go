// Package refactor implements the shared primitives behind Amorph's
// variable-rename and function-extraction edit operations: reference
// tracking over a lexical scope walk, and free-variable analysis of a
// statement block.
package refactor

import (
	"github.com/amorph-lang/amorph/pkg/ast"
)

// ReferenceKind classifies one located reference to a variable name.
type ReferenceKind string

const (
	KindDefinition ReferenceKind = "definition"
	KindWrite      ReferenceKind = "write"
	KindRead       ReferenceKind = "read"
	KindParameter  ReferenceKind = "parameter"
)

// Reference is one located occurrence of a variable name.
type Reference struct {
	Path    string
	Kind    ReferenceKind
	ScopeID string
}

// refScope is a lexical scope during the reference-finding walk. id is
// "" for the global scope, a function's id (or name, if it has no id)
// when entering a def body, and the enclosing scope's id inside an
// if branch, matching the
// `scope∈{"all", <function-id>}` targeting vocabulary of the edit
// engine.
type refScope struct {
	id     string
	parent *refScope
}

// FindVariableReferences locates every definition, write, read, and
// parameter occurrence of name in prog, filtered to scope ("all"
// matches everywhere; any other value matches only occurrences whose
// nearest enclosing function id/name equals it).
func FindVariableReferences(prog *ast.Program, name, scope string) []Reference {
	f := &finder{name: name, scope: scope}
	f.walkBody(prog.Body, &refScope{}, ast.Root())
	return f.out
}

type finder struct {
	name  string
	scope string
	out   []Reference
}

func (f *finder) include(sc *refScope) bool {
	return f.scope == "" || f.scope == "all" || sc.id == f.scope
}

func (f *finder) record(sc *refScope, kind ReferenceKind, path *ast.Path) {
	if !f.include(sc) {
		return
	}
	f.out = append(f.out, Reference{Path: path.String(), Kind: kind, ScopeID: sc.id})
}

func (f *finder) walkBody(stmts []interface{}, sc *refScope, base *ast.Path) {
	for i, stmt := range stmts {
		f.walkStmt(stmt, sc, base.Copy().PushIndex(i))
	}
}

func (f *finder) walkStmt(stmt ast.Node, sc *refScope, path *ast.Path) {
	id, key, payload, ok := ast.Discriminator(stmt)
	if !ok {
		return
	}
	p := path.Copy().Push(key)

	switch key {
	case "let":
		n, _ := ast.Field(payload, "name")
		if valueExpr, ok := ast.Field(payload, "value"); ok {
			f.walkExpr(valueExpr, sc, p.Copy().Push("value"))
		}
		if s, _ := n.(string); s == f.name {
			f.record(sc, KindDefinition, p)
		}

	case "set":
		n, _ := ast.Field(payload, "name")
		if valueExpr, ok := ast.Field(payload, "value"); ok {
			f.walkExpr(valueExpr, sc, p.Copy().Push("value"))
		}
		if s, _ := n.(string); s == f.name {
			f.record(sc, KindWrite, p)
		}

	case "def":
		fnID := id
		if fnID == "" {
			pid, _ := ast.Field(payload, "id")
			fnID, _ = pid.(string)
		}
		if fnID == "" {
			if n, _ := ast.Field(payload, "name"); n != nil {
				fnID, _ = n.(string)
			}
		}
		fnScope := &refScope{id: fnID}

		params, _ := ast.Field(payload, "params")
		if seq, ok := params.([]interface{}); ok {
			for i, pn := range seq {
				if s, ok := pn.(string); ok && s == f.name {
					f.record(fnScope, KindParameter, p.Copy().Push("params").PushIndex(i))
				}
			}
		}
		if body, ok := ast.Field(payload, "body"); ok {
			if seq, ok := body.([]interface{}); ok {
				f.walkBody(seq, fnScope, p.Copy().Push("body"))
			}
		}

	case "if":
		if cond, ok := ast.Field(payload, "cond"); ok {
			f.walkExpr(cond, sc, p.Copy().Push("cond"))
		}
		if then, ok := ast.Field(payload, "then"); ok {
			if seq, ok := then.([]interface{}); ok {
				f.walkBody(seq, sc, p.Copy().Push("then"))
			}
		}
		if els, ok := ast.Field(payload, "else"); ok {
			if seq, ok := els.([]interface{}); ok {
				f.walkBody(seq, sc, p.Copy().Push("else"))
			}
		}

	case "return", "expr":
		f.walkExpr(payload, sc, p)

	case "print":
		if seq, ok := payload.([]interface{}); ok {
			for i, e := range seq {
				if _, k2, p2, ok := ast.Discriminator(e); ok && k2 == "spread" {
					f.walkExpr(p2, sc, p.Copy().PushIndex(i).Push("spread"))
					continue
				}
				f.walkExpr(e, sc, p.Copy().PushIndex(i))
			}
		}
	}
}

func (f *finder) walkExpr(n ast.Node, sc *refScope, path *ast.Path) {
	switch t := n.(type) {
	case []interface{}:
		for i, e := range t {
			f.walkExpr(e, sc, path.Copy().PushIndex(i))
		}
	case map[string]interface{}:
		_, key, payload, ok := ast.Discriminator(t)
		if !ok {
			return
		}
		p := path.Copy().Push(key)
		switch key {
		case "var":
			if s, _ := payload.(string); s == f.name {
				f.record(sc, KindRead, p)
			}
		case "call":
			if args, ok := ast.Field(payload, "args"); ok {
				if seq, ok := args.([]interface{}); ok {
					for i, a := range seq {
						f.walkExpr(a, sc, p.Copy().Push("args").PushIndex(i))
					}
				}
			}
		default:
			switch pv := payload.(type) {
			case []interface{}:
				for i, o := range pv {
					f.walkExpr(o, sc, p.Copy().PushIndex(i))
				}
			case nil:
			default:
				f.walkExpr(pv, sc, p)
			}
		}
	}
}

// AnalyzeFreeVariables returns, in first-read order, the names read or
// written inside stmts that are not defined (by let, def, or function
// parameter) within stmts itself. A read that comes before the name's
// definition in the same block is still free, matching the VM's
// sequential-definition execution order.
func AnalyzeFreeVariables(stmts []interface{}) []string {
	a := &freeAnalyzer{defined: map[string]bool{}, free: map[string]bool{}}
	a.walkBody(stmts)
	return a.order
}

type freeAnalyzer struct {
	defined map[string]bool
	free    map[string]bool
	order   []string
}

func (a *freeAnalyzer) markFree(name string) {
	if name == "" || a.defined[name] || a.free[name] {
		return
	}
	a.free[name] = true
	a.order = append(a.order, name)
}

func (a *freeAnalyzer) walkBody(stmts []interface{}) {
	for _, stmt := range stmts {
		a.walkStmt(stmt)
	}
}

func (a *freeAnalyzer) walkStmt(stmt ast.Node) {
	_, key, payload, ok := ast.Discriminator(stmt)
	if !ok {
		return
	}
	switch key {
	case "let":
		if valueExpr, ok := ast.Field(payload, "value"); ok {
			a.walkExpr(valueExpr)
		}
		n, _ := ast.Field(payload, "name")
		if s, ok := n.(string); ok {
			a.defined[s] = true
		}
	case "set":
		if valueExpr, ok := ast.Field(payload, "value"); ok {
			a.walkExpr(valueExpr)
		}
		n, _ := ast.Field(payload, "name")
		if s, ok := n.(string); ok {
			a.markFree(s)
		}
	case "def":
		n, _ := ast.Field(payload, "name")
		if s, ok := n.(string); ok {
			a.defined[s] = true
		}
		// The function body is its own scope; it is never inspected
		// for free variables of the *enclosing* block.
	case "if":
		if cond, ok := ast.Field(payload, "cond"); ok {
			a.walkExpr(cond)
		}
		if then, ok := ast.Field(payload, "then"); ok {
			if seq, ok := then.([]interface{}); ok {
				a.walkBody(seq)
			}
		}
		if els, ok := ast.Field(payload, "else"); ok {
			if seq, ok := els.([]interface{}); ok {
				a.walkBody(seq)
			}
		}
	case "return", "expr":
		a.walkExpr(payload)
	case "print":
		if seq, ok := payload.([]interface{}); ok {
			for _, e := range seq {
				if _, k2, p2, ok := ast.Discriminator(e); ok && k2 == "spread" {
					a.walkExpr(p2)
					continue
				}
				a.walkExpr(e)
			}
		}
	}
}

func (a *freeAnalyzer) walkExpr(n ast.Node) {
	switch t := n.(type) {
	case []interface{}:
		for _, e := range t {
			a.walkExpr(e)
		}
	case map[string]interface{}:
		_, key, payload, ok := ast.Discriminator(t)
		if !ok {
			return
		}
		switch key {
		case "var":
			if s, ok := payload.(string); ok {
				a.markFree(s)
			}
		case "call":
			if args, ok := ast.Field(payload, "args"); ok {
				if seq, ok := args.([]interface{}); ok {
					for _, arg := range seq {
						a.walkExpr(arg)
					}
				}
			}
		default:
			switch pv := payload.(type) {
			case []interface{}:
				for _, o := range pv {
					a.walkExpr(o)
				}
			case nil:
			default:
				a.walkExpr(pv)
			}
		}
	}
}
