package edit

import (
	"github.com/amorph-lang/amorph/pkg/ast"
)

// renameVariable walks working the same way refactor.FindVariableReferences
// does, but mutates each matching let/set/var/parameter name in place
// instead of merely recording it, restricted to scope and (optionally)
// to the subtree rooted at restrict.
func renameVariable(working *ast.Program, oldName, newName, scope, restrict string) int {
	var restrictPath *ast.Path
	if restrict != "" {
		if p, err := ast.ParsePath(restrict); err == nil {
			restrictPath = p
		}
	}
	r := &renamer{old: oldName, new: newName, scope: scope, restrict: restrictPath}
	r.walkBody(working.Body, &renScope{}, ast.Root())
	return r.count
}

type renScope struct {
	id     string
	parent *renScope
}

type renamer struct {
	old, new string
	scope    string
	restrict *ast.Path
	count    int
}

func (r *renamer) included(sc *renScope, path *ast.Path) bool {
	if r.scope != "" && r.scope != "all" && sc.id != r.scope {
		return false
	}
	if r.restrict != nil && !(path.Under(r.restrict) || samePath(path, r.restrict)) {
		return false
	}
	return true
}

func samePath(a, b *ast.Path) bool {
	if len(a.Segments) != len(b.Segments) {
		return false
	}
	for i := range a.Segments {
		if a.Segments[i] != b.Segments[i] {
			return false
		}
	}
	return true
}

func (r *renamer) walkBody(stmts []interface{}, sc *renScope, base *ast.Path) {
	for i, stmt := range stmts {
		r.walkStmt(stmt, sc, base.Copy().PushIndex(i))
	}
}

func (r *renamer) walkStmt(stmt ast.Node, sc *renScope, path *ast.Path) {
	m, ok := stmt.(map[string]interface{})
	if !ok {
		return
	}
	id, key, payload, ok := ast.Discriminator(m)
	if !ok {
		return
	}
	p := path.Copy().Push(key)
	payloadMap, _ := payload.(map[string]interface{})

	switch key {
	case "let", "set":
		if payloadMap != nil {
			if v, ok := payloadMap["value"]; ok {
				r.walkExpr(v, sc, p.Copy().Push("value"))
			}
			if n, _ := payloadMap["name"].(string); n == r.old && r.included(sc, p) {
				payloadMap["name"] = r.new
				r.count++
			}
		}

	case "def":
		fnID := id
		if fnID == "" && payloadMap != nil {
			fnID, _ = payloadMap["name"].(string)
		}
		fnScope := &renScope{id: fnID}
		if payloadMap != nil {
			if seq, ok := payloadMap["params"].([]interface{}); ok {
				for i, pn := range seq {
					if s, ok := pn.(string); ok && s == r.old {
						paramPath := p.Copy().Push("params").PushIndex(i)
						if r.included(fnScope, paramPath) {
							seq[i] = r.new
							r.count++
						}
					}
				}
			}
			if seq, ok := payloadMap["body"].([]interface{}); ok {
				r.walkBody(seq, fnScope, p.Copy().Push("body"))
			}
		}

	case "if":
		if payloadMap != nil {
			if cond, ok := payloadMap["cond"]; ok {
				r.walkExpr(cond, sc, p.Copy().Push("cond"))
			}
			if seq, ok := payloadMap["then"].([]interface{}); ok {
				r.walkBody(seq, sc, p.Copy().Push("then"))
			}
			if seq, ok := payloadMap["else"].([]interface{}); ok {
				r.walkBody(seq, sc, p.Copy().Push("else"))
			}
		}

	case "return", "expr":
		r.walkExpr(payload, sc, p)

	case "print":
		if seq, ok := payload.([]interface{}); ok {
			for i, e := range seq {
				if _, k2, p2, ok := ast.Discriminator(e); ok && k2 == "spread" {
					r.walkExpr(p2, sc, p.Copy().PushIndex(i).Push("spread"))
					continue
				}
				r.walkExpr(e, sc, p.Copy().PushIndex(i))
			}
		}
	}
}

func (r *renamer) walkExpr(n ast.Node, sc *renScope, path *ast.Path) {
	switch t := n.(type) {
	case []interface{}:
		for i, e := range t {
			r.walkExpr(e, sc, path.Copy().PushIndex(i))
		}
	case map[string]interface{}:
		_, key, payload, ok := ast.Discriminator(t)
		if !ok {
			return
		}
		p := path.Copy().Push(key)
		switch key {
		case "var":
			if s, _ := payload.(string); s == r.old && r.included(sc, p) {
				t[key] = r.new
				r.count++
			}
		case "call":
			if args, ok := ast.Field(payload, "args"); ok {
				if seq, ok := args.([]interface{}); ok {
					for i, a := range seq {
						r.walkExpr(a, sc, p.Copy().Push("args").PushIndex(i))
					}
				}
			}
		default:
			switch pv := payload.(type) {
			case []interface{}:
				for i, o := range pv {
					r.walkExpr(o, sc, p.Copy().PushIndex(i))
				}
			case nil:
			default:
				r.walkExpr(pv, sc, p)
			}
		}
	}
}
