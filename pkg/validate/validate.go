// Package validate implements Amorph's semantic validator: structural
// shape checking, symbol resolution, and operator arity checking,
// collecting diagnostics without stopping at the first issue — the
// same "accumulate, never abort" discipline graft's MultiError and
// DataFlow error accumulation use, applied to static analysis instead
// of merge-time evaluation.
package validate

import (
	"fmt"

	"github.com/amorph-lang/amorph/pkg/ast"
	"github.com/amorph-lang/amorph/pkg/ops"
)

// Result holds every diagnostic a Validate pass produced.
type Result struct {
	Diagnostics []ast.Diagnostic
}

// OK reports whether no error-severity diagnostic was produced.
// Warnings do not affect OK.
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
		Code:     code,
		Severity: sev,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
		Hint:     hint,
	})
}

type funcSym struct {
	name, id string
	path     string
}

// Validate runs every check in spec.md §4.3 over prog.
func Validate(prog *ast.Program, reg *ops.Registry) *Result {
	r := &Result{}
	v := &validator{prog: prog, reg: reg, result: r, byName: map[string][]funcSym{}, byID: map[string][]funcSym{}}
	v.buildSymbolTable()
	v.checkDuplicates()
	v.walkBody(prog.Body, ast.Root())
	if v.sawIDCall && v.sawNameCall {
		r.add(ast.WCodeMixedCallStyle, ast.SeverityWarning, "/", "", "program mixes id-based and name-based calls")
	}
	return r
}

type validator struct {
	prog   *ast.Program
	reg    *ops.Registry
	result *Result

	byName map[string][]funcSym
	byID   map[string][]funcSym

	sawIDCall, sawNameCall bool
}

func (v *validator) buildSymbolTable() {
	for i, stmt := range v.prog.Body {
		id, key, payload, ok := ast.Discriminator(stmt)
		if !ok || key != "def" {
			continue
		}
		path := ast.Root().PushIndex(i).String()
		if id == "" {
			pid, _ := ast.Field(payload, "id")
			id, _ = pid.(string)
		}
		name, _ := ast.Field(payload, "name")
		n, _ := name.(string)
		sym := funcSym{name: n, id: id, path: path}
		if n != "" {
			v.byName[n] = append(v.byName[n], sym)
		}
		if id != "" {
			v.byID[id] = append(v.byID[id], sym)
		}
	}
}

func (v *validator) checkDuplicates() {
	for name, syms := range v.byName {
		if len(syms) > 1 {
			v.result.add(ast.WCodeDuplicateName, ast.SeverityWarning, syms[len(syms)-1].path, "",
				"duplicate top-level function name %q", name)
		}
	}
	for id, syms := range v.byID {
		if len(syms) > 1 {
			v.result.add(ast.ECodeDuplicateID, ast.SeverityError, syms[len(syms)-1].path, "",
				"duplicate id %q", id)
		}
	}
}

// walkBody validates a statement sequence (program body, an if-branch,
// or a function body).
func (v *validator) walkBody(stmts []interface{}, base *ast.Path) {
	for i, stmt := range stmts {
		v.walkStmt(stmt, base.Copy().PushIndex(i))
	}
}

func (v *validator) walkStmt(stmt ast.Node, path *ast.Path) {
	_, key, payload, ok := ast.Discriminator(stmt)
	if !ok {
		v.result.add(ast.ECodeShape, ast.SeverityError, path.String(), "", "not a valid statement node")
		return
	}
	p := path.Copy().Push(key)

	switch key {
	case "let", "set":
		valueExpr, _ := ast.Field(payload, "value")
		v.walkExpr(valueExpr, p.Copy().Push("value"))
	case "def":
		body, _ := ast.Field(payload, "body")
		if seq, ok := body.([]interface{}); ok {
			v.walkBody(seq, p.Copy().Push("body"))
		}
	case "if":
		cond, _ := ast.Field(payload, "cond")
		v.walkExpr(cond, p.Copy().Push("cond"))
		if then, ok := ast.Field(payload, "then"); ok {
			if seq, ok := then.([]interface{}); ok {
				v.walkBody(seq, p.Copy().Push("then"))
			}
		}
		if els, ok := ast.Field(payload, "else"); ok {
			if seq, ok := els.([]interface{}); ok {
				v.walkBody(seq, p.Copy().Push("else"))
			}
		}
	case "return", "expr":
		v.walkExpr(payload, p)
	case "print":
		if seq, ok := payload.([]interface{}); ok {
			for i, e := range seq {
				if _, k2, p2, ok := ast.Discriminator(e); ok && k2 == "spread" {
					v.walkExpr(p2, p.Copy().PushIndex(i).Push("spread"))
					continue
				}
				v.walkExpr(e, p.Copy().PushIndex(i))
			}
		}
	default:
		v.result.add(ast.ECodeShape, ast.SeverityError, p.String(), "", "unknown statement kind %q", key)
	}
}

func (v *validator) walkExpr(n ast.Node, path *ast.Path) {
	switch t := n.(type) {
	case nil, bool, int64, float64, string:
		return
	case []interface{}:
		for i, e := range t {
			v.walkExpr(e, path.Copy().PushIndex(i))
		}
	case map[string]interface{}:
		_, key, payload, ok := ast.Discriminator(t)
		if !ok {
			v.result.add(ast.ECodeShape, ast.SeverityError, path.String(), "", "not a valid expression node")
			return
		}
		p := path.Copy().Push(key)
		switch key {
		case "var":
			// resolved by the scope package; nothing to check here.
		case "call":
			v.walkCall(payload, p)
		default:
			v.walkOperator(key, payload, p)
		}
	}
}

func (v *validator) walkCall(payload ast.Node, path *ast.Path) {
	idField, _ := ast.Field(payload, "id")
	nameField, _ := ast.Field(payload, "name")
	argsField, _ := ast.Field(payload, "args")

	id, hasID := idField.(string)
	name, hasName := nameField.(string)

	resolved := false
	if hasID && id != "" {
		v.sawIDCall = true
		if _, ok := v.byID[id]; ok {
			resolved = true
		}
	} else if hasName && name != "" {
		v.sawNameCall = true
		if syms, ok := v.byName[name]; ok && len(syms) > 0 {
			resolved = true
			if _, hasAnID := v.idForName(name); hasAnID {
				v.result.add(ast.WCodePreferID, ast.SeverityWarning, path.String(),
					"call by id instead of name for stable addressing",
					"call to %q resolves by name though an id is available", name)
			}
		}
	}
	if !resolved {
		v.result.add(ast.ECodeUnknownFunc, ast.SeverityError, path.String(), "", "call does not resolve to any known function")
	}

	if seq, ok := argsField.([]interface{}); ok {
		for i, a := range seq {
			v.walkExpr(a, path.Copy().Push("args").PushIndex(i))
		}
	}
}

func (v *validator) idForName(name string) (string, bool) {
	syms, ok := v.byName[name]
	if !ok {
		return "", false
	}
	for _, s := range syms {
		if s.id != "" {
			return s.id, true
		}
	}
	return "", false
}

func (v *validator) walkOperator(key string, payload ast.Node, path *ast.Path) {
	name := ops.Normalize(key)
	op, ok := v.reg.Get(name)
	if !ok {
		v.result.add(ast.ECodeUnknownOp, ast.SeverityError, path.String(), "", "unknown operator %q", name)
		return
	}

	var operands []interface{}
	switch p := payload.(type) {
	case []interface{}:
		operands = p
	case nil:
	default:
		operands = []interface{}{p}
	}

	if !op.Arity.Accepts(len(operands)) {
		v.result.add(ast.ECodeOpArity, ast.SeverityError, path.String(), "",
			"%s requires %s, got %d", name, op.Arity, len(operands))
	}
	for i, o := range operands {
		v.walkExpr(o, path.Copy().PushIndex(i))
	}
}
