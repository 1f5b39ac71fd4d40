// Package types implements Amorph's optional bottom-up type
// inferencer over the value-expression sublanguage, mirroring the
// validator's "accumulate every diagnostic" discipline but reasoning
// about operand types instead of symbols and arity.
package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/amorph-lang/amorph/pkg/ast"
)

// Kind is one inferred type.
type Kind int

const (
	KUnknown Kind = iota
	KAny
	KInt
	KFloat
	KStr
	KBool
	KNull
	KList
	KFunction
)

// Type is a fully inferred type: Kind plus, for List, its element type.
type Type struct {
	Kind Kind
	Elem *Type // only meaningful when Kind == KList
	// Arity is only meaningful when Kind == KFunction.
	Arity int
}

func (t Type) String() string {
	switch t.Kind {
	case KInt:
		return "Int"
	case KFloat:
		return "Float"
	case KStr:
		return "Str"
	case KBool:
		return "Bool"
	case KNull:
		return "Null"
	case KList:
		if t.Elem != nil {
			return fmt.Sprintf("List<%s>", t.Elem)
		}
		return "List<Any>"
	case KFunction:
		return fmt.Sprintf("Function(%d)", t.Arity)
	case KAny:
		return "Any"
	default:
		return "Unknown"
	}
}

var (
	Unknown = Type{Kind: KUnknown}
	Any     = Type{Kind: KAny}
	Int     = Type{Kind: KInt}
	Float   = Type{Kind: KFloat}
	Str     = Type{Kind: KStr}
	Bool    = Type{Kind: KBool}
	Null    = Type{Kind: KNull}
)

func isNumeric(t Type) bool { return t.Kind == KInt || t.Kind == KFloat || t.Kind == KAny }

// Result holds every diagnostic a type-inference pass produced.
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

// Infer runs type inference over every statement of prog, per spec.md
// §4.5's rules for the value-expression sublanguage.
func Infer(prog *ast.Program) *Result {
	r := &Result{}
	inf := &inferer{result: r}
	inf.walkBody(prog.Body, ast.Root())
	return r
}

type inferer struct {
	result *Result
}

func (inf *inferer) walkBody(stmts []interface{}, base *ast.Path) {
	for i, stmt := range stmts {
		inf.walkStmt(stmt, base.Copy().PushIndex(i))
	}
}

func (inf *inferer) walkStmt(stmt ast.Node, path *ast.Path) {
	_, key, payload, ok := ast.Discriminator(stmt)
	if !ok {
		return
	}
	p := path.Copy().Push(key)

	switch key {
	case "let", "set":
		if valueExpr, ok := ast.Field(payload, "value"); ok {
			inf.infer(valueExpr, p.Copy().Push("value"))
		}
	case "def":
		if body, ok := ast.Field(payload, "body"); ok {
			if seq, ok := body.([]interface{}); ok {
				inf.walkBody(seq, p.Copy().Push("body"))
			}
		}
	case "if":
		if cond, ok := ast.Field(payload, "cond"); ok {
			inf.infer(cond, p.Copy().Push("cond"))
		}
		if then, ok := ast.Field(payload, "then"); ok {
			if seq, ok := then.([]interface{}); ok {
				inf.walkBody(seq, p.Copy().Push("then"))
			}
		}
		if els, ok := ast.Field(payload, "else"); ok {
			if seq, ok := els.([]interface{}); ok {
				inf.walkBody(seq, p.Copy().Push("else"))
			}
		}
	case "return", "expr":
		inf.infer(payload, p)
	case "print":
		if seq, ok := payload.([]interface{}); ok {
			for i, e := range seq {
				if _, k2, p2, ok := ast.Discriminator(e); ok && k2 == "spread" {
					inf.infer(p2, p.Copy().PushIndex(i).Push("spread"))
					continue
				}
				inf.infer(e, p.Copy().PushIndex(i))
			}
		}
	}
}

// infer computes the type of a value expression, recording diagnostics
// for any incompatibility found along the way. It never returns an
// error: a malformed sub-expression infers as Unknown so inference can
// always proceed to completion.
func (inf *inferer) infer(n ast.Node, path *ast.Path) Type {
	switch v := n.(type) {
	case nil:
		return Null
	case bool:
		return Bool
	case int64:
		return Int
	case float64:
		return Float
	case string:
		return Str
	case []interface{}:
		// A bare JSON array outside of an operator payload; only
		// reachable through malformed shape, type it as Unknown.
		for i, e := range v {
			inf.infer(e, path.Copy().PushIndex(i))
		}
		return Unknown
	case map[string]interface{}:
		_, key, payload, ok := ast.Discriminator(v)
		if !ok {
			return Unknown
		}
		p := path.Copy().Push(key)
		return inf.inferOp(key, payload, path, p)
	default:
		return Unknown
	}
}

func operands(payload ast.Node) []interface{} {
	switch p := payload.(type) {
	case []interface{}:
		return p
	case nil:
		return nil
	default:
		return []interface{}{p}
	}
}

// inferOp infers the type of an operator node. exprPath is the path of
// the expression itself (for diagnostics, per spec.md §8); path is
// exprPath with the operator's own key pushed, used only to locate
// operands one level further down.
func (inf *inferer) inferOp(key string, payload ast.Node, exprPath, path *ast.Path) Type {
	switch key {
	case "var":
		return Unknown
	case "call":
		return Unknown

	case "add", "sub", "mul", "div", "mod", "pow":
		ops := operands(payload)
		types := make([]Type, len(ops))
		for i, o := range ops {
			types[i] = inf.infer(o, path.Copy().PushIndex(i))
		}
		if key == "add" && allOf(types, func(t Type) bool { return t.Kind == KStr }) {
			return Str
		}
		if allOf(types, isNumeric) {
			return joinNumeric(types)
		}
		if !anyUnknown(types) {
			inf.result.add(ast.ECodeTypeMismatch, ast.SeverityError, exprPath.String(),
				"Convert arguments to same type", "%s requires numeric operands, got %s", key, describeTypes(types))
		}
		return Unknown

	case "eq", "ne":
		ops := operands(payload)
		types := make([]Type, len(ops))
		for i, o := range ops {
			types[i] = inf.infer(o, path.Copy().PushIndex(i))
		}
		if !anyUnknown(types) && !compatibleBroadClass(types) {
			inf.result.add(ast.WCodeTypeSuspicious, ast.SeverityWarning, exprPath.String(), "",
				"%s compares incompatible types %s", key, describeTypes(types))
		}
		return Bool

	case "lt", "le", "gt", "ge":
		ops := operands(payload)
		types := make([]Type, len(ops))
		for i, o := range ops {
			types[i] = inf.infer(o, path.Copy().PushIndex(i))
		}
		if !anyUnknown(types) && !allOf(types, isNumeric) && !allOf(types, func(t Type) bool { return t.Kind == KStr }) {
			inf.result.add(ast.ECodeTypeMismatch, ast.SeverityError, exprPath.String(),
				"Convert arguments to same type", "%s requires numeric-numeric or string-string operands, got %s", key, describeTypes(types))
		}
		return Bool

	case "and", "or", "not":
		for i, o := range operands(payload) {
			inf.infer(o, path.Copy().PushIndex(i))
		}
		return Bool

	case "list":
		ops := operands(payload)
		types := make([]Type, len(ops))
		for i, o := range ops {
			types[i] = inf.infer(o, path.Copy().PushIndex(i))
		}
		elem := joinAll(types)
		return Type{Kind: KList, Elem: &elem}

	case "len":
		ops := operands(payload)
		if len(ops) == 1 {
			t := inf.infer(ops[0], path.Copy().PushIndex(0))
			if t.Kind != KList && t.Kind != KStr && t.Kind != KUnknown && t.Kind != KAny {
				inf.result.add(ast.ECodeTypeMismatch, ast.SeverityError, exprPath.String(),
					"Convert arguments to same type", "len requires a List or Str operand, got %s", t)
			}
		}
		return Int

	case "get":
		ops := operands(payload)
		if len(ops) == 2 {
			inf.infer(ops[0], path.Copy().PushIndex(0))
			inf.infer(ops[1], path.Copy().PushIndex(1))
		}
		return Unknown

	case "has":
		for i, o := range operands(payload) {
			inf.infer(o, path.Copy().PushIndex(i))
		}
		return Bool

	case "concat":
		ops := operands(payload)
		types := make([]Type, len(ops))
		for i, o := range ops {
			types[i] = inf.infer(o, path.Copy().PushIndex(i))
		}
		if allOf(types, func(t Type) bool { return t.Kind == KStr }) {
			return Str
		}
		if allOf(types, func(t Type) bool { return t.Kind == KList || t.Kind == KAny }) {
			return Type{Kind: KList}
		}
		if !anyUnknown(types) {
			inf.result.add(ast.ECodeTypeMismatch, ast.SeverityError, exprPath.String(),
				"Convert arguments to same type", "concat requires all strings or all lists, got %s", describeTypes(types))
		}
		return Unknown

	case "range":
		for i, o := range operands(payload) {
			inf.infer(o, path.Copy().PushIndex(i))
		}
		elem := Int
		return Type{Kind: KList, Elem: &elem}

	case "int":
		for i, o := range operands(payload) {
			inf.infer(o, path.Copy().PushIndex(i))
		}
		return Int

	case "input":
		for i, o := range operands(payload) {
			inf.infer(o, path.Copy().PushIndex(i))
		}
		return Str

	default:
		for i, o := range operands(payload) {
			inf.infer(o, path.Copy().PushIndex(i))
		}
		return Unknown
	}
}

func allOf(types []Type, pred func(Type) bool) bool {
	if len(types) == 0 {
		return false
	}
	for _, t := range types {
		if !pred(t) {
			return false
		}
	}
	return true
}

func anyUnknown(types []Type) bool {
	for _, t := range types {
		if t.Kind == KUnknown || t.Kind == KAny {
			return true
		}
	}
	return false
}

func joinNumeric(types []Type) Type {
	for _, t := range types {
		if t.Kind == KFloat {
			return Float
		}
	}
	return Int
}

func joinAll(types []Type) Type {
	if len(types) == 0 {
		return Any
	}
	first := types[0]
	for _, t := range types[1:] {
		if t.Kind != first.Kind {
			return Any
		}
	}
	return first
}

func compatibleBroadClass(types []Type) bool {
	if len(types) != 2 {
		return true
	}
	a, b := types[0], types[1]
	if a.Kind == KNull || b.Kind == KNull {
		return true
	}
	broad := func(t Type) int {
		switch t.Kind {
		case KInt, KFloat:
			return 1
		case KStr:
			return 2
		case KList:
			return 3
		case KBool:
			return 4
		default:
			return 0
		}
	}
	return broad(a) == broad(b)
}

func describeTypes(types []Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
