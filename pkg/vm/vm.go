// Package vm implements Amorph's tree-walking evaluator: statement and
// expression execution over lexical frames, first-class user-defined
// functions, short-circuit logic operators, effect-separated I/O, and
// structured tracing — the runtime counterpart to graft's Evaluator,
// retargeted from "resolve operators over a merge-target document" to
// "execute a program."
package vm

import (
	"github.com/amorph-lang/amorph/internal/alog"
	"github.com/amorph-lang/amorph/pkg/ast"
	"github.com/amorph-lang/amorph/pkg/ops"
)

// Options configures a VM run.
type Options struct {
	Trace        bool
	RichErrors   bool
	DenyInput    bool
	DenyPrint    bool
	MaxRecursion int
}

// DefaultMaxRecursion bounds call depth when Options.MaxRecursion is 0.
const DefaultMaxRecursion = 2000

// VM executes a single Program against a capability profile.
type VM struct {
	prog    *ast.Program
	global  *Frame
	reg     *ops.Registry
	backend Backend
	opts    Options

	idIndex  map[string]*FuncVal
	nextCall int64
	stack    []string
}

// New builds a VM for prog using the default operator registry.
func New(prog *ast.Program, backend Backend, opts Options) *VM {
	if opts.MaxRecursion == 0 {
		opts.MaxRecursion = DefaultMaxRecursion
	}
	v := &VM{
		prog:    prog,
		global:  NewFrame(nil),
		reg:     ops.Default,
		backend: backend,
		opts:    opts,
		idIndex: map[string]*FuncVal{},
	}
	v.hoistTopLevelFuncs()
	return v
}

func (v *VM) hoistTopLevelFuncs() {
	for _, stmt := range v.prog.Body {
		id, key, payload, ok := ast.Discriminator(stmt)
		if !ok || key != "def" {
			continue
		}
		fn := funcValFromPayload(id, payload)
		v.global.DefineFunc(fn)
		if fn.ID != "" {
			v.idIndex[fn.ID] = fn
		}
	}
}

func funcValFromPayload(id string, payload ast.Node) *FuncVal {
	name, _ := ast.Field(payload, "name")
	params, _ := ast.Field(payload, "params")
	body, _ := ast.Field(payload, "body")
	if id == "" {
		pid, _ := ast.Field(payload, "id")
		id, _ = pid.(string)
	}

	fn := &FuncVal{ID: id}
	if s, ok := name.(string); ok {
		fn.Name = s
	}
	if seq, ok := params.([]interface{}); ok {
		for _, p := range seq {
			if s, ok := p.(string); ok {
				fn.Params = append(fn.Params, s)
			}
		}
	}
	if seq, ok := body.([]interface{}); ok {
		fn.Body = seq
	}
	return fn
}

// returnSignal unwinds execStmts back to the nearest function call
// boundary. It never escapes Run itself without becoming an error.
type returnSignal struct {
	value ast.Value
}

// Run executes the program to completion, returning the last
// expression value (or a function's return value, if the final
// top-level statement invoked one through `expr`).
func (v *VM) Run() (ast.Value, error) {
	alog.DEBUG("vm: running %d top-level statement(s)", len(v.prog.Body))
	val, ret, err := v.execStmts(v.prog.Body, v.global, ast.Root())
	if err != nil {
		alog.DEBUG("vm: run failed: %v", err)
		return nil, err
	}
	if ret != nil {
		return nil, v.runtimeErr(ast.RCodeReturnOutsideFn, ast.Root(), "return statement outside of a function body")
	}
	return val, nil
}

func (v *VM) execStmts(stmts []interface{}, frame *Frame, base *ast.Path) (ast.Value, *returnSignal, error) {
	var last ast.Value
	for i, stmt := range stmts {
		path := base.Copy().PushIndex(i)
		val, ret, err := v.execStmt(stmt, frame, path)
		if err != nil {
			return nil, nil, err
		}
		last = val
		if ret != nil {
			return last, ret, nil
		}
	}
	return last, nil, nil
}

func (v *VM) execStmt(stmt ast.Node, frame *Frame, path *ast.Path) (ast.Value, *returnSignal, error) {
	id, key, payload, ok := ast.Discriminator(stmt)
	_ = id
	if !ok {
		return nil, nil, v.runtimeErr(ast.RCodeTypeRuntime, path, "not a valid statement node")
	}
	stmtPath := path.Copy().Push(key)
	v.emit("eval", key, path)
	alog.TRACE("vm: %s at %s", key, path)

	switch key {
	case "let":
		name, _ := ast.Field(payload, "name")
		valueExpr, _ := ast.Field(payload, "value")
		n, _ := name.(string)
		val, err := v.evalExpr(valueExpr, frame, stmtPath.Copy().Push("value"))
		if err != nil {
			return nil, nil, err
		}
		frame.Define(n, val)
		return val, nil, nil

	case "set":
		name, _ := ast.Field(payload, "name")
		valueExpr, _ := ast.Field(payload, "value")
		n, _ := name.(string)
		val, err := v.evalExpr(valueExpr, frame, stmtPath.Copy().Push("value"))
		if err != nil {
			return nil, nil, err
		}
		if !frame.Set(n, val) {
			return nil, nil, v.runtimeErr(ast.RCodeUndefinedVar, stmtPath, "set: %q is not defined in any enclosing scope", n)
		}
		return val, nil, nil

	case "def":
		fn := funcValFromPayload(id, payload)
		frame.DefineFunc(fn)
		if fn.ID != "" {
			v.idIndex[fn.ID] = fn
		}
		return nil, nil, nil

	case "if":
		condExpr, _ := ast.Field(payload, "cond")
		condVal, err := v.evalExpr(condExpr, frame, stmtPath.Copy().Push("cond"))
		if err != nil {
			return nil, nil, err
		}
		branchKey := "then"
		if !ast.Truthy(condVal) {
			branchKey = "else"
		}
		branchNode, has := ast.Field(payload, branchKey)
		if !has {
			return nil, nil, nil
		}
		branchStmts, _ := branchNode.([]interface{})
		branchFrame := NewFrame(frame)
		return v.execStmts(branchStmts, branchFrame, stmtPath.Copy().Push(branchKey))

	case "return":
		val, err := v.evalExpr(payload, frame, stmtPath)
		if err != nil {
			return nil, nil, err
		}
		return val, &returnSignal{value: val}, nil

	case "print":
		items, _ := payload.([]interface{})
		text, err := v.renderPrintArgs(items, frame, stmtPath)
		if err != nil {
			return nil, nil, err
		}
		if v.opts.DenyPrint {
			return nil, nil, v.runtimeErr(ast.RCodeCapDenied, stmtPath, "print is denied by the current capability profile")
		}
		v.emit("effect", "print", stmtPath)
		if err := v.backend.Print(text); err != nil {
			return nil, nil, v.runtimeErr(ast.RCodeTypeRuntime, stmtPath, "print: %v", err)
		}
		return nil, nil, nil

	case "expr":
		val, err := v.evalExpr(payload, frame, stmtPath)
		return val, nil, err

	default:
		return nil, nil, v.runtimeErr(ast.RCodeTypeRuntime, stmtPath, "unknown statement kind %q", key)
	}
}
