package vm

import (
	"time"

	"github.com/amorph-lang/amorph/internal/alog"
	"github.com/amorph-lang/amorph/pkg/ast"
)

// evalCall resolves and invokes a function. The VM resolves via id
// first when present, otherwise by name, per spec.md §4.2.
func (v *VM) evalCall(payload ast.Node, frame *Frame, path *ast.Path) (ast.Value, error) {
	idField, _ := ast.Field(payload, "id")
	nameField, _ := ast.Field(payload, "name")
	argsField, _ := ast.Field(payload, "args")

	var fn *FuncVal
	if id, ok := idField.(string); ok && id != "" {
		fn = v.idIndex[id]
	}
	if fn == nil {
		if name, ok := nameField.(string); ok {
			fn, _ = frame.LookupFunc(name)
		}
	}
	if fn == nil {
		return nil, v.runtimeErr(ast.RCodeUnknownFunc, path, "call to unresolved function")
	}

	argNodes, _ := argsField.([]interface{})
	if len(argNodes) != len(fn.Params) {
		return nil, v.runtimeErr(ast.RCodeArgCount, path, "%s expects %d argument(s), got %d", fn.Name, len(fn.Params), len(argNodes))
	}

	args := make([]ast.Value, len(argNodes))
	for i, a := range argNodes {
		val, err := v.evalExpr(a, frame, path.Copy().Push("args").PushIndex(i))
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	if len(v.stack) >= v.opts.MaxRecursion {
		return nil, v.runtimeErr(ast.RCodeRecursion, path, "recursion depth exceeded %d", v.opts.MaxRecursion)
	}

	callID := v.nextCall
	v.nextCall++
	callName := fn.Name
	if callName == "" {
		callName = fn.ID
	}
	v.stack = append(v.stack, callName)
	defer func() { v.stack = v.stack[:len(v.stack)-1] }()

	alog.DEBUG("vm: call #%d %s (depth %d)", callID, callName, len(v.stack))
	v.emitCall(callID, "enter", callName, path)

	callFrame := NewFrame(v.global)
	for i, p := range fn.Params {
		callFrame.Define(p, args[i])
	}

	_, ret, err := v.execStmts(fn.Body, callFrame, path.Copy())
	v.emitCall(callID, "exit", callName, path)
	alog.TRACE("vm: call #%d %s returned, err=%v", callID, callName, err)
	if err != nil {
		return nil, err
	}
	if ret != nil {
		return ret.value, nil
	}
	return nil, nil
}

// runtimeErr builds a RuntimeError, attaching path/call-stack/excerpt
// context only when rich-error mode is enabled.
func (v *VM) runtimeErr(code string, path *ast.Path, format string, args ...interface{}) *ast.RuntimeError {
	e := ast.NewRuntimeError(code, format, args...)
	if v.opts.RichErrors {
		e.Path = path.String()
		e.CallStack = append([]string{}, v.stack...)
	}
	return e
}

// emit reports an "eval"/"effect" event against the call currently on
// top of the stack.
func (v *VM) emit(kind, op string, path *ast.Path) {
	v.emitCall(v.currentCallID(), kind, op, path)
}

// emitCall reports a trace event pinned to a specific call id — every
// event kind (enter, exit, eval, effect) routes through here so
// v.opts.Trace is the single gate on whether anything reaches the
// backend.
func (v *VM) emitCall(callID int64, kind, op string, path *ast.Path) {
	if !v.opts.Trace {
		return
	}
	v.backend.Trace(TraceEvent{
		Ts:     time.Now().UnixNano(),
		CallID: callID,
		Kind:   kind,
		Op:     op,
		Path:   path.String(),
	})
}

func (v *VM) currentCallID() int64 {
	if v.nextCall == 0 {
		return 0
	}
	return v.nextCall - 1
}
