package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amorph-lang/amorph/pkg/ast"
	"github.com/amorph-lang/amorph/pkg/ops"
)

// evalExpr evaluates an expression node to a runtime Value.
func (v *VM) evalExpr(n ast.Node, frame *Frame, path *ast.Path) (ast.Value, error) {
	switch t := n.(type) {
	case nil, bool, int64, float64, string:
		return t, nil
	case []interface{}:
		// A bare JSON array in expression position is a list literal.
		out := make([]interface{}, len(t))
		for i, e := range t {
			val, err := v.evalExpr(e, frame, path.Copy().PushIndex(i))
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case map[string]interface{}:
		id, key, payload, ok := ast.Discriminator(t)
		_ = id
		if !ok {
			return nil, v.runtimeErr(ast.RCodeTypeRuntime, path, "not a valid expression node")
		}
		return v.evalOperator(key, payload, frame, path.Copy().Push(key))
	default:
		return nil, v.runtimeErr(ast.RCodeTypeRuntime, path, "unrecognized node type %T", n)
	}
}

func (v *VM) evalOperator(key string, payload ast.Node, frame *Frame, path *ast.Path) (ast.Value, error) {
	switch key {
	case "var":
		name, _ := payload.(string)
		val, ok := frame.Lookup(name)
		if !ok {
			return nil, v.runtimeErr(ast.RCodeUndefinedVar, path, "undefined variable %q", name)
		}
		return val, nil

	case "call":
		return v.evalCall(payload, frame, path)

	case "and":
		return v.evalAndOr(true, payload, frame, path)
	case "or":
		return v.evalAndOr(false, payload, frame, path)

	case "input":
		return v.evalInput(payload, frame, path)

	default:
		return v.evalPureOperator(key, payload, frame, path)
	}
}

func (v *VM) evalPureOperator(key string, payload ast.Node, frame *Frame, path *ast.Path) (ast.Value, error) {
	name := ops.Normalize(key)
	op, ok := v.reg.Get(name)
	if !ok {
		return nil, v.runtimeErr(ast.RCodeTypeRuntime, path, "unknown operator %q", name)
	}

	var operands []interface{}
	switch p := payload.(type) {
	case []interface{}:
		operands = p
	case nil:
		operands = nil
	default:
		operands = []interface{}{p}
	}

	if !op.Arity.Accepts(len(operands)) {
		return nil, v.runtimeErr(ast.RCodeArgCount, path, "%s requires %s, got %d", name, op.Arity, len(operands))
	}

	args := make([]interface{}, len(operands))
	for i, o := range operands {
		val, err := v.evalExpr(o, frame, path.Copy().PushIndex(i))
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	if op.Eval == nil {
		return nil, v.runtimeErr(ast.RCodeTypeRuntime, path, "operator %q has no pure evaluator", name)
	}
	result, err := op.Eval(args)
	if err != nil {
		return nil, v.wrapOpErr(err, path)
	}
	return result, nil
}

func (v *VM) wrapOpErr(err error, path *ast.Path) error {
	msg := err.Error()
	code := ast.RCodeTypeRuntime
	switch {
	case strings.Contains(msg, "division by zero"):
		code = ast.RCodeDivZero
	case strings.Contains(msg, "out of range"):
		code = ast.RCodeIndex
	case strings.Contains(msg, "overflow"):
		code = ast.RCodeOverflow
	}
	return v.runtimeErr(code, path, "%s", msg)
}

// evalAndOr implements short-circuit and/or: operands are unevaluated
// expressions, evaluated strictly left to right, stopping at the
// first decisive operand. isAnd=true for `and` (stops at the first
// falsy operand), false for `or` (stops at the first truthy one).
func (v *VM) evalAndOr(isAnd bool, payload ast.Node, frame *Frame, path *ast.Path) (ast.Value, error) {
	operands, _ := payload.([]interface{})
	if len(operands) < 1 {
		return nil, v.runtimeErr(ast.RCodeArgCount, path, "%s requires at least 1 argument", map[bool]string{true: "and", false: "or"}[isAnd])
	}
	var last ast.Value
	for i, o := range operands {
		val, err := v.evalExpr(o, frame, path.Copy().PushIndex(i))
		if err != nil {
			return nil, err
		}
		last = val
		truthy := ast.Truthy(val)
		if isAnd && !truthy {
			return false, nil
		}
		if !isAnd && truthy {
			return true, nil
		}
	}
	return ast.Truthy(last), nil
}

func (v *VM) evalInput(payload ast.Node, frame *Frame, path *ast.Path) (ast.Value, error) {
	if v.opts.DenyInput {
		return nil, v.runtimeErr(ast.RCodeCapDenied, path, "input is denied by the current capability profile")
	}
	var prompt string
	switch p := payload.(type) {
	case nil:
	case string:
		prompt = p
	case []interface{}:
		if len(p) == 1 {
			val, err := v.evalExpr(p[0], frame, path.Copy().PushIndex(0))
			if err != nil {
				return nil, err
			}
			if s, ok := val.(string); ok {
				prompt = s
			}
		} else if len(p) != 0 {
			return nil, v.runtimeErr(ast.RCodeArgCount, path, "input requires between 0 and 1 arguments, got %d", len(p))
		}
	}
	v.emit("effect", "input", path)
	line, err := v.backend.ReadLine(prompt)
	if err != nil {
		return nil, v.runtimeErr(ast.RCodeTypeRuntime, path, "input: %v", err)
	}
	return line, nil
}

// renderPrintArgs evaluates print's argument list, expanding any
// `{"spread": listExpr}` form into additional arguments, and joins
// the textual representations with a single space, terminated by a
// newline.
func (v *VM) renderPrintArgs(items []interface{}, frame *Frame, path *ast.Path) (string, error) {
	var parts []string
	for i, item := range items {
		itemPath := path.Copy().PushIndex(i)
		if _, key, payload, ok := ast.Discriminator(item); ok && key == "spread" {
			val, err := v.evalExpr(payload, frame, itemPath.Copy().Push("spread"))
			if err != nil {
				return "", err
			}
			list, ok := val.([]interface{})
			if !ok {
				return "", v.runtimeErr(ast.RCodeTypeRuntime, itemPath, "spread operand must evaluate to a List")
			}
			for _, e := range list {
				parts = append(parts, stringify(e))
			}
			continue
		}
		val, err := v.evalExpr(item, frame, itemPath)
		if err != nil {
			return "", err
		}
		parts = append(parts, stringify(val))
	}
	return strings.Join(parts, " ") + "\n", nil
}

func stringify(v ast.Value) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return t
	case []interface{}:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = stringify(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", t)
	}
}
