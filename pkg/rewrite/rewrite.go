// Package rewrite implements Amorph's pattern rewrite engine:
// match/replace rules with named placeholders and list wildcards,
// applied bottom-up to a fixed point or a bounded replacement count,
// with guards evaluated by a JMESPath-style expression engine
// (github.com/jmespath/go-jmespath) and a placeholder-arithmetic guard
// engine (github.com/Knetic/govaluate) — the same "bring in a real
// expression-language library rather than hand-roll one" approach
// graft takes for `(( grab ))`/`(( vault-try ))` argument parsing.
package rewrite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/jmespath/go-jmespath"

	"github.com/amorph-lang/amorph/pkg/ast"
)

// Rule is one rewrite rule: match a subtree shape, optionally guard
// it, and replace it with an instantiated template.
type Rule struct {
	Match             ast.Node
	Replace           ast.Node
	Select            string
	Where             string
	ProgramSelect     string
	ProgramWhere      string
	WherePlaceholders string
	ApplyTo           string
}

// ParseRules decodes a JSON array of rule objects.
func ParseRules(data []byte) ([]Rule, error) {
	var raw []map[string]interface{}
	prog, err := ast.Parse(data)
	if err != nil {
		return nil, err
	}
	for _, n := range prog.Body {
		m, ok := n.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("rewrite: each rule must be an object")
		}
		raw = append(raw, m)
	}
	rules := make([]Rule, 0, len(raw))
	for _, m := range raw {
		r := Rule{
			Match:   m["match"],
			Replace: m["replace"],
		}
		r.Select, _ = m["select"].(string)
		r.Where, _ = m["where"].(string)
		r.ProgramSelect, _ = m["program_select"].(string)
		r.ProgramWhere, _ = m["program_where"].(string)
		r.WherePlaceholders, _ = m["where_placeholders"].(string)
		r.ApplyTo, _ = m["apply_to"].(string)
		if r.Match == nil {
			return nil, fmt.Errorf("rewrite: rule missing match")
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Report summarizes a rewrite run.
type Report struct {
	Replacements int
	Passes       int
	Warnings     []string
}

// Apply repeatedly sweeps prog bottom-up applying rules until no rule
// fires in a full pass or limit total replacements have been made (0
// means unbounded). It returns a new program; prog is never mutated.
func Apply(prog *ast.Program, rules []Rule, limit int) (*ast.Program, *Report, error) {
	eng := &engine{rules: rules, root: prog, rep: &Report{}, limit: limit}
	body := deepCopySeq(prog.Body)

	for {
		if limit > 0 && eng.rep.Replacements >= limit {
			break
		}
		newBody, changed := eng.sweepSeq(body)
		eng.rep.Passes++
		if !changed {
			break
		}
		body = newBody
		if limit > 0 && eng.rep.Replacements >= limit {
			break
		}
	}

	return &ast.Program{Version: prog.Version, Body: body}, eng.rep, nil
}

type engine struct {
	rules []Rule
	root  *ast.Program
	rep   *Report
	limit int
}

// sweepSeq rewrites every element of a statement/list sequence
// bottom-up, respecting the engine's replacement budget.
func (e *engine) sweepSeq(seq []interface{}) ([]interface{}, bool) {
	changed := false
	out := make([]interface{}, len(seq))
	for i, n := range seq {
		rewritten, did := e.sweepNode(n)
		out[i] = rewritten
		changed = changed || did
	}
	return out, changed
}

// sweepNode rewrites n bottom-up: every map value and every list
// element is swept first (regardless of whether the map happens to be
// a single-discriminator AST node or a plain multi-field payload
// object like a call's {name,args}), then the rebuilt node itself is
// offered to every rule in order.
func (e *engine) sweepNode(n ast.Node) (ast.Node, bool) {
	changed := false
	var rebuilt ast.Node = n

	switch v := n.(type) {
	case []interface{}:
		newSeq, did := e.sweepSeq(v)
		rebuilt = newSeq
		changed = changed || did
	case map[string]interface{}:
		newMap := make(map[string]interface{}, len(v))
		for k, val := range v {
			rw, did := e.sweepNode(val)
			newMap[k] = rw
			changed = changed || did
		}
		rebuilt = newMap
	}

	if e.limitReached() {
		return rebuilt, changed
	}

	for _, rule := range e.rules {
		bindings := map[string]interface{}{}
		if !matchNode(rule.Match, rebuilt, bindings) {
			continue
		}
		if !e.guardsPass(rule, rebuilt, bindings) {
			continue
		}
		replaced := instantiate(rule.Replace, bindings)
		rebuilt = replaced
		changed = true
		e.rep.Replacements++
		break
	}

	return rebuilt, changed
}

func (e *engine) limitReached() bool {
	return e.limit > 0 && e.rep.Replacements >= e.limit
}

func (e *engine) guardsPass(rule Rule, node ast.Node, bindings map[string]interface{}) bool {
	warn := func(msg string) {
		for _, w := range e.rep.Warnings {
			if w == msg {
				return
			}
		}
		e.rep.Warnings = append(e.rep.Warnings, msg)
	}
	if rule.Where != "" {
		ok, applicable := e.jmesGuard(rule.Where, jmesContext(node, bindings))
		if !applicable {
			warn("where guard could not be evaluated; rule skipped")
			return false
		} else if !ok {
			return false
		}
	}
	if rule.Select != "" {
		ok, applicable := e.jmesGuard(rule.Select, jmesContext(node, bindings))
		if !applicable {
			warn("select guard could not be evaluated; rule skipped")
			return false
		} else if !ok {
			return false
		}
	}
	if rule.ProgramWhere != "" {
		ok, applicable := e.jmesGuard(rule.ProgramWhere, e.root.ToNode())
		if !applicable {
			warn("program_where guard could not be evaluated; rule skipped")
			return false
		} else if !ok {
			return false
		}
	}
	if rule.ProgramSelect != "" {
		ok, applicable := e.jmesGuard(rule.ProgramSelect, e.root.ToNode())
		if !applicable {
			warn("program_select guard could not be evaluated; rule skipped")
			return false
		} else if !ok {
			return false
		}
	}
	if rule.WherePlaceholders != "" {
		ok, err := evalPlaceholderGuard(rule.WherePlaceholders, bindings)
		if err != nil {
			e.rep.Warnings = append(e.rep.Warnings, fmt.Sprintf("where_placeholders guard error: %v", err))
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

func jmesContext(node ast.Node, bindings map[string]interface{}) interface{} {
	return map[string]interface{}{
		"node":     node,
		"bindings": bindings,
	}
}

// jmesGuard evaluates a JMESPath expression against data, returning
// (truthy, applicable). applicable is false only if the expression
// itself fails to compile/evaluate, in which case the rule is skipped
// with a one-time warning rather than treated as a hard failure.
func (e *engine) jmesGuard(expr string, data interface{}) (bool, bool) {
	result, err := jmespath.Search(expr, data)
	if err != nil {
		return false, false
	}
	return ast.Truthy(result), true
}

var placeholderToken = regexp.MustCompile(`\$\*?([A-Za-z_][A-Za-z0-9_]*)`)

// evalPlaceholderGuard evaluates a boolean/arithmetic expression over
// bound placeholders, e.g. "$x > 0", using govaluate. `$name` tokens
// are rewritten to bare identifiers before compilation since
// govaluate does not accept `$` in identifiers.
func evalPlaceholderGuard(expr string, bindings map[string]interface{}) (bool, error) {
	rewritten := placeholderToken.ReplaceAllString(expr, "$1")
	evaluable, err := govaluate.NewEvaluableExpression(rewritten)
	if err != nil {
		return false, err
	}
	params := make(map[string]interface{}, len(bindings))
	for k, v := range bindings {
		params[strings.TrimPrefix(k, "*")] = v
	}
	result, err := evaluable.Evaluate(params)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("where_placeholders: expression did not evaluate to a boolean")
	}
	return b, nil
}

func deepCopySeq(seq []interface{}) []interface{} {
	out := make([]interface{}, len(seq))
	for i, e := range seq {
		out[i] = deepCopyNode(e)
	}
	return out
}

func deepCopyNode(n ast.Node) ast.Node {
	switch v := n.(type) {
	case []interface{}:
		return deepCopySeq(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = deepCopyNode(e)
		}
		return out
	default:
		return v
	}
}
