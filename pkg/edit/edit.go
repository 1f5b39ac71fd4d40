// Package edit implements Amorph's structural edit engine: a batch of
// declarative operations applied transactionally to a program, with a
// dry-run mode that reports a structural diff instead of writing,
// built the way graft's cmd/graft diffFiles reports structural diffs
// between two merge results (ytbx.LoadFiles + dyff.CompareInputFiles),
// retargeted from comparing two files on disk to comparing a
// program's pre- and post-edit trees in memory.
package edit

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
	"gopkg.in/yaml.v3"

	"github.com/amorph-lang/amorph/pkg/ast"
	"github.com/amorph-lang/amorph/pkg/refactor"
)

// OpError is returned by a failing operation; Code is one of the
// static diagnostic codes (E_BAD_PATH, E_BAD_SPEC).
type OpError struct {
	Code    string
	Message string
}

func (e *OpError) Error() string { return e.Code + ": " + e.Message }

func badPath(format string, args ...interface{}) error {
	return &OpError{Code: ast.ECodeBadPath, Message: fmt.Sprintf(format, args...)}
}

func badSpec(format string, args ...interface{}) error {
	return &OpError{Code: ast.ECodeBadSpec, Message: fmt.Sprintf(format, args...)}
}

// OpResult records the effect of one successfully applied operation.
type OpResult struct {
	Op     string
	Detail string
}

// Report summarizes a batch application: per-operation results plus a
// structural diff between the input and output trees.
type Report struct {
	Results []OpResult
	Diff    string
	Changed bool
}

// ParseOps decodes a JSON array of single-discriminator operation
// nodes, the same encoding discipline as statements and expressions.
func ParseOps(data []byte) ([]ast.Node, error) {
	prog, err := ast.Parse(data)
	if err != nil {
		return nil, err
	}
	return prog.Body, nil
}

// Apply runs ops against prog in order and returns the resulting
// program as a new value; prog itself is never mutated. If any
// operation fails, result is nil and prog is unaffected — the
// transactional guarantee required by spec.md §4.6. When dryRun is
// true, the operations still run against a scratch copy (so the
// returned Report reflects what would happen) but the caller is
// expected to discard result rather than persist it.
func Apply(prog *ast.Program, ops []ast.Node, dryRun bool) (result *ast.Program, rep *Report, err error) {
	working := &ast.Program{Version: prog.Version, Body: deepCopySeq(prog.Body)}
	rep = &Report{}

	for i, op := range ops {
		_, key, payload, ok := ast.Discriminator(op)
		if !ok {
			return nil, rep, fmt.Errorf("edit[%d]: %w", i, badSpec("not a valid single-discriminator operation"))
		}
		detail, err := applyOne(working, key, payload)
		if err != nil {
			return nil, rep, fmt.Errorf("edit[%d] (%s): %w", i, key, err)
		}
		rep.Results = append(rep.Results, OpResult{Op: key, Detail: detail})
	}

	diffText, changed, _ := diffPrograms(prog, working)
	rep.Diff = diffText
	rep.Changed = changed

	if dryRun {
		return working, rep, nil
	}
	return working, rep, nil
}

func applyOne(working *ast.Program, key string, payload ast.Node) (string, error) {
	switch key {
	case "add_function":
		return opAddFunction(working, payload)
	case "rename_function":
		return opRenameFunction(working, payload)
	case "insert_before":
		return opInsert(working, payload, 0)
	case "insert_after":
		return opInsert(working, payload, 1)
	case "replace_call":
		return opReplaceCall(working, payload)
	case "delete_node":
		return opDeleteNode(working, payload)
	case "rename_variable":
		return opRenameVariable(working, payload)
	case "extract_function":
		return opExtractFunction(working, payload)
	default:
		return "", badSpec("unknown edit operation %q", key)
	}
}

func opAddFunction(working *ast.Program, payload ast.Node) (string, error) {
	name, _ := ast.Field(payload, "name")
	n, _ := name.(string)
	if n == "" {
		return "", badSpec("add_function: missing name")
	}
	params, _ := ast.Field(payload, "params")
	body, _ := ast.Field(payload, "body")
	id, _ := ast.Field(payload, "id")

	def := map[string]interface{}{"name": n}
	if seq, ok := params.([]interface{}); ok {
		def["params"] = seq
	} else {
		def["params"] = []interface{}{}
	}
	if seq, ok := body.([]interface{}); ok {
		def["body"] = seq
	} else {
		def["body"] = []interface{}{}
	}

	stmt := map[string]interface{}{"def": def}
	if s, ok := id.(string); ok && s != "" {
		stmt["id"] = s
	}
	working.Body = append(working.Body, stmt)
	return fmt.Sprintf("added function %q", n), nil
}

func opRenameFunction(working *ast.Program, payload ast.Node) (string, error) {
	idField, _ := ast.Field(payload, "id")
	fromField, _ := ast.Field(payload, "from")
	toField, _ := ast.Field(payload, "to")
	to, _ := toField.(string)
	if to == "" {
		return "", badSpec("rename_function: missing to")
	}

	var defPayload map[string]interface{}
	var oldName string

	if id, ok := idField.(string); ok && id != "" {
		stmt, ok := findDefByID(working, id)
		if !ok {
			return "", badPath("rename_function: no function with id %q", id)
		}
		defPayload, _ = stmt["def"].(map[string]interface{})
	} else if from, ok := fromField.(string); ok && from != "" {
		stmt, err := findUniqueDefByName(working, from)
		if err != nil {
			return "", badPath("rename_function: %v", err)
		}
		defPayload, _ = stmt["def"].(map[string]interface{})
		oldName = from
	} else {
		return "", badSpec("rename_function: requires id or from")
	}
	if defPayload == nil {
		return "", badSpec("rename_function: target is not a def node")
	}
	if oldName == "" {
		if n, _ := defPayload["name"].(string); n != "" {
			oldName = n
		}
	}
	defPayload["name"] = to

	renamed := renameCallsByName(working.Body, oldName, to)
	return fmt.Sprintf("renamed function %q to %q (%d name-based call(s) updated)", oldName, to, renamed), nil
}

func opInsert(working *ast.Program, payload ast.Node, offset int) (string, error) {
	p, err := resolveTargetPath(working, payload)
	if err != nil {
		return "", err
	}
	node, _ := ast.Field(payload, "node")
	if node == nil {
		return "", badSpec("insert: missing node")
	}

	getSeq, setSeq, idx, err := resolveContainer(working, p)
	if err != nil {
		return "", err
	}
	seq := getSeq()
	at := idx + offset
	if at < 0 || at > len(seq) {
		return "", badPath("insert: position %d out of range", at)
	}
	out := make([]interface{}, 0, len(seq)+1)
	out = append(out, seq[:at]...)
	out = append(out, deepCopyNode(node))
	out = append(out, seq[at:]...)
	setSeq(out)
	return fmt.Sprintf("inserted node at index %d", at), nil
}

func opReplaceCall(working *ast.Program, payload ast.Node) (string, error) {
	matchID, _ := fieldString(payload, "match", "id")
	matchName, _ := fieldString(payload, "match", "name")
	if matchID == "" && matchName == "" {
		return "", badSpec("replace_call: match requires id or name")
	}
	setField, _ := ast.Field(payload, "set")
	setMap, _ := setField.(map[string]interface{})
	if setMap == nil {
		return "", badSpec("replace_call: missing set")
	}

	count := 0
	walkCallNodes(working.Body, func(callPayload map[string]interface{}) {
		id, _ := callPayload["id"].(string)
		name, _ := callPayload["name"].(string)
		if (matchID != "" && id == matchID) || (matchName != "" && name == matchName) {
			if v, ok := setMap["name"]; ok {
				callPayload["name"] = v
			}
			if v, ok := setMap["id"]; ok {
				callPayload["id"] = v
			}
			if v, ok := setMap["args"]; ok {
				callPayload["args"] = deepCopyNode(v)
			}
			count++
		}
	})
	return fmt.Sprintf("replaced %d matching call(s)", count), nil
}

func opDeleteNode(working *ast.Program, payload ast.Node) (string, error) {
	p, err := resolveTargetPath(working, payload)
	if err != nil {
		return "", err
	}
	getSeq, setSeq, idx, err := resolveContainer(working, p)
	if err != nil {
		return "", err
	}
	seq := getSeq()
	if idx < 0 || idx >= len(seq) {
		return "", badPath("delete_node: index %d out of range", idx)
	}
	out := make([]interface{}, 0, len(seq)-1)
	out = append(out, seq[:idx]...)
	out = append(out, seq[idx+1:]...)
	setSeq(out)
	return fmt.Sprintf("deleted node at %s", p), nil
}

func opRenameVariable(working *ast.Program, payload ast.Node) (string, error) {
	oldName, _ := ast.Field(payload, "old_name")
	newName, _ := ast.Field(payload, "new_name")
	on, _ := oldName.(string)
	nn, _ := newName.(string)
	if on == "" || nn == "" {
		return "", badSpec("rename_variable: requires old_name and new_name")
	}
	scope := "all"
	if s, ok := ast.Field(payload, "scope"); ok {
		if str, ok := s.(string); ok && str != "" {
			scope = str
		}
	}
	var restrict string
	if pth, ok := ast.Field(payload, "path"); ok {
		if str, ok := pth.(string); ok {
			restrict = str
		}
	}

	n := renameVariable(working, on, nn, scope, restrict)
	return fmt.Sprintf("renamed %d reference(s) of %q to %q", n, on, nn), nil
}

func opExtractFunction(working *ast.Program, payload ast.Node) (string, error) {
	rawIdx, _ := ast.Field(payload, "statements")
	idxSeq, ok := rawIdx.([]interface{})
	if !ok || len(idxSeq) == 0 {
		return "", badSpec("extract_function: statements must be a non-empty list of indices")
	}
	indices := make([]int, len(idxSeq))
	for i, v := range idxSeq {
		n, ok := toInt(v)
		if !ok {
			return "", badSpec("extract_function: statements[%d] is not an integer", i)
		}
		indices[i] = n
	}
	sort.Ints(indices)
	lo, hi := indices[0], indices[len(indices)-1]
	if hi-lo+1 != len(indices) {
		return "", badSpec("extract_function: statements must be a consecutive index range")
	}
	if lo < 0 || hi >= len(working.Body) {
		return "", badPath("extract_function: index range [%d,%d] out of bounds", lo, hi)
	}

	nameField, _ := ast.Field(payload, "function_name")
	name, _ := nameField.(string)
	if name == "" {
		return "", badSpec("extract_function: missing function_name")
	}
	idField, _ := ast.Field(payload, "function_id")
	id, _ := idField.(string)

	extracted := deepCopySeq(working.Body[lo : hi+1])

	var params []string
	if paramField, ok := ast.Field(payload, "parameters"); ok {
		if seq, ok := paramField.([]interface{}); ok {
			for _, p := range seq {
				if s, ok := p.(string); ok {
					params = append(params, s)
				}
			}
		}
	}
	if params == nil {
		params = refactor.AnalyzeFreeVariables(extracted)
	}

	insertAt := len(working.Body) - len(extracted)
	if atField, ok := ast.Field(payload, "insert_at"); ok {
		if n, ok := toInt(atField); ok {
			insertAt = n
		}
	}
	replaceWithCall := true
	if rField, ok := ast.Field(payload, "replace_with_call"); ok {
		if b, ok := rField.(bool); ok {
			replaceWithCall = b
		}
	}

	remaining := make([]interface{}, 0, len(working.Body)-len(extracted))
	remaining = append(remaining, working.Body[:lo]...)
	remaining = append(remaining, working.Body[hi+1:]...)

	paramNodes := make([]interface{}, len(params))
	for i, p := range params {
		paramNodes[i] = p
	}
	defPayload := map[string]interface{}{
		"name":   name,
		"params": paramNodes,
		"body":   extracted,
	}
	defStmt := map[string]interface{}{"def": defPayload}
	if id != "" {
		defStmt["id"] = id
	}

	if insertAt < 0 || insertAt > len(remaining) {
		insertAt = len(remaining)
	}
	withDef := make([]interface{}, 0, len(remaining)+1)
	withDef = append(withDef, remaining[:insertAt]...)
	withDef = append(withDef, defStmt)
	withDef = append(withDef, remaining[insertAt:]...)

	final := withDef
	if replaceWithCall {
		callArgs := make([]interface{}, len(params))
		for i, p := range params {
			callArgs[i] = map[string]interface{}{"var": p}
		}
		callPayload := map[string]interface{}{"name": name, "args": callArgs}
		if id != "" {
			callPayload["id"] = id
		}
		callStmt := map[string]interface{}{"expr": map[string]interface{}{"call": callPayload}}

		at := lo
		if insertAt <= lo {
			at++
		}
		if at < 0 || at > len(withDef) {
			at = len(withDef)
		}
		final = make([]interface{}, 0, len(withDef)+1)
		final = append(final, withDef[:at]...)
		final = append(final, callStmt)
		final = append(final, withDef[at:]...)
	}

	working.Body = final
	return fmt.Sprintf("extracted function %q from statements [%d,%d]", name, lo, hi), nil
}

// --- shared helpers ---

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func fieldString(payload ast.Node, group, name string) (string, bool) {
	g, ok := ast.Field(payload, group)
	if !ok {
		return "", false
	}
	v, ok := ast.Field(g, name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// resolveTargetPath resolves an operation payload's "target" (an id)
// or "path" (a canonical path string) field to a concrete Path.
func resolveTargetPath(working *ast.Program, payload ast.Node) (*ast.Path, error) {
	if t, ok := ast.Field(payload, "target"); ok {
		if id, ok := t.(string); ok && id != "" {
			stmt, err := findPathByID(working, id)
			if err != nil {
				return nil, badPath("%v", err)
			}
			return stmt, nil
		}
	}
	if pth, ok := ast.Field(payload, "path"); ok {
		if s, ok := pth.(string); ok && s != "" {
			p, err := ast.ParsePath(s)
			if err != nil {
				return nil, badPath("%v", err)
			}
			return p, nil
		}
	}
	return nil, badSpec("operation requires target or path")
}

func findPathByID(prog *ast.Program, id string) (*ast.Path, error) {
	var found *ast.Path
	var count int
	prog.Walk(func(p *ast.Path, n ast.Node) bool {
		if ast.NodeID(n) == id {
			found = p.Copy()
			count++
		}
		return true
	})
	if count == 0 {
		return nil, fmt.Errorf("no node with id %q", id)
	}
	if count > 1 {
		return nil, fmt.Errorf("id %q is not unique", id)
	}
	return found, nil
}

func findDefByID(working *ast.Program, id string) (map[string]interface{}, bool) {
	for _, stmt := range working.Body {
		m, ok := stmt.(map[string]interface{})
		if !ok {
			continue
		}
		if s, _ := m["id"].(string); s == id {
			if _, ok := m["def"]; ok {
				return m, true
			}
		}
	}
	return nil, false
}

func findUniqueDefByName(working *ast.Program, name string) (map[string]interface{}, error) {
	var found map[string]interface{}
	count := 0
	for _, stmt := range working.Body {
		m, ok := stmt.(map[string]interface{})
		if !ok {
			continue
		}
		def, ok := m["def"].(map[string]interface{})
		if !ok {
			continue
		}
		if n, _ := def["name"].(string); n == name {
			found = m
			count++
		}
	}
	if count == 0 {
		return nil, fmt.Errorf("no function named %q", name)
	}
	if count > 1 {
		return nil, fmt.Errorf("function name %q is not unique", name)
	}
	return found, nil
}

// resolveContainer locates the sequence field addressed by the
// parent of p's final `$[n]` segment, returning accessors to read and
// replace that sequence plus the index p's final segment names.
func resolveContainer(prog *ast.Program, p *ast.Path) (get func() []interface{}, set func([]interface{}), index int, err error) {
	segs := p.Segments
	if len(segs) == 0 {
		return nil, nil, 0, badPath("path %s does not address a sequence element", p)
	}
	last := segs[len(segs)-1]
	if !(strings.HasPrefix(last, "$[") && strings.HasSuffix(last, "]")) {
		return nil, nil, 0, badPath("path %s does not address a sequence element", p)
	}
	n, convErr := strconv.Atoi(last[2 : len(last)-1])
	if convErr != nil {
		return nil, nil, 0, badPath("path %s: malformed index segment", p)
	}

	parent := segs[:len(segs)-1]
	if len(parent) == 0 {
		return func() []interface{} { return prog.Body },
			func(v []interface{}) { prog.Body = v },
			n, nil
	}

	fieldSeg := parent[len(parent)-1]
	if strings.HasPrefix(fieldSeg, "$[") || strings.HasPrefix(fieldSeg, "fn[") {
		return nil, nil, 0, badPath("path %s: container is not addressed by a field", p)
	}

	var cur ast.Node = prog.Body
	for _, seg := range parent[:len(parent)-1] {
		switch {
		case strings.HasPrefix(seg, "$["):
			idx, convErr := strconv.Atoi(seg[2 : len(seg)-1])
			if convErr != nil {
				return nil, nil, 0, badPath("path %s: malformed index segment", p)
			}
			seq, ok := ast.AsSequence(cur)
			if !ok || idx < 0 || idx >= len(seq) {
				return nil, nil, 0, badPath("path %s: segment %q out of range", p, seg)
			}
			cur = seq[idx]
		case strings.HasPrefix(seg, "fn["):
			return nil, nil, 0, badPath("path %s: fn[] segments are not supported mid-path for container targeting", p)
		default:
			_, _, payload, ok := ast.Discriminator(cur)
			if !ok {
				return nil, nil, 0, badPath("path %s: segment %q not found", p, seg)
			}
			v, exists := ast.Field(payload, seg)
			if !exists {
				return nil, nil, 0, badPath("path %s: segment %q not found", p, seg)
			}
			cur = v
		}
	}

	_, _, payload, ok := ast.Discriminator(cur)
	if !ok {
		return nil, nil, 0, badPath("path %s: %q is not a field of a structured node", p, fieldSeg)
	}
	m, ok := payload.(map[string]interface{})
	if !ok {
		return nil, nil, 0, badPath("path %s: payload is not a structured object", p)
	}
	if _, ok := m[fieldSeg].([]interface{}); !ok {
		return nil, nil, 0, badPath("path %s: field %q is not a sequence", p, fieldSeg)
	}
	return func() []interface{} { return m[fieldSeg].([]interface{}) },
		func(v []interface{}) { m[fieldSeg] = v },
		n, nil
}

// walkCallNodes visits every `call` node's payload map anywhere in
// stmts, mutating it in place via fn.
func walkCallNodes(stmts []interface{}, fn func(map[string]interface{})) {
	for _, stmt := range stmts {
		walkNodeForCalls(stmt, fn)
	}
}

func walkNodeForCalls(n ast.Node, fn func(map[string]interface{})) {
	switch v := n.(type) {
	case []interface{}:
		for _, e := range v {
			walkNodeForCalls(e, fn)
		}
	case map[string]interface{}:
		_, key, payload, ok := ast.Discriminator(v)
		if !ok {
			return
		}
		if key == "call" {
			if m, ok := payload.(map[string]interface{}); ok {
				fn(m)
				if args, ok := m["args"].([]interface{}); ok {
					for _, a := range args {
						walkNodeForCalls(a, fn)
					}
				}
			}
			return
		}
		walkNodeForCalls(payload, fn)
	}
}

// renameCallsByName rewrites every name-based call's name field (not
// id-based calls) from oldName to newName, returning the count
// touched.
func renameCallsByName(stmts []interface{}, oldName, newName string) int {
	count := 0
	walkCallNodes(stmts, func(callPayload map[string]interface{}) {
		id, _ := callPayload["id"].(string)
		name, _ := callPayload["name"].(string)
		if id == "" && name == oldName {
			callPayload["name"] = newName
			count++
		}
	})
	return count
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

func deepCopySeq(seq []interface{}) []interface{} {
	out := make([]interface{}, len(seq))
	for i, e := range seq {
		out[i] = deepCopyNode(e)
	}
	return out
}

// diffPrograms renders a structural diff between two programs'
// canonical node trees using the same ytbx/dyff pairing the upstream
// CLI uses to diff two files.
func diffPrograms(before, after *ast.Program) (string, bool, error) {
	beforeYAML, err := yaml.Marshal(before.ToNode())
	if err != nil {
		return "", false, err
	}
	afterYAML, err := yaml.Marshal(after.ToNode())
	if err != nil {
		return "", false, err
	}

	var beforeDoc, afterDoc yaml.Node
	if err := yaml.Unmarshal(beforeYAML, &beforeDoc); err != nil {
		return "", false, err
	}
	if err := yaml.Unmarshal(afterYAML, &afterDoc); err != nil {
		return "", false, err
	}

	from := ytbx.InputFile{Location: "before", Documents: []*yaml.Node{&beforeDoc}}
	to := ytbx.InputFile{Location: "after", Documents: []*yaml.Node{&afterDoc}}

	report, err := dyff.CompareInputFiles(from, to)
	if err != nil {
		return "", false, err
	}

	reportWriter := &dyff.HumanReport{
		Report:       report,
		NoTableStyle: true,
		OmitHeader:   true,
	}
	var buf bytes.Buffer
	out := bufio.NewWriter(&buf)
	if err := reportWriter.WriteReport(out); err != nil {
		return "", false, err
	}
	out.Flush()
	return buf.String(), len(report.Diffs) > 0, nil
}
