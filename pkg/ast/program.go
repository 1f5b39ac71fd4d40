package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Program is the top-level ordered sequence of statements. Version is
// retained from a `{version, program}` wrapper during Parse, but
// Canonical output always emits the bare sequence form, per spec: "the
// sequence form is canonical."
type Program struct {
	Version string
	Body    []interface{}
}

// Parse decodes a raw JSON document into a Program, accepting both the
// bare-sequence and `{version, program}` wrapper forms. Numbers are
// normalized to int64 when they have an integral lexical form, and to
// float64 otherwise, matching the Value tagged union.
func Parse(data []byte) (*Program, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("ast: invalid JSON: %w", err)
	}
	normalized := normalizeNumbers(raw)

	switch v := normalized.(type) {
	case []interface{}:
		return &Program{Body: v}, nil
	case map[string]interface{}:
		prog, ok := v["program"]
		if !ok {
			return nil, fmt.Errorf("ast: %w", ErrBadShape)
		}
		seq, ok := prog.([]interface{})
		if !ok {
			return nil, fmt.Errorf("ast: program field %w", ErrBadShape)
		}
		version, _ := v["version"].(string)
		return &Program{Version: version, Body: seq}, nil
	default:
		return nil, fmt.Errorf("ast: %w", ErrBadShape)
	}
}

// ErrBadShape is returned when the top-level document is neither a
// sequence nor a `{version, program}` wrapper.
var ErrBadShape = fmt.Errorf("program must be a sequence or {version, program} wrapper")

// normalizeNumbers walks a json.Decoder-produced tree, replacing
// json.Number leaves with int64 or float64.
func normalizeNumbers(n interface{}) interface{} {
	switch v := n.(type) {
	case json.Number:
		s := v.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := v.Int64(); err == nil {
				return i
			}
		}
		f, _ := v.Float64()
		return f
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = normalizeNumbers(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = normalizeNumbers(e)
		}
		return out
	default:
		return n
	}
}

// ToNode returns the program's canonical node representation, the
// bare top-level sequence.
func (p *Program) ToNode() interface{} {
	return p.Body
}

// Walk calls fn for every node reachable from the program root,
// including the root sequence itself, depth-first pre-order, passing
// each node's canonical path. Returning false from fn stops descent
// into that node's children (siblings are still visited).
func (p *Program) Walk(fn func(path *Path, n Node) bool) {
	walk(Root(), p.Body, fn)
}

func walk(path *Path, n Node, fn func(*Path, Node) bool) {
	if !fn(path, n) {
		return
	}
	switch v := n.(type) {
	case []interface{}:
		for i, e := range v {
			walk(path.Copy().PushIndex(i), e, fn)
		}
	case map[string]interface{}:
		id, key, payload, ok := Discriminator(v)
		_ = id
		if ok {
			childPath := path.Copy().Push(key)
			walk(childPath, payload, fn)
			return
		}
		for k, e := range v {
			walk(path.Copy().Push(k), e, fn)
		}
	}
}

// FunctionDefs returns every top-level `def` statement with its index.
func (p *Program) FunctionDefs() []struct {
	Index int
	Node  Node
} {
	var out []struct {
		Index int
		Node  Node
	}
	for i, stmt := range p.Body {
		if _, key, _, ok := Discriminator(stmt); ok && key == "def" {
			out = append(out, struct {
				Index int
				Node  Node
			}{i, stmt})
		}
	}
	return out
}
