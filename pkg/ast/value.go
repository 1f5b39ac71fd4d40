// Package ast defines Amorph's canonical program representation: a
// tree of JSON-ish nodes (maps, slices, and scalars) addressed by
// stable ids and canonical paths, following the same generic
// interface{}-tree shape graft uses for its own document model rather
// than a closed hierarchy of typed structs.
package ast

import "fmt"

// Value is a runtime value: int64, float64, bool, string, nil, or
// []Value. It is the tagged union from the data model; Go's dynamic
// typing stands in for the explicit tag.
type Value = interface{}

// Node is anything appearing in program position: a scalar literal, a
// []interface{} (a statement sequence, a list literal, or an operator
// argument list), or a map[string]interface{} (a structured node).
type Node = interface{}

// Discriminator splits a structured node into its id (if any), its
// single discriminator key, and the key's payload. ok is false if n is
// not a map, or the map does not have exactly one non-"id" key.
func Discriminator(n Node) (id, key string, payload Node, ok bool) {
	m, isMap := n.(map[string]interface{})
	if !isMap {
		return "", "", nil, false
	}
	for k, v := range m {
		if k == "id" {
			if s, isStr := v.(string); isStr {
				id = s
			}
			continue
		}
		if key != "" {
			// more than one non-id key: not a valid structured node
			return "", "", nil, false
		}
		key, payload = k, v
	}
	if key == "" {
		return "", "", nil, false
	}
	return id, key, payload, true
}

// IsStructured reports whether n is a single-discriminator node.
func IsStructured(n Node) bool {
	_, _, _, ok := Discriminator(n)
	return ok
}

// IsSequence reports whether n is a []interface{}.
func IsSequence(n Node) bool {
	_, ok := n.([]interface{})
	return ok
}

// AsSequence returns n's elements if it is a sequence.
func AsSequence(n Node) ([]interface{}, bool) {
	s, ok := n.([]interface{})
	return s, ok
}

// NodeID returns the "id" sibling field of a structured node, or "".
func NodeID(n Node) string {
	m, ok := n.(map[string]interface{})
	if !ok {
		return ""
	}
	if s, ok := m["id"].(string); ok {
		return s
	}
	return ""
}

// Field reads a named field out of a structured node's payload when
// the payload itself is a map (e.g. let.value, if.cond).
func Field(payload Node, name string) (Node, bool) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return nil, false
	}
	v, ok := m[name]
	return v, ok
}

// Truthy implements the VM's truthiness coercion: non-empty,
// non-zero, non-null, non-false.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case []Value:
		return len(t) != 0
	default:
		return true
	}
}

// TypeName returns a short name for a runtime value's type, used in
// runtime and static type-mismatch diagnostics.
func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "Null"
	case bool:
		return "Bool"
	case int64:
		return "Int"
	case float64:
		return "Float"
	case string:
		return "Str"
	case []Value:
		return "List"
	default:
		return fmt.Sprintf("%T", v)
	}
}
