package rewrite

import "github.com/amorph-lang/amorph/pkg/ast"

// matchNode attempts to match pattern against node, recording
// placeholder bindings. A "$name" string pattern binds the current
// subtree to name (failing if already bound to a structurally
// different value). A list pattern containing exactly one "$*name"
// element lets that wildcard absorb zero or more consecutive
// elements; any other list pattern must match element-wise at equal
// length. Object patterns are a subset match: every pattern key must
// be present and match recursively; extra node keys are ignored.
func matchNode(pattern, node ast.Node, bindings map[string]interface{}) bool {
	if name, ok := placeholderName(pattern); ok {
		if existing, bound := bindings[name]; bound {
			return valuesEqual(existing, node)
		}
		bindings[name] = node
		return true
	}

	switch p := pattern.(type) {
	case []interface{}:
		n, ok := node.([]interface{})
		if !ok {
			return false
		}
		return matchList(p, n, bindings)
	case map[string]interface{}:
		n, ok := node.(map[string]interface{})
		if !ok {
			return false
		}
		for k, pv := range p {
			nv, exists := n[k]
			if !exists {
				return false
			}
			if !matchNode(pv, nv, bindings) {
				return false
			}
		}
		return true
	default:
		return valuesEqual(pattern, node)
	}
}

// placeholderName reports whether pattern is a bare "$name" string,
// returning name without the sigil.
func placeholderName(pattern ast.Node) (string, bool) {
	s, ok := pattern.(string)
	if !ok || len(s) < 2 || s[0] != '$' || s[1] == '*' {
		return "", false
	}
	return s[1:], true
}

// wildcardName reports whether pattern is a bare "$*name" string.
func wildcardName(pattern ast.Node) (string, bool) {
	s, ok := pattern.(string)
	if !ok || len(s) < 3 || s[0] != '$' || s[1] != '*' {
		return "", false
	}
	return s[2:], true
}

func matchList(pattern, node []interface{}, bindings map[string]interface{}) bool {
	wildcardAt := -1
	var wildName string
	for i, p := range pattern {
		if name, ok := wildcardName(p); ok {
			wildcardAt = i
			wildName = name
			break
		}
	}

	if wildcardAt < 0 {
		if len(pattern) != len(node) {
			return false
		}
		for i := range pattern {
			if !matchNode(pattern[i], node[i], bindings) {
				return false
			}
		}
		return true
	}

	prefix := pattern[:wildcardAt]
	suffix := pattern[wildcardAt+1:]
	if len(node) < len(prefix)+len(suffix) {
		return false
	}
	for i, p := range prefix {
		if !matchNode(p, node[i], bindings) {
			return false
		}
	}
	for i, p := range suffix {
		if !matchNode(p, node[len(node)-len(suffix)+i], bindings) {
			return false
		}
	}
	middle := append([]interface{}{}, node[len(prefix):len(node)-len(suffix)]...)
	if existing, bound := bindings[wildName]; bound {
		existingSeq, ok := existing.([]interface{})
		if !ok || !sliceEqual(existingSeq, middle) {
			return false
		}
	} else {
		bindings[wildName] = middle
	}
	return true
}

// instantiate builds a replacement subtree from a template, expanding
// "$name" into the bound subtree and "$*name" (as a list element)
// into the bound slice, spliced in place.
func instantiate(template ast.Node, bindings map[string]interface{}) ast.Node {
	if name, ok := placeholderName(template); ok {
		if v, bound := bindings[name]; bound {
			return deepCopyNode(v)
		}
		return template
	}
	switch t := template.(type) {
	case []interface{}:
		out := make([]interface{}, 0, len(t))
		for _, e := range t {
			if name, ok := wildcardName(e); ok {
				if v, bound := bindings[name]; bound {
					if seq, ok := v.([]interface{}); ok {
						for _, item := range seq {
							out = append(out, deepCopyNode(item))
						}
						continue
					}
				}
				continue
			}
			out = append(out, instantiate(e, bindings))
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, v := range t {
			out[k] = instantiate(v, bindings)
		}
		return out
	default:
		return template
	}
}

// valuesEqual is a structural equality check across the int64/float64
// numeric split the JSON decoder produces, mirroring the VM's eq
// operator but kept local to avoid importing the VM's evaluation
// package for a pure data comparison.
func valuesEqual(a, b ast.Node) bool {
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			return av == bv
		case float64:
			return float64(av) == bv
		default:
			return false
		}
	case float64:
		switch bv := b.(type) {
		case int64:
			return av == float64(bv)
		case float64:
			return av == bv
		default:
			return false
		}
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok {
			return false
		}
		return sliceEqual(av, bv)
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			ov, exists := bv[k]
			if !exists || !valuesEqual(v, ov) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func sliceEqual(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
