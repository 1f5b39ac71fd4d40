package canon

import (
	"encoding/json"

	"github.com/amorph-lang/amorph/pkg/ast"
)

// Minify rewrites prog's statement discriminators, expression
// discriminators, and common field names to the short tokens in
// keymap.go and returns the result as compact JSON. Unknown
// discriminators and field names are passed through verbatim, so the
// format degrades gracefully rather than failing on a future
// extension it doesn't recognize.
func Minify(prog *ast.Program) ([]byte, error) {
	return json.Marshal(minifyNode(prog.Body))
}

// MinifyNode is the underlying tree transform, exposed for callers
// that already have a node rather than a whole program.
func MinifyNode(n ast.Node) ast.Node {
	return minifyNode(n)
}

func minifyNode(n ast.Node) ast.Node {
	switch v := n.(type) {
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = minifyNode(e)
		}
		return out
	case map[string]interface{}:
		id, key, payload, ok := ast.Discriminator(v)
		if ok {
			out := map[string]interface{}{}
			if id != "" {
				out["id"] = id
			}
			if code, found := opKeys[key]; found {
				out[code] = minifyNode(payload)
			} else {
				out[key] = minifyNode(payload)
			}
			return out
		}
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			if code, found := fieldKeys[k]; found {
				out[code] = minifyNode(val)
			} else {
				out[k] = minifyNode(val)
			}
		}
		return out
	default:
		return v
	}
}

// Unminify parses minified JSON and expands short tokens back to
// their long form, producing a Program equal to the one that was
// minified (unminify(minify(A)) == A).
func Unminify(data []byte) (*ast.Program, error) {
	prog, err := ast.Parse(data)
	if err != nil {
		return nil, err
	}
	expanded, ok := unminifyNode(prog.Body).([]interface{})
	if !ok {
		return nil, errBadMinified
	}
	return &ast.Program{Version: prog.Version, Body: expanded}, nil
}

// UnminifyNode is the inverse of MinifyNode.
func UnminifyNode(n ast.Node) ast.Node {
	return unminifyNode(n)
}

func unminifyNode(n ast.Node) ast.Node {
	switch v := n.(type) {
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = unminifyNode(e)
		}
		return out
	case map[string]interface{}:
		idVal, idPresent := v["id"].(string)
		if key, payload, ok := singleOtherKey(v); ok {
			if longKey, found := reverseOpKeys[key]; found {
				out := map[string]interface{}{}
				if idPresent {
					out["id"] = idVal
				}
				out[longKey] = unminifyNode(payload)
				return out
			}
		}
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			if longKey, found := reverseFieldKeys[k]; found {
				out[longKey] = unminifyNode(val)
			} else {
				out[k] = unminifyNode(val)
			}
		}
		return out
	default:
		return v
	}
}

// singleOtherKey reports the one non-"id" key of a map, if there is
// exactly one, mirroring ast.Discriminator's shape test but operating
// on already-minified (possibly unrecognized) keys.
func singleOtherKey(m map[string]interface{}) (key string, payload interface{}, ok bool) {
	count := 0
	for k, v := range m {
		if k == "id" {
			continue
		}
		count++
		key, payload = k, v
	}
	return key, payload, count == 1
}

var errBadMinified = &MinifyError{"minified document is not a sequence"}

// MinifyError reports a structurally invalid minified document.
type MinifyError struct{ Message string }

func (e *MinifyError) Error() string { return e.Message }
