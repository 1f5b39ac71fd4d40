// Package canon implements Amorph's canonical forms: a deterministic
// pretty-printer, a bijective short-key minifier, and a CBOR binary
// pack format (github.com/fxamacker/cbor/v2), mirroring the way graft
// treats a document tree as data first and reaches for a real codec
// library rather than hand-rolling one whenever it needs a different
// serialization of the same tree.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/amorph-lang/amorph/pkg/ast"
)

// Pretty renders prog in canonical form: UTF-8, LF line endings,
// two-space indentation. Within a structured node, id is emitted
// first, then the single discriminator; plain multi-field objects
// (a call's {name,args}, a def's {name,params,body}, ...) have their
// keys sorted lexicographically so the same tree always prints the
// same bytes.
func Pretty(prog *ast.Program) []byte {
	var buf bytes.Buffer
	prettyEncode(&buf, prog.Body, 0)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// PrettyNode renders a single node (rather than a whole program) in
// the same canonical style.
func PrettyNode(n ast.Node) []byte {
	var buf bytes.Buffer
	prettyEncode(&buf, n, 0)
	buf.WriteByte('\n')
	return buf.Bytes()
}

func prettyEncode(buf *bytes.Buffer, n ast.Node, depth int) {
	switch v := n.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int64:
		buf.WriteString(strconv.FormatInt(v, 10))
	case float64:
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case string:
		writeJSONString(buf, v)
	case []interface{}:
		prettyEncodeList(buf, v, depth)
	case map[string]interface{}:
		prettyEncodeMap(buf, v, depth)
	default:
		// Not part of the Value tagged union; best effort.
		b, _ := json.Marshal(v)
		buf.Write(b)
	}
}

func prettyEncodeList(buf *bytes.Buffer, v []interface{}, depth int) {
	if len(v) == 0 {
		buf.WriteString("[]")
		return
	}
	buf.WriteString("[\n")
	for i, e := range v {
		writeIndent(buf, depth+1)
		prettyEncode(buf, e, depth+1)
		if i < len(v)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	writeIndent(buf, depth)
	buf.WriteByte(']')
}

func prettyEncodeMap(buf *bytes.Buffer, v map[string]interface{}, depth int) {
	keys := orderedKeys(v)
	if len(keys) == 0 {
		buf.WriteString("{}")
		return
	}
	buf.WriteString("{\n")
	for i, k := range keys {
		writeIndent(buf, depth+1)
		writeJSONString(buf, k)
		buf.WriteString(": ")
		prettyEncode(buf, v[k], depth+1)
		if i < len(keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	writeIndent(buf, depth)
	buf.WriteByte('}')
}

// orderedKeys decides print order for a map: id then discriminator
// for a structured node, lexicographic for any other object shape.
func orderedKeys(m map[string]interface{}) []string {
	id, key, _, ok := ast.Discriminator(m)
	if ok {
		if id != "" {
			return []string{"id", key}
		}
		return []string{key}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, err := json.Marshal(s)
	if err != nil {
		fmt.Fprintf(buf, "%q", s)
		return
	}
	buf.Write(b)
}

func writeIndent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}
