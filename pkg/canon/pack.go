package canon

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/amorph-lang/amorph/pkg/ast"
)

// packMagic identifies the binary pack format: "ACIR" (Amorph
// Canonical Interchange Representation) followed by a version byte.
var packMagic = [4]byte{'A', 'C', 'I', 'R'}

const packVersion = 1

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// CanonicalEncOptions gives byte-for-byte stable output across runs,
	// the same deterministic-encoding approach opal's planfmt package
	// uses for its own CBOR plan hashing.
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}{}),
		IntDec:         cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// packedDoc is the CBOR document wrapped by the ACIR header: a
// version, a string table, and the minified program tree with every
// string literal replaced by a {"~": index} reference into the table.
type packedDoc struct {
	V int         `cbor:"v"`
	S []string    `cbor:"s"`
	P interface{} `cbor:"p"`
}

// Pack encodes prog into the ACIR binary format: magic header,
// version byte, then a canonically-sorted CBOR document carrying a
// string table and the minified, string-interned program tree.
func Pack(prog *ast.Program) ([]byte, error) {
	minified := minifyNode(prog.Body)
	in := &interner{index: map[string]int{}}
	interned := internNode(minified, in)

	doc := packedDoc{V: packVersion, S: in.table, P: interned}
	body, err := encMode.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("canon: pack: %w", err)
	}

	out := make([]byte, 0, 5+len(body))
	out = append(out, packMagic[:]...)
	out = append(out, packVersion)
	out = append(out, body...)
	return out, nil
}

// Unpack decodes an ACIR binary document back into a Program, the
// inverse of Pack (unpack(pack(A)) == A).
func Unpack(data []byte) (*ast.Program, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("canon: unpack: document too short")
	}
	if !bytes.Equal(data[:4], packMagic[:]) {
		return nil, fmt.Errorf("canon: unpack: bad magic header")
	}
	version := data[4]
	if version != packVersion {
		return nil, fmt.Errorf("canon: unpack: unsupported version %d", version)
	}

	var doc packedDoc
	if err := decMode.Unmarshal(data[5:], &doc); err != nil {
		return nil, fmt.Errorf("canon: unpack: %w", err)
	}

	deinterned := deinternNode(doc.P, doc.S)
	seq, ok := deinterned.([]interface{})
	if !ok {
		return nil, fmt.Errorf("canon: unpack: packed program is not a sequence")
	}
	expanded, ok := unminifyNode(seq).([]interface{})
	if !ok {
		return nil, fmt.Errorf("canon: unpack: unminify produced a non-sequence")
	}
	return &ast.Program{Body: expanded}, nil
}

// interner assigns each distinct string literal a stable table index
// on first sight, in encounter order.
type interner struct {
	index map[string]int
	table []string
}

func (in *interner) intern(s string) int {
	if i, ok := in.index[s]; ok {
		return i
	}
	i := len(in.table)
	in.index[s] = i
	in.table = append(in.table, s)
	return i
}

// internNode replaces every string leaf with a {"~": index} reference
// into the interner's table. Map keys are left alone: they are
// already short, disjoint-namespaced tokens after minification, so
// interning them would cost more in wrapper overhead than it saves.
func internNode(n ast.Node, in *interner) ast.Node {
	switch v := n.(type) {
	case string:
		return map[string]interface{}{stringRefKey: in.intern(v)}
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = internNode(e, in)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = internNode(val, in)
		}
		return out
	default:
		return v
	}
}

// deinternNode is internNode's inverse, resolving {"~": index}
// references back into their table strings.
func deinternNode(n ast.Node, table []string) ast.Node {
	switch v := n.(type) {
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = deinternNode(e, table)
		}
		return out
	case map[string]interface{}:
		if ref, idx, ok := stringRef(v); ok {
			_ = ref
			if idx >= 0 && idx < len(table) {
				return table[idx]
			}
		}
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = deinternNode(val, table)
		}
		return out
	default:
		return v
	}
}

func stringRef(m map[string]interface{}) (key string, idx int, ok bool) {
	if len(m) != 1 {
		return "", 0, false
	}
	v, present := m[stringRefKey]
	if !present {
		return "", 0, false
	}
	i, ok := toIndex(v)
	return stringRefKey, i, ok
}

// toIndex coerces a CBOR-decoded numeric interface{} (int64, uint64,
// or float64 depending on the decoder's integer sign and magnitude)
// into an int table index.
func toIndex(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
