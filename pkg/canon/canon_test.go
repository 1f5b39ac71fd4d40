package canon

import (
	"reflect"
	"testing"

	"github.com/amorph-lang/amorph/pkg/ast"
	. "github.com/smartystreets/goconvey/convey"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ast.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return prog
}

func TestPrettyFieldOrder(t *testing.T) {
	Convey("id is printed before the discriminator", t, func() {
		prog := parse(t, `[{"id":"s1","let":{"name":"x","value":1}}]`)
		out := string(Pretty(prog))
		idIdx := indexOf(out, `"id"`)
		letIdx := indexOf(out, `"let"`)
		So(idIdx, ShouldBeGreaterThan, -1)
		So(letIdx, ShouldBeGreaterThan, idIdx)
	})

	Convey("multi-field payload objects sort their keys lexicographically", t, func() {
		prog := parse(t, `[{"expr":{"call":{"name":"f","args":[1]}}}]`)
		out := string(Pretty(prog))
		argsIdx := indexOf(out, `"args"`)
		nameIdx := indexOf(out, `"name"`)
		So(argsIdx, ShouldBeGreaterThan, -1)
		So(nameIdx, ShouldBeGreaterThan, argsIdx)
	})
}

func TestPrettyIdempotent(t *testing.T) {
	Convey("canonicalizing an already-canonical program reproduces the same bytes", t, func() {
		prog := parse(t, `[{"id":"s1","let":{"name":"x","value":1}},{"expr":{"call":{"name":"f","args":[1,2]}}}]`)
		once := Pretty(prog)
		reparsed := parse(t, string(once))
		twice := Pretty(reparsed)
		So(string(twice), ShouldEqual, string(once))
	})
}

func TestMinifyUnminifyRoundTrip(t *testing.T) {
	Convey("unminify(minify(A)) reconstructs an equal program", t, func() {
		prog := parse(t, `[
			{"id":"fn_a","def":{"name":"f","params":["n"],"body":[
				{"if":{"cond":{"gt":[{"var":"n"},0]},"then":[{"return":{"var":"n"}}],"else":[{"return":0}]}}
			]}},
			{"expr":{"call":{"name":"f","args":[3]}}}
		]`)
		data, err := Minify(prog)
		So(err, ShouldBeNil)

		out, err := Unminify(data)
		So(err, ShouldBeNil)
		So(reflect.DeepEqual(out.Body, prog.Body), ShouldBeTrue)
	})

	Convey("unrecognized discriminators and fields pass through unchanged", t, func() {
		prog := parse(t, `[{"future_stmt":{"odd_field":42}}]`)
		data, err := Minify(prog)
		So(err, ShouldBeNil)
		out, err := Unminify(data)
		So(err, ShouldBeNil)
		So(reflect.DeepEqual(out.Body, prog.Body), ShouldBeTrue)
	})
}

func TestPackUnpackRoundTrip(t *testing.T) {
	Convey("unpack(pack(A)) reconstructs an equal program", t, func() {
		prog := parse(t, `[
			{"let":{"name":"greeting","value":"hello"}},
			{"let":{"name":"greeting2","value":"hello"}},
			{"print":[{"var":"greeting"},{"var":"greeting2"}]}
		]`)
		packed, err := Pack(prog)
		So(err, ShouldBeNil)
		So(string(packed[:4]), ShouldEqual, "ACIR")
		So(packed[4], ShouldEqual, byte(1))

		out, err := Unpack(packed)
		So(err, ShouldBeNil)
		So(reflect.DeepEqual(out.Body, prog.Body), ShouldBeTrue)
	})

	Convey("repeated string literals share one string-table entry", t, func() {
		prog := parse(t, `[
			{"let":{"name":"a","value":"same"}},
			{"let":{"name":"b","value":"same"}}
		]`)
		minified := minifyNode(prog.Body)
		in := &interner{index: map[string]int{}}
		internNode(minified, in)
		count := 0
		for _, s := range in.table {
			if s == "same" {
				count++
			}
		}
		So(count, ShouldEqual, 1)
	})

	Convey("unpack rejects a bad magic header", t, func() {
		_, err := Unpack([]byte("XXXX\x01\x00"))
		So(err, ShouldNotBeNil)
	})
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
