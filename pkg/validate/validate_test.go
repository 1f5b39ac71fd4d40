package validate

import (
	"testing"

	"github.com/amorph-lang/amorph/pkg/ast"
	"github.com/amorph-lang/amorph/pkg/ops"
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

func TestValidate(t *testing.T) {
	Convey("a well-formed program validates clean", t, func() {
		prog := parse(t, `[{"let":{"name":"x","value":{"add":[1,2]}}}]`)
		r := Validate(prog, ops.Default)
		So(r.OK(), ShouldBeTrue)
	})

	Convey("duplicate ids are an error", t, func() {
		prog := parse(t, `[
			{"id":"f1","def":{"name":"a","params":[],"body":[]}},
			{"id":"f1","def":{"name":"b","params":[],"body":[]}}
		]`)
		r := Validate(prog, ops.Default)
		So(r.OK(), ShouldBeFalse)
		So(hasCode(r, ast.ECodeDuplicateID), ShouldBeTrue)
	})

	Convey("duplicate names are a warning only", t, func() {
		prog := parse(t, `[
			{"def":{"name":"a","params":[],"body":[]}},
			{"def":{"name":"a","params":[],"body":[]}}
		]`)
		r := Validate(prog, ops.Default)
		So(r.OK(), ShouldBeTrue)
		So(hasCode(r, ast.WCodeDuplicateName), ShouldBeTrue)
	})

	Convey("operator arity mismatch is an error at its own path", t, func() {
		prog := parse(t, `[{"let":{"name":"x","value":{"sub":[1,2,3]}}}]`)
		r := Validate(prog, ops.Default)
		So(r.OK(), ShouldBeFalse)
		So(hasCode(r, ast.ECodeOpArity), ShouldBeTrue)
	})

	Convey("unknown operator is an error", t, func() {
		prog := parse(t, `[{"let":{"name":"x","value":{"frobnicate":[1]}}}]`)
		r := Validate(prog, ops.Default)
		So(hasCode(r, ast.ECodeUnknownOp), ShouldBeTrue)
	})

	Convey("calling an unresolved function is an error", t, func() {
		prog := parse(t, `[{"expr":{"call":{"name":"ghost","args":[]}}}]`)
		r := Validate(prog, ops.Default)
		So(hasCode(r, ast.ECodeUnknownFunc), ShouldBeTrue)
	})

	Convey("calling by name when an id exists prefers id", t, func() {
		prog := parse(t, `[
			{"id":"fn_a","def":{"name":"a","params":[],"body":[]}},
			{"expr":{"call":{"name":"a","args":[]}}}
		]`)
		r := Validate(prog, ops.Default)
		So(hasCode(r, ast.WCodePreferID), ShouldBeTrue)
	})

	Convey("type mismatch scenario: E_TYPE_MISMATCH is at /$[0]/let/value", t, func() {
		// Validate itself only checks shape/symbols/arity; the exact
		// path convention is shared with the types package, exercised
		// there.
		prog := parse(t, `[{"let":{"name":"x","value":{"add":[1,"text"]}}}]`)
		r := Validate(prog, ops.Default)
		So(r.OK(), ShouldBeTrue) // add is a valid, well-arity operator call
	})
}

func hasCode(r *Result, code string) bool {
	for _, d := range r.Diagnostics {
		if d.Code == code {
			return true
		}
	}
	return false
}
