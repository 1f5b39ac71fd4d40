package types

import (
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

func hasCode(r *Result, code string) bool {
	for _, d := range r.Diagnostics {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestInfer(t *testing.T) {
	Convey("a well-typed program infers clean", t, func() {
		prog := parse(t, `[{"let":{"name":"x","value":{"add":[1,2]}}}]`)
		r := Infer(prog)
		So(r.OK(), ShouldBeTrue)
	})

	Convey("add accepts all strings", t, func() {
		prog := parse(t, `[{"let":{"name":"x","value":{"add":["a","b"]}}}]`)
		r := Infer(prog)
		So(r.OK(), ShouldBeTrue)
	})

	Convey("scenario 2: add mixing int and string is E_TYPE_MISMATCH at the let's value path", t, func() {
		prog := parse(t, `[{"let":{"name":"x","value":{"add":[1,"text"]}}}]`)
		r := Infer(prog)
		So(r.OK(), ShouldBeFalse)
		var found *ast.Diagnostic
		for i := range r.Diagnostics {
			if r.Diagnostics[i].Code == ast.ECodeTypeMismatch {
				found = &r.Diagnostics[i]
			}
		}
		So(found, ShouldNotBeNil)
		So(found.Path, ShouldEqual, "/$[0]/let/value")
		So(found.Hint, ShouldEqual, "Convert arguments to same type")
	})

	Convey("eq across numeric and string is W_TYPE_SUSPICIOUS", t, func() {
		prog := parse(t, `[{"expr":{"eq":[1,"1"]}}]`)
		r := Infer(prog)
		So(r.OK(), ShouldBeTrue)
		So(hasCode(r, ast.WCodeTypeSuspicious), ShouldBeTrue)
	})

	Convey("lt across string and int is E_TYPE_MISMATCH", t, func() {
		prog := parse(t, `[{"expr":{"lt":["a",1]}}]`)
		r := Infer(prog)
		So(r.OK(), ShouldBeFalse)
		So(hasCode(r, ast.ECodeTypeMismatch), ShouldBeTrue)
	})

	Convey("var and call are Unknown and never produce a diagnostic on their own", t, func() {
		prog := parse(t, `[{"expr":{"add":[{"var":"x"},{"call":{"name":"f","args":[]}}]}}]`)
		r := Infer(prog)
		So(r.OK(), ShouldBeTrue)
	})

	Convey("list joins element types and falls back to Any on mismatch", t, func() {
		inf := &inferer{result: &Result{}}
		homogeneous := inf.infer(map[string]interface{}{"list": []interface{}{int64(1), int64(2)}}, ast.Root())
		So(homogeneous.Kind, ShouldEqual, KList)
		So(homogeneous.Elem.Kind, ShouldEqual, KInt)

		mixed := inf.infer(map[string]interface{}{"list": []interface{}{int64(1), "x"}}, ast.Root())
		So(mixed.Elem.Kind, ShouldEqual, KAny)
	})

	Convey("len requires a List or Str operand", t, func() {
		prog := parse(t, `[{"expr":{"len":[1]}}]`)
		r := Infer(prog)
		So(r.OK(), ShouldBeFalse)
		So(hasCode(r, ast.ECodeTypeMismatch), ShouldBeTrue)
	})

	Convey("concat requires all strings or all lists", t, func() {
		prog := parse(t, `[{"expr":{"concat":["a",{"list":[1]}]}}]`)
		r := Infer(prog)
		So(r.OK(), ShouldBeFalse)
		So(hasCode(r, ast.ECodeTypeMismatch), ShouldBeTrue)
	})
}
