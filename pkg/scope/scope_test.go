package scope

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

func TestScopeAnalyze(t *testing.T) {
	Convey("a well-scoped program analyzes clean", t, func() {
		prog := parse(t, `[
			{"let":{"name":"x","value":1}},
			{"let":{"name":"y","value":{"var":"x"}}}
		]`)
		r := Analyze(prog)
		So(r.OK(), ShouldBeTrue)
	})

	Convey("scenario 3: an undefined variable reference is an error at the let's value path", t, func() {
		prog := parse(t, `[{"let":{"name":"y","value":{"var":"undefined"}}}]`)
		r := Analyze(prog)
		So(r.OK(), ShouldBeFalse)
		So(hasCode(r, ast.ECodeUndefinedVar), ShouldBeTrue)
		var found *ast.Diagnostic
		for i := range r.Diagnostics {
			if r.Diagnostics[i].Code == ast.ECodeUndefinedVar {
				found = &r.Diagnostics[i]
			}
		}
		So(found, ShouldNotBeNil)
		So(found.Path, ShouldEqual, "/$[0]/let/value")
		So(found.Hint, ShouldEqual, "Add 'let undefined' before use or check for typos")
	})

	Convey("set on an unbound name is an error", t, func() {
		prog := parse(t, `[{"set":{"name":"ghost","value":1}}]`)
		r := Analyze(prog)
		So(hasCode(r, ast.ECodeUndefinedVar), ShouldBeTrue)
	})

	Convey("let shadowing an enclosing binding is a warning", t, func() {
		prog := parse(t, `[
			{"let":{"name":"x","value":1}},
			{"if":{"cond":true,"then":[{"let":{"name":"x","value":2}}]}}
		]`)
		r := Analyze(prog)
		So(r.OK(), ShouldBeTrue)
		So(hasCode(r, ast.WCodeVariableShadow), ShouldBeTrue)
	})

	Convey("function parameters define function scope, and function bodies do not inherit caller scope", t, func() {
		prog := parse(t, `[
			{"let":{"name":"outer","value":1}},
			{"def":{"name":"f","params":["n"],"body":[{"return":{"var":"outer"}}]}}
		]`)
		r := Analyze(prog)
		So(r.OK(), ShouldBeFalse)
		So(hasCode(r, ast.ECodeUndefinedVar), ShouldBeTrue)
	})

	Convey("a function may use its own parameter", t, func() {
		prog := parse(t, `[{"def":{"name":"f","params":["n"],"body":[{"return":{"var":"n"}}]}}]`)
		r := Analyze(prog)
		So(r.OK(), ShouldBeTrue)
	})

	Convey("a let inside an if-then does not leak to a sibling else", t, func() {
		prog := parse(t, `[
			{"if":{"cond":true,
			        "then":[{"let":{"name":"only_then","value":1}}],
			        "else":[{"expr":{"var":"only_then"}}]}}
		]`)
		r := Analyze(prog)
		So(hasCode(r, ast.ECodeUndefinedVar), ShouldBeTrue)
	})
}
