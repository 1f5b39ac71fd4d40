package rewrite

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

func rules(t *testing.T, src string) []Rule {
	t.Helper()
	rs, err := ParseRules([]byte(src))
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	return rs
}

func TestScenario5AddZeroIdentity(t *testing.T) {
	Convey("add $x, 0 rewrites to $x", t, func() {
		prog := parse(t, `[{"expr":{"add":[{"var":"v"},0]}}]`)
		rs := rules(t, `[{"match":{"add":["$x",0]},"replace":"$x"}]`)
		out, rep, err := Apply(prog, rs, 0)
		So(err, ShouldBeNil)
		So(rep.Replacements, ShouldEqual, 1)
		_, _, payload, ok := ast.Discriminator(out.Body[0])
		So(ok, ShouldBeTrue)
		v, ok := ast.Field(payload, "var")
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, "v")
	})
}

func TestWildcardMatchesVariadicArgs(t *testing.T) {
	Convey("a $*args wildcard absorbs the whole args list", t, func() {
		prog := parse(t, `[{"expr":{"call":{"name":"f","args":[1,2,3]}}}]`)
		rs := rules(t, `[{"match":{"call":{"name":"f","args":["$*rest"]}},"replace":{"call":{"name":"g","args":["$*rest"]}}}]`)
		out, rep, err := Apply(prog, rs, 0)
		So(err, ShouldBeNil)
		So(rep.Replacements, ShouldEqual, 1)
		_, _, payload, _ := ast.Discriminator(out.Body[0])
		callPayload, _ := ast.Field(payload, "call")
		name, _ := ast.Field(callPayload, "name")
		So(name, ShouldEqual, "g")
		args, _ := ast.Field(callPayload, "args")
		seq, _ := args.([]interface{})
		So(len(seq), ShouldEqual, 3)
	})
}

func TestFixpointAppliesRepeatedly(t *testing.T) {
	Convey("nested add-zero identities collapse in one pass via bottom-up order", t, func() {
		prog := parse(t, `[{"expr":{"add":[{"add":[{"var":"v"},0]},0]}}]`)
		rs := rules(t, `[{"match":{"add":["$x",0]},"replace":"$x"}]`)
		out, rep, err := Apply(prog, rs, 0)
		So(err, ShouldBeNil)
		So(rep.Replacements, ShouldEqual, 2)
		_, _, payload, _ := ast.Discriminator(out.Body[0])
		_, ok := ast.Field(payload, "var")
		So(ok, ShouldBeTrue)
	})
}

func TestLimitBoundsReplacements(t *testing.T) {
	Convey("--limit caps total replacements across the run", t, func() {
		prog := parse(t, `[
			{"expr":{"add":[{"var":"a"},0]}},
			{"expr":{"add":[{"var":"b"},0]}}
		]`)
		rs := rules(t, `[{"match":{"add":["$x",0]},"replace":"$x"}]`)
		out, rep, err := Apply(prog, rs, 1)
		So(err, ShouldBeNil)
		So(rep.Replacements, ShouldEqual, 1)
		_ = out
	})
}

func TestWherePlaceholdersGuard(t *testing.T) {
	Convey("where_placeholders restricts the rule to matching bindings", t, func() {
		prog := parse(t, `[
			{"expr":{"add":[{"var":"a"},5]}},
			{"expr":{"add":[{"var":"b"},-1]}}
		]`)
		rs := rules(t, `[{"match":{"add":["$x","$n"]},"replace":"$x","where_placeholders":"$n > 0"}]`)
		out, rep, err := Apply(prog, rs, 0)
		So(err, ShouldBeNil)
		So(rep.Replacements, ShouldEqual, 1)
		_, _, p0, _ := ast.Discriminator(out.Body[0])
		_, ok := ast.Field(p0, "var")
		So(ok, ShouldBeTrue)
		_, _, p1, _ := ast.Discriminator(out.Body[1])
		_, stillAdd := ast.Field(p1, "add")
		So(stillAdd, ShouldBeTrue)
	})
}
