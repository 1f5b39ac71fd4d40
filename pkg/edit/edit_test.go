package edit

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

func ops(t *testing.T, src string) []ast.Node {
	t.Helper()
	o, err := ParseOps([]byte(src))
	if err != nil {
		t.Fatalf("parse ops: %v", err)
	}
	return o
}

func TestAddFunction(t *testing.T) {
	Convey("add_function appends a new top-level def", t, func() {
		prog := parse(t, `[{"let":{"name":"x","value":1}}]`)
		out, rep, err := Apply(prog, ops(t, `[{"add_function":{"name":"double","params":["n"],"body":[{"return":{"mul":[{"var":"n"},2]}}]}}]`), false)
		So(err, ShouldBeNil)
		So(len(out.Body), ShouldEqual, 2)
		_, key, _, ok := ast.Discriminator(out.Body[1])
		So(ok, ShouldBeTrue)
		So(key, ShouldEqual, "def")
		So(rep.Results, ShouldHaveLength, 1)
	})
}

func TestRenameFunction(t *testing.T) {
	Convey("rename_function by id renames the def and every name-based call", t, func() {
		prog := parse(t, `[
			{"id":"fn_a","def":{"name":"a","params":[],"body":[]}},
			{"expr":{"call":{"name":"a","args":[]}}},
			{"expr":{"call":{"id":"fn_a","args":[]}}}
		]`)
		out, _, err := Apply(prog, ops(t, `[{"rename_function":{"id":"fn_a","to":"b"}}]`), false)
		So(err, ShouldBeNil)
		_, _, defPayload, _ := ast.Discriminator(out.Body[0])
		name, _ := ast.Field(defPayload, "name")
		So(name, ShouldEqual, "b")
		_, _, exprPayload, _ := ast.Discriminator(out.Body[1])
		callPayload, _ := ast.Field(exprPayload, "call")
		callName, _ := ast.Field(callPayload, "name")
		So(callName, ShouldEqual, "b")
		_, _, exprPayload2, _ := ast.Discriminator(out.Body[2])
		callPayload2, _ := ast.Field(exprPayload2, "call")
		idField, _ := ast.Field(callPayload2, "id")
		So(idField, ShouldEqual, "fn_a")
	})
}

func TestDeleteNode(t *testing.T) {
	Convey("delete_node by target id removes the addressed statement", t, func() {
		prog := parse(t, `[
			{"id":"s1","let":{"name":"x","value":1}},
			{"let":{"name":"y","value":2}}
		]`)
		out, _, err := Apply(prog, ops(t, `[{"delete_node":{"target":"s1"}}]`), false)
		So(err, ShouldBeNil)
		So(len(out.Body), ShouldEqual, 1)
		_, key, _, _ := ast.Discriminator(out.Body[0])
		So(key, ShouldEqual, "let")
	})

	Convey("delete_node fails with E_BAD_PATH for an unknown target", t, func() {
		prog := parse(t, `[{"let":{"name":"x","value":1}}]`)
		_, _, err := Apply(prog, ops(t, `[{"delete_node":{"target":"missing"}}]`), false)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "E_BAD_PATH")
	})
}

func TestInsertBeforeAfter(t *testing.T) {
	Convey("insert_after splices a node immediately after the target", t, func() {
		prog := parse(t, `[
			{"id":"s1","let":{"name":"x","value":1}},
			{"let":{"name":"y","value":2}}
		]`)
		out, _, err := Apply(prog, ops(t, `[{"insert_after":{"target":"s1","node":{"let":{"name":"z","value":3}}}}]`), false)
		So(err, ShouldBeNil)
		So(len(out.Body), ShouldEqual, 3)
		_, _, p, _ := ast.Discriminator(out.Body[1])
		n, _ := ast.Field(p, "name")
		So(n, ShouldEqual, "z")
	})
}

func TestReplaceCall(t *testing.T) {
	Convey("replace_call updates args on every matching call", t, func() {
		prog := parse(t, `[{"expr":{"call":{"name":"f","args":[1]}}}]`)
		out, _, err := Apply(prog, ops(t, `[{"replace_call":{"match":{"name":"f"},"set":{"args":[2,3]}}}]`), false)
		So(err, ShouldBeNil)
		_, _, exprPayload, _ := ast.Discriminator(out.Body[0])
		callPayload, _ := ast.Field(exprPayload, "call")
		args, _ := ast.Field(callPayload, "args")
		seq, _ := args.([]interface{})
		So(len(seq), ShouldEqual, 2)
	})
}

func TestRenameVariable(t *testing.T) {
	Convey("rename_variable rewrites every reference, then re-running with the old name finds none", t, func() {
		prog := parse(t, `[
			{"let":{"name":"v","value":1}},
			{"set":{"name":"v","value":2}},
			{"print":[{"var":"v"}]}
		]`)
		out, rep, err := Apply(prog, ops(t, `[{"rename_variable":{"old_name":"v","new_name":"w","scope":"all"}}]`), false)
		So(err, ShouldBeNil)
		So(rep.Results[0].Detail, ShouldContainSubstring, "3")

		out2, rep2, err := Apply(out, ops(t, `[{"rename_variable":{"old_name":"v","new_name":"w","scope":"all"}}]`), false)
		So(err, ShouldBeNil)
		So(rep2.Results[0].Detail, ShouldContainSubstring, "0")
		_ = out2
	})
}

func TestExtractFunction(t *testing.T) {
	Convey("extract_function pulls a consecutive range into a new def and replaces it with a call", t, func() {
		prog := parse(t, `[
			{"let":{"name":"a","value":1}},
			{"let":{"name":"b","value":2}},
			{"print":[{"var":"a"},{"var":"b"}]}
		]`)
		out, _, err := Apply(prog, ops(t, `[{"extract_function":{"statements":[0,1],"function_name":"setup","insert_at":0}}]`), false)
		So(err, ShouldBeNil)
		_, key0, _, _ := ast.Discriminator(out.Body[0])
		So(key0, ShouldEqual, "def")
	})
}

func TestDryRun(t *testing.T) {
	Convey("a dry run does not require the caller to persist the result", t, func() {
		prog := parse(t, `[{"let":{"name":"x","value":1}}]`)
		original := len(prog.Body)
		out, rep, err := Apply(prog, ops(t, `[{"add_function":{"name":"f","params":[],"body":[]}}]`), true)
		So(err, ShouldBeNil)
		So(len(out.Body), ShouldEqual, 2)
		So(len(prog.Body), ShouldEqual, original)
		So(rep, ShouldNotBeNil)
	})
}

func TestTransactionalRollback(t *testing.T) {
	Convey("a failing operation leaves the original program untouched and returns an error", t, func() {
		prog := parse(t, `[{"let":{"name":"x","value":1}}]`)
		_, _, err := Apply(prog, ops(t, `[
			{"add_function":{"name":"f","params":[],"body":[]}},
			{"delete_node":{"target":"does-not-exist"}}
		]`), false)
		So(err, ShouldNotBeNil)
		So(len(prog.Body), ShouldEqual, 1)
	})
}
