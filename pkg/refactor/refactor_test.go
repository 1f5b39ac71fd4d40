package refactor

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

func TestFindVariableReferences(t *testing.T) {
	Convey("finds a definition, a write, and two reads across the whole program", t, func() {
		prog := parse(t, `[
			{"let":{"name":"v","value":1}},
			{"set":{"name":"v","value":2}},
			{"print":[{"var":"v"}]},
			{"expr":{"add":[{"var":"v"},1]}}
		]`)
		refs := FindVariableReferences(prog, "v", "all")
		var def, write, read int
		for _, r := range refs {
			switch r.Kind {
			case KindDefinition:
				def++
			case KindWrite:
				write++
			case KindRead:
				read++
			}
		}
		So(def, ShouldEqual, 1)
		So(write, ShouldEqual, 1)
		So(read, ShouldEqual, 2)
	})

	Convey("a function parameter is its own reference kind, scoped to its function id", t, func() {
		prog := parse(t, `[{"def":{"name":"f","id":"fn_f","params":["n"],"body":[{"return":{"var":"n"}}]}}]`)
		refs := FindVariableReferences(prog, "n", "fn_f")
		So(len(refs), ShouldEqual, 2)
		kinds := map[ReferenceKind]bool{}
		for _, r := range refs {
			kinds[r.Kind] = true
			So(r.ScopeID, ShouldEqual, "fn_f")
		}
		So(kinds[KindParameter], ShouldBeTrue)
		So(kinds[KindRead], ShouldBeTrue)
	})

	Convey("scoping to a different function id excludes all references", t, func() {
		prog := parse(t, `[{"def":{"name":"f","id":"fn_f","params":["n"],"body":[{"return":{"var":"n"}}]}}]`)
		refs := FindVariableReferences(prog, "n", "fn_other")
		So(refs, ShouldBeEmpty)
	})
}

func TestAnalyzeFreeVariables(t *testing.T) {
	Convey("a read before any local definition is free", t, func() {
		stmts := []interface{}{
			map[string]interface{}{"expr": map[string]interface{}{"var": "x"}},
		}
		free := AnalyzeFreeVariables(stmts)
		So(free, ShouldResemble, []string{"x"})
	})

	Convey("a name defined by let within the block is not free", t, func() {
		stmts := []interface{}{
			map[string]interface{}{"let": map[string]interface{}{"name": "x", "value": int64(1)}},
			map[string]interface{}{"expr": map[string]interface{}{"var": "x"}},
		}
		free := AnalyzeFreeVariables(stmts)
		So(free, ShouldBeEmpty)
	})

	Convey("a set target not locally defined is free", t, func() {
		stmts := []interface{}{
			map[string]interface{}{"set": map[string]interface{}{"name": "acc", "value": int64(1)}},
		}
		free := AnalyzeFreeVariables(stmts)
		So(free, ShouldResemble, []string{"acc"})
	})
}
