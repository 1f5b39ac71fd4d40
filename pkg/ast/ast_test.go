package ast

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Parse", t, func() {
		Convey("accepts a bare statement sequence", func() {
			prog, err := Parse([]byte(`[{"id":"n_1","let":{"name":"x","value":1}}]`))
			So(err, ShouldBeNil)
			So(len(prog.Body), ShouldEqual, 1)
		})

		Convey("accepts a {version, program} envelope", func() {
			prog, err := Parse([]byte(`{"version":"1","program":[{"id":"n_1","let":{"name":"x","value":1}}]}`))
			So(err, ShouldBeNil)
			So(prog.Version, ShouldEqual, "1")
			So(len(prog.Body), ShouldEqual, 1)
		})

		Convey("normalizes json.Number leaves to int64 or float64", func() {
			prog, err := Parse([]byte(`[{"id":"n_1","let":{"name":"x","value":3}},{"id":"n_2","let":{"name":"y","value":3.5}}]`))
			So(err, ShouldBeNil)
			_, _, p1, _ := Discriminator(prog.Body[0])
			v1, _ := Field(p1, "value")
			So(v1, ShouldHaveSameTypeAs, int64(0))
			_, _, p2, _ := Discriminator(prog.Body[1])
			v2, _ := Field(p2, "value")
			So(v2, ShouldHaveSameTypeAs, float64(0))
		})

		Convey("rejects malformed JSON", func() {
			_, err := Parse([]byte(`not json`))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestWalkAndFunctionDefs(t *testing.T) {
	Convey("Walk and FunctionDefs", t, func() {
		prog, err := Parse([]byte(`[
			{"id":"fn_1","def":{"name":"inc","params":["x"],"body":[
				{"id":"n_1","return":{"add":[{"var":"x"},1]}}
			]}},
			{"id":"n_2","expr":{"call":{"name":"inc","args":[1]}}}
		]`))
		So(err, ShouldBeNil)

		Convey("FunctionDefs finds top-level def statements only", func() {
			defs := prog.FunctionDefs()
			So(len(defs), ShouldEqual, 1)
			So(defs[0].Index, ShouldEqual, 0)
			_, _, payload, ok := Discriminator(defs[0].Node)
			So(ok, ShouldBeTrue)
			name, _ := Field(payload, "name")
			So(name, ShouldEqual, "inc")
		})

		Convey("Walk visits every node depth-first", func() {
			count := 0
			prog.Walk(func(p *Path, n Node) bool {
				count++
				return true
			})
			So(count, ShouldBeGreaterThan, 3)
		})

		Convey("Walk honors a false return to skip descent", func() {
			visitedInner := false
			prog.Walk(func(p *Path, n Node) bool {
				if _, key, _, ok := Discriminator(n); ok && key == "def" {
					return false
				}
				if _, key, _, ok := Discriminator(n); ok && key == "return" {
					visitedInner = true
				}
				return true
			})
			So(visitedInner, ShouldBeFalse)
		})
	})
}

func TestDiscriminatorAndValue(t *testing.T) {
	Convey("Discriminator", t, func() {
		Convey("splits id, key and payload", func() {
			id, key, payload, ok := Discriminator(map[string]interface{}{
				"id": "n_1", "let": map[string]interface{}{"name": "x", "value": int64(1)},
			})
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, "n_1")
			So(key, ShouldEqual, "let")
			name, _ := Field(payload, "name")
			So(name, ShouldEqual, "x")
		})

		Convey("rejects a map with more than one non-id key", func() {
			_, _, _, ok := Discriminator(map[string]interface{}{"let": 1, "set": 2})
			So(ok, ShouldBeFalse)
		})

		Convey("rejects a non-map node", func() {
			_, _, _, ok := Discriminator([]interface{}{1, 2})
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Truthy", t, func() {
		So(Truthy(nil), ShouldBeFalse)
		So(Truthy(false), ShouldBeFalse)
		So(Truthy(int64(0)), ShouldBeFalse)
		So(Truthy(""), ShouldBeFalse)
		So(Truthy([]Value{}), ShouldBeFalse)
		So(Truthy(int64(1)), ShouldBeTrue)
		So(Truthy("x"), ShouldBeTrue)
	})

	Convey("TypeName", t, func() {
		So(TypeName(nil), ShouldEqual, "Null")
		So(TypeName(int64(1)), ShouldEqual, "Int")
		So(TypeName(1.5), ShouldEqual, "Float")
		So(TypeName("s"), ShouldEqual, "Str")
		So(TypeName(true), ShouldEqual, "Bool")
		So(TypeName([]Value{}), ShouldEqual, "List")
	})
}

func TestPath(t *testing.T) {
	Convey("Path", t, func() {
		Convey("String renders canonical segments", func() {
			p := Root().PushIndex(1).Push("def").Push("body").PushIndex(0)
			So(p.String(), ShouldEqual, "/$[1]/def/body/$[0]")
		})

		Convey("ParsePath round-trips String", func() {
			p := Root().PushFunc("inc").Push("body").PushIndex(2)
			parsed, err := ParsePath(p.String())
			So(err, ShouldBeNil)
			So(parsed.String(), ShouldEqual, p.String())
		})

		Convey("Root parses from empty string or slash", func() {
			p1, err := ParsePath("")
			So(err, ShouldBeNil)
			So(len(p1.Segments), ShouldEqual, 0)
			p2, err := ParsePath("/")
			So(err, ShouldBeNil)
			So(len(p2.Segments), ShouldEqual, 0)
		})

		Convey("Under reports strict descendance", func() {
			base := Root().Push("def").Push("body")
			child := base.Copy().PushIndex(0)
			So(child.Under(base), ShouldBeTrue)
			So(base.Under(child), ShouldBeFalse)
			So(base.Under(base), ShouldBeFalse)
		})

		Convey("rejects an empty path segment", func() {
			_, err := ParsePath("/def//body")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Resolve", t, func() {
		prog, err := Parse([]byte(`[
			{"id":"fn_1","def":{"name":"inc","params":["x"],"body":[
				{"id":"n_1","return":{"add":[{"var":"x"},1]}}
			]}}
		]`))
		So(err, ShouldBeNil)

		Convey("navigates field, func, and index segments", func() {
			p := Root().PushFunc("inc").Push("body").PushIndex(0).Push("return")
			n, err := Resolve(prog, p)
			So(err, ShouldBeNil)
			_, key, _, ok := Discriminator(map[string]interface{}{"add": n})
			So(ok, ShouldBeTrue)
			So(key, ShouldEqual, "add")
		})

		Convey("errors on an out-of-range index", func() {
			p := Root().PushIndex(9)
			_, err := Resolve(prog, p)
			So(err, ShouldNotBeNil)
		})

		Convey("errors on an unresolvable function reference", func() {
			p := Root().PushFunc("nope")
			_, err := Resolve(prog, p)
			So(err, ShouldNotBeNil)
		})
	})
}
