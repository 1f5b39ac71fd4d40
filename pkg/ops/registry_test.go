package ops

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("NewRegistry", t, func() {
		r := NewRegistry()

		Convey("knows every built-in operator", func() {
			for _, name := range []string{"add", "sub", "mul", "div", "mod", "pow",
				"eq", "ne", "lt", "le", "gt", "ge", "and", "or", "not",
				"list", "len", "get", "has", "concat", "range", "input", "int"} {
				op, ok := r.Get(name)
				So(ok, ShouldBeTrue)
				So(op.Name, ShouldEqual, name)
			}
		})

		Convey("normalizes namespaced operator keys", func() {
			op, ok := r.Get("ns.add")
			So(ok, ShouldBeTrue)
			So(op.Name, ShouldEqual, "add")
		})

		Convey("rejects unknown operators", func() {
			_, ok := r.Get("frobnicate")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("ArityClass.Accepts", t, func() {
		So(Fixed(2).Accepts(2), ShouldBeTrue)
		So(Fixed(2).Accepts(3), ShouldBeFalse)
		So(Ranged(1, 2).Accepts(1), ShouldBeTrue)
		So(Ranged(1, 2).Accepts(2), ShouldBeTrue)
		So(Ranged(1, 2).Accepts(3), ShouldBeFalse)
		So(Variadic(2).Accepts(2), ShouldBeTrue)
		So(Variadic(2).Accepts(10), ShouldBeTrue)
		So(Variadic(2).Accepts(1), ShouldBeFalse)
	})
}

func TestArithmetic(t *testing.T) {
	Convey("add", t, func() {
		Convey("sums all-numeric operands", func() {
			v, err := evalAdd([]interface{}{int64(1), int64(2), int64(3)})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, int64(6))
		})
		Convey("concatenates all-string operands", func() {
			v, err := evalAdd([]interface{}{"foo", "bar"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "foobar")
		})
		Convey("rejects mixed operand types", func() {
			_, err := evalAdd([]interface{}{int64(1), "x"})
			So(err, ShouldNotBeNil)
		})
		Convey("promotes to Float when any operand is Float", func() {
			v, err := evalAdd([]interface{}{int64(1), 2.5})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 3.5)
		})
	})

	Convey("div", t, func() {
		Convey("stays integral when evenly divisible", func() {
			v, err := evalDiv([]interface{}{int64(6), int64(3)})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, int64(2))
		})
		Convey("floats when not evenly divisible", func() {
			v, err := evalDiv([]interface{}{int64(7), int64(2)})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 3.5)
		})
		Convey("division by zero is an error", func() {
			_, err := evalDiv([]interface{}{int64(1), int64(0)})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("mod truncates toward zero", t, func() {
		v, err := evalMod([]interface{}{int64(-7), int64(2)})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, int64(-1))
	})
}

func TestCollectionOps(t *testing.T) {
	Convey("get", t, func() {
		Convey("indexes a list", func() {
			v, err := evalGet([]interface{}{[]interface{}{int64(10), int64(20)}, int64(1)})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, int64(20))
		})
		Convey("out of range is an error", func() {
			_, err := evalGet([]interface{}{[]interface{}{int64(10)}, int64(5)})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("range", t, func() {
		Convey("1..=n with a single argument", func() {
			v, err := evalRange([]interface{}{int64(3)})
			So(err, ShouldBeNil)
			So(v, ShouldResemble, []interface{}{int64(1), int64(2), int64(3)})
		})
		Convey("descending with a>b", func() {
			v, err := evalRange([]interface{}{int64(3), int64(1)})
			So(err, ShouldBeNil)
			So(v, ShouldResemble, []interface{}{int64(3), int64(2), int64(1)})
		})
	})
}
