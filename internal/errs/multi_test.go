package errs

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMultiError(t *testing.T) {
	Convey("a zero-value MultiError", t, func() {
		var m MultiError

		Convey("is ready to use and OrNil()s to nil", func() {
			So(m.Count(), ShouldEqual, 0)
			So(m.OrNil(), ShouldBeNil)
		})

		Convey("Append ignores a nil error", func() {
			m.Append(nil)
			So(m.Count(), ShouldEqual, 0)
		})

		Convey("Append records a plain error", func() {
			m.Append(errors.New("boom"))
			So(m.Count(), ShouldEqual, 1)
			So(m.OrNil(), ShouldNotBeNil)
		})

		Convey("Append flattens a nested MultiError instead of nesting it", func() {
			var inner MultiError
			inner.Append(errors.New("a"))
			inner.Append(errors.New("b"))
			m.Append(inner)
			So(m.Count(), ShouldEqual, 2)

			m2 := &MultiError{}
			m2.Append(errors.New("c"))
			m.Append(m2)
			So(m.Count(), ShouldEqual, 3)
		})

		Convey("Error renders every entry, sorted", func() {
			m.Append(errors.New("zeta"))
			m.Append(errors.New("alpha"))
			s := m.Error()
			So(s, ShouldContainSubstring, "zeta")
			So(s, ShouldContainSubstring, "alpha")
			So(s, ShouldContainSubstring, "2")
		})
	})
}
