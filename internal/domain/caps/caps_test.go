package caps_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/marks/internal/domain/caps"
	"github.com/okian/marks/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseHeader(t *testing.T) {
	Convey("Given column headers", t, func() {
		Convey("When the header embeds a cap", func() {
			comp, v, ok := caps.ParseHeader("ESE(100)")
			So(ok, ShouldBeTrue)
			So(comp, ShouldEqual, model.ESE)
			So(v, ShouldEqual, 100)
		})

		Convey("When whitespace precedes the parenthesis", func() {
			comp, v, ok := caps.ParseHeader("VIVA   (25)")
			So(ok, ShouldBeTrue)
			So(comp, ShouldEqual, model.VIVA)
			So(v, ShouldEqual, 25)
		})

		Convey("When the cap is embedded in a longer label", func() {
			comp, v, ok := caps.ParseHeader("Internal IA (40) marks")
			So(ok, ShouldBeTrue)
			So(comp, ShouldEqual, model.IA)
			So(v, ShouldEqual, 40)
		})

		Convey("When the header has no cap", func() {
			_, _, ok := caps.ParseHeader("ESE")
			So(ok, ShouldBeFalse)
		})

		Convey("When the component is unknown", func() {
			_, _, ok := caps.ParseHeader("LAB(20)")
			So(ok, ShouldBeFalse)
		})

		Convey("When the cap is not an integer", func() {
			_, _, ok := caps.ParseHeader("TW(12.5)")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestFromHeaders(t *testing.T) {
	Convey("Given headers naming a component twice", t, func() {
		got := caps.FromHeaders([]string{"Roll No", "ESE(80)", "ESE(100)", "IA(40)"})

		Convey("Then the first match wins", func() {
			So(got[model.ESE], ShouldEqual, 80)
			So(got[model.IA], ShouldEqual, 40)
			So(len(got), ShouldEqual, 2)
		})
	})
}

func TestResolve(t *testing.T) {
	headers := []string{"ESE(100)", "IA(40)", "CSE(20)", "TW(25)", "VIVA(25)"}

	Convey("Given a header row with every cap", t, func() {
		Convey("When nothing explicit is supplied", func() {
			set, err := caps.Resolve(headers, nil)

			Convey("Then header caps are used", func() {
				So(err, ShouldBeNil)
				So(set, ShouldResemble, model.CapSet{100, 40, 20, 25, 25})
			})
		})

		Convey("When an explicit value is supplied", func() {
			set, err := caps.Resolve(headers, caps.Explicit{model.ESE: 60})

			Convey("Then it takes precedence", func() {
				So(err, ShouldBeNil)
				So(set[model.ESE], ShouldEqual, 60)
				So(set[model.IA], ShouldEqual, 40)
			})
		})

		Convey("When an explicit value is zero or NaN", func() {
			set, err := caps.Resolve(headers, caps.Explicit{model.ESE: 0, model.IA: math.NaN()})

			Convey("Then the header fills the gap", func() {
				So(err, ShouldBeNil)
				So(set[model.ESE], ShouldEqual, 100)
				So(set[model.IA], ShouldEqual, 40)
			})
		})
	})

	Convey("Given headers without caps", t, func() {
		plain := []string{"ESE", "IA", "CSE", "TW", "VIVA"}

		Convey("When only some explicit caps are supplied", func() {
			_, err := caps.Resolve(plain, caps.Explicit{model.ESE: 100, model.IA: 40})

			Convey("Then resolution fails naming the missing components", func() {
				So(errors.Is(err, caps.ErrIncompleteCaps), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "CSE, TW, VIVA")
			})
		})

		Convey("When an explicit cap is negative", func() {
			_, err := caps.Resolve(plain, caps.Explicit{
				model.ESE: -100, model.IA: 40, model.CSE: 20, model.TW: 25, model.VIVA: 25,
			})

			Convey("Then resolution fails", func() {
				So(errors.Is(err, caps.ErrIncompleteCaps), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "ESE")
			})
		})

		Convey("When every explicit cap is supplied", func() {
			set, err := caps.Resolve(plain, caps.Explicit{
				model.ESE: 100, model.IA: 40, model.CSE: 20, model.TW: 25, model.VIVA: 25,
			})

			So(err, ShouldBeNil)
			So(set.Missing(), ShouldBeEmpty)
		})
	})
}

func TestExplicitOver(t *testing.T) {
	Convey("Given default caps and request caps", t, func() {
		base := caps.Explicit{model.ESE: 100, model.IA: 40, model.CSE: 0}
		req := caps.Explicit{model.ESE: 0, model.IA: math.Inf(1), model.TW: 25, model.VIVA: math.NaN()}

		Convey("Then only usable request values replace defaults", func() {
			So(req.Over(base), ShouldResemble, caps.Explicit{model.ESE: 100, model.IA: 40, model.TW: 25})
		})

		Convey("Then a nil request keeps the defaults", func() {
			So(caps.Explicit(nil).Over(base), ShouldResemble, caps.Explicit{model.ESE: 100, model.IA: 40})
		})
	})
}

func TestAudit(t *testing.T) {
	Convey("Given raw scores and caps", t, func() {
		set := model.CapSet{100, 40, 20, 25, 25}
		ds := model.Dataset{
			{model.ESE: 90, model.IA: 40},
			{model.ESE: 120, model.TW: -1},
		}

		Convey("Then only out of range cells are reported", func() {
			got := caps.Audit(ds, set)
			So(len(got), ShouldEqual, 2)
			So(got[0].Index, ShouldEqual, 1)
			So(got[0].Column, ShouldEqual, "ESE")
			So(got[0].Reason, ShouldEqual, caps.ReasonOverCap)
			So(got[1].Column, ShouldEqual, "TW")
			So(got[1].Reason, ShouldEqual, caps.ReasonNegative)
		})
	})
}
