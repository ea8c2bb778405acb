package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/marks/internal/adapters/mq/worker"
	"github.com/okian/marks/internal/adapters/repository"
	service "github.com/okian/marks/internal/app"
	"github.com/okian/marks/internal/domain/caps"
	"github.com/okian/marks/internal/domain/gate"
	"github.com/okian/marks/internal/domain/model"
	"github.com/okian/marks/internal/domain/stage"
)

// Header caps equal to the first-stage targets keep ESE unchanged through
// both stages, so each record's total is its ESE score.
var identityHeaders = []string{"ESE(50)", "IA(30)", "CSE(20)", "TW(25)", "VIVA(25)"}

func eseOnly(values ...float64) model.Dataset {
	ds := make(model.Dataset, len(values))
	for i, v := range values {
		ds[i][model.ESE] = v
	}
	return ds
}

func TestPipeline_Run(t *testing.T) {
	Convey("Given twelve records at a 35% passing percentage", t, func() {
		p := service.NewPipeline()
		in := service.Input{
			Dataset:           eseOnly(17.5, 17.49, 20, 30, 25, 40, 35, 10, 45, 50, 22, 28),
			Headers:           identityHeaders,
			PassingPercentage: 35,
		}

		res, err := p.Run(context.Background(), in)

		Convey("Then grades follow rank and stay in original order", func() {
			So(err, ShouldBeNil)
			grades := make([]model.Grade, len(res.Graded))
			for i, g := range res.Graded {
				So(g.Index, ShouldEqual, i)
				grades[i] = g.Grade
			}
			So(grades, ShouldResemble, []model.Grade{
				model.GradeP, model.GradeF, model.GradeD, model.GradeBPlus,
				model.GradeB, model.GradeA, model.GradeA, model.GradeF,
				model.GradeAPlus, model.GradeO, model.GradeC, model.GradeBPlus,
			})
		})

		Convey("Then the stats reflect the partition", func() {
			So(res.Stats.TotalStudents, ShouldEqual, 12)
			So(res.Stats.ESEFailingCount, ShouldEqual, 2)
			So(res.Stats.GradingCount, ShouldEqual, 10)
			So(res.Stats.HighestTotal, ShouldEqual, 50)
			So(res.Stats.PassingMarks, ShouldEqual, 17.5)
			So(res.Stats.PassingTotal, ShouldEqual, 17.5)
		})

		Convey("Then the distribution counts every grade", func() {
			So(res.Distribution[model.GradeA], ShouldEqual, 2)
			So(res.Distribution[model.GradeBPlus], ShouldEqual, 2)
			So(res.Distribution[model.GradeF], ShouldEqual, 2)
			So(res.Distribution[model.GradeO], ShouldEqual, 1)
		})

		Convey("Then stage outputs keep length and caps come from headers", func() {
			So(res.First, ShouldHaveLength, 12)
			So(res.Final, ShouldHaveLength, 12)
			So(res.Caps, ShouldResemble, model.FirstStageTargets)
			So(res.CacheHit, ShouldBeFalse)
		})
	})

	Convey("Given a record with raw caps", t, func() {
		p := service.NewPipeline()
		res, err := p.Run(context.Background(), service.Input{
			Dataset:           model.Dataset{{80, 30, 15, 20, 30}},
			Caps:              caps.Explicit{model.ESE: 100, model.IA: 40, model.CSE: 20, model.TW: 25, model.VIVA: 25},
			PassingPercentage: 40,
		})

		Convey("Then both stages are applied", func() {
			So(err, ShouldBeNil)
			So(res.First[0], ShouldResemble, model.Record{40, 22.5, 15, 20, 30})
			So(res.Final[0], ShouldResemble, model.Record{40, 15, 7.5, 8, 12})
			So(res.Graded[0].Total, ShouldEqual, 82.5)
			So(res.Graded[0].Grade, ShouldEqual, model.GradeBPlus)
		})

		Convey("Then the over-cap cell is reported", func() {
			So(res.Violations, ShouldHaveLength, 1)
			So(res.Violations[0].Column, ShouldEqual, "VIVA")
			So(res.Violations[0].Reason, ShouldEqual, caps.ReasonOverCap)
		})
	})

	Convey("Given invalid parameters", t, func() {
		p := service.NewPipeline()

		Convey("When a cap is missing", func() {
			_, err := p.Run(context.Background(), service.Input{
				Dataset:           eseOnly(10),
				Headers:           []string{"ESE(50)"},
				PassingPercentage: 40,
			})
			So(errors.Is(err, caps.ErrIncompleteCaps), ShouldBeTrue)
			So(service.ErrorKind(err), ShouldEqual, service.KindIncompleteCaps)
		})

		Convey("When the percentage is out of range", func() {
			_, err := p.Run(context.Background(), service.Input{
				Dataset:           eseOnly(10),
				Headers:           identityHeaders,
				PassingPercentage: 80,
			})
			So(errors.Is(err, gate.ErrInvalidThreshold), ShouldBeTrue)
			So(service.ErrorKind(err), ShouldEqual, service.KindInvalidThreshold)
		})

		Convey("When a score is not finite", func() {
			for _, bad := range []float64{math.NaN(), math.Inf(1)} {
				ds := eseOnly(40, 30, 20)
				ds[1][model.IA] = bad
				_, err := p.Run(context.Background(), service.Input{
					Dataset:           ds,
					Headers:           identityHeaders,
					PassingPercentage: 40,
				})
				So(errors.Is(err, stage.ErrInvalidScore), ShouldBeTrue)
				So(service.ErrorKind(err), ShouldEqual, service.KindInvalidScore)
			}
		})
	})

	Convey("Given an empty dataset", t, func() {
		p := service.NewPipeline()
		res, err := p.Run(context.Background(), service.Input{
			Dataset:           model.Dataset{},
			Headers:           identityHeaders,
			PassingPercentage: 50,
		})

		Convey("Then the run succeeds with zero stats", func() {
			So(err, ShouldBeNil)
			So(res.Graded, ShouldBeEmpty)
			So(res.Stats.TotalStudents, ShouldEqual, 0)
			So(res.Stats.HighestTotal, ShouldEqual, 0)
			So(res.Stats.PassingMarks, ShouldEqual, 25)
		})
	})
}

func TestPipeline_ParallelAndCache(t *testing.T) {
	Convey("Given a dataset large enough to fan out", t, func() {
		ds := make(model.Dataset, 257)
		for i := range ds {
			ds[i] = model.Record{float64(i % 101), float64(i % 41), float64(i % 21), float64(i % 26), float64((i * 7) % 26)}
		}
		in := service.Input{
			Dataset:           ds,
			Caps:              caps.Explicit{model.ESE: 100, model.IA: 40, model.CSE: 20, model.TW: 25, model.VIVA: 25},
			PassingPercentage: 40,
		}

		sequential, err := service.NewPipeline().Run(context.Background(), in)
		So(err, ShouldBeNil)

		Convey("When mapping on a worker pool", func() {
			parallel, err := service.NewPipeline(
				service.WithPool(worker.NewPool(4)),
				service.WithParallelThreshold(1),
			).Run(context.Background(), in)

			Convey("Then the output matches sequential mapping", func() {
				So(err, ShouldBeNil)
				So(parallel.First, ShouldResemble, sequential.First)
				So(parallel.Final, ShouldResemble, sequential.Final)
				So(parallel.Graded, ShouldResemble, sequential.Graded)
			})
		})

		Convey("When a stage cache is attached", func() {
			store := repository.NewMemoryStore()
			p := service.NewPipeline(service.WithStageCache(store))
			in.SessionID = "session-1"

			first, err := p.Run(context.Background(), in)
			So(err, ShouldBeNil)

			in.PassingPercentage = 60
			second, err := p.Run(context.Background(), in)

			Convey("Then the second run reuses the stages", func() {
				So(err, ShouldBeNil)
				So(first.CacheHit, ShouldBeFalse)
				So(second.CacheHit, ShouldBeTrue)
				So(second.Final, ShouldResemble, first.Final)
				So(second.Stats.PassingMarks, ShouldEqual, 30)
				So(store.Len(context.Background()), ShouldEqual, 1)
			})
		})
	})
}
