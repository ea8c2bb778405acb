package config_test

import (
	"runtime"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/marks/internal/config"
	"github.com/okian/marks/internal/domain/model"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.ParallelThreshold, convey.ShouldEqual, 2_000)
			convey.So(cfg.StageCacheSize, convey.ShouldEqual, 16)
			convey.So(cfg.PassingPercentage, convey.ShouldEqual, 40)
			convey.So(cfg.Caps, convey.ShouldBeEmpty)
		})

		convey.Convey("Then the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_DefaultCaps(t *testing.T) {
	convey.Convey("Given caps keyed by component name", t, func() {
		cfg := config.New()
		cfg.Caps = map[string]float64{"ESE": 100, "VIVA": 20}

		convey.Convey("Then they convert to component caps", func() {
			got := cfg.DefaultCaps()
			convey.So(got, convey.ShouldHaveLength, 2)
			convey.So(got[model.ESE], convey.ShouldEqual, 100)
			convey.So(got[model.VIVA], convey.ShouldEqual, 20)
		})
	})
}
