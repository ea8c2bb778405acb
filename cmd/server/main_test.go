package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/marks/internal/app"
	"github.com/okian/marks/internal/config"
	"github.com/okian/marks/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func TestServerWiring(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		_ = os.Setenv("MARKS_ADDR", ":8181")
		_ = os.Setenv("MARKS_WORKER_COUNT", "2")
		_ = os.Setenv("MARKS_PASSING_PERCENTAGE", "45")
		defer func() {
			_ = os.Unsetenv("MARKS_ADDR")
			_ = os.Unsetenv("MARKS_WORKER_COUNT")
			_ = os.Unsetenv("MARKS_PASSING_PERCENTAGE")
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8181")

		convey.Convey("When the service is built and started", func() {
			svc := newService(cfg, logger.Get())
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.So(svc.DefaultPassingPercentage(), convey.ShouldEqual, 45)

			convey.Convey("Then every route group answers", func() {
				mux := buildMux(ctx, cfg, svc)
				for _, path := range []string{"/healthz", "/stats", "/template", "/openapi.yaml", "/"} {
					rec := httptest.NewRecorder()
					mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
					convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("Then the metrics updaters do not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMetricsUpdatersStop(t *testing.T) {
	convey.Convey("Given a short-lived context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then both updaters return once it is done", func() {
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, service.New()) }, convey.ShouldNotPanic)
		})
	})
}

func TestInvalidConfiguration(t *testing.T) {
	convey.Convey("Given an empty listen address", t, func() {
		_ = os.Setenv("MARKS_ADDR", "")
		defer func() { _ = os.Unsetenv("MARKS_ADDR") }()

		convey.Convey("Then loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}
