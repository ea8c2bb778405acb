package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithRunBuckets(1, 5, 10),
				WithLatencyBuckets(10, 100),
				WithConstLabels(prometheus.Labels{"env": "test"}),
				WithRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.runsTotal.WithLabelValues(OutcomeSuccess).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_grading_runs_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording runs", func() {
			before := testutil.ToFloat64(globalManager.runsTotal.WithLabelValues(OutcomeFailure))
			RecordRun(OutcomeFailure)
			RecordRunError("invalid_threshold")
			RecordRunDuration(3.5)

			So(testutil.ToFloat64(globalManager.runsTotal.WithLabelValues(OutcomeFailure)), ShouldEqual, before+1)
		})

		Convey("When recording grades", func() {
			before := testutil.ToFloat64(globalManager.gradesAssigned.WithLabelValues("O"))
			RecordGrades("O", 3)
			RecordGrades("O", 0)

			So(testutil.ToFloat64(globalManager.gradesAssigned.WithLabelValues("O")), ShouldEqual, before+3)
		})

		Convey("When updating gauges", func() {
			UpdateDatasetSize(42)
			UpdatePartition(30, 12)
			UpdateStageCacheEntries(2)

			So(testutil.ToFloat64(globalManager.datasetSize), ShouldEqual, 42)
			So(testutil.ToFloat64(globalManager.passingCount), ShouldEqual, 30)
			So(testutil.ToFloat64(globalManager.failingCount), ShouldEqual, 12)
		})

		Convey("When recording the remaining families", func() {
			So(func() {
				RecordStageCacheHit()
				RecordStageCacheMiss()
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(0.2)
				RecordSheetDecoded("xlsx")
				RecordSheetEncoded("csv")
				RecordHTTPRequest("convert", "POST", "200")
				RecordHTTPRequestDuration("convert", "POST", "200", 12)
				RecordErrorByComponent("queue", "closed")
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("convert", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 1)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
		})

		Convey("Then the registry exposes the marks namespace", func() {
			RecordStageCacheHit()
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			found := false
			for _, f := range families {
				if strings.HasPrefix(f.GetName(), "marks_grading_") {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}
