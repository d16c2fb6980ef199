package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func gatheredNames(reg *prometheus.Registry) []string {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	return names
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "attrition")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("hr"),
				WithSubsystem("scoring"),
				WithMetricPrefix("v2"),
				WithLatencyBuckets([]float64{0.1, 0.5, 1.0}),
				WithBatchSizeBuckets([]float64{1, 10, 100}),
				WithMetricsEnabled(true),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.predictions.WithLabelValues("1", "single").Inc()

			Convey("Then metric names carry namespace, subsystem and prefix", func() {
				So(manager.refreshInterval, ShouldEqual, 5*time.Second)
				So(manager.batchBuckets, ShouldResemble, []float64{1, 10, 100})
				So(gatheredNames(registry), ShouldContain, "hr_scoring_v2_predictions_total")
			})
		})

		Convey("When empty or invalid option values are passed", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithLatencyBuckets(nil),
				WithBatchSizeBuckets([]float64{}),
				WithCustomLabels(nil),
				WithRefreshInterval(-1*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "attrition")
				So(manager.subsystem, ShouldEqual, "api")
				So(manager.latencyBuckets, ShouldResemble, defaultLatencyBuckets)
				So(manager.batchBuckets, ShouldResemble, defaultBatchSizeBuckets)
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording prediction metrics", func() {
			So(func() {
				RecordPrediction("0", "single")
				RecordPrediction("1", "batch")
				RecordPredictionError("encoding_mismatch")
				RecordPredictionLatency(1.5)
				RecordBatchSize(25)
				RecordProbability(0.42)
			}, ShouldNotPanic)

			Convey("Then they are exposed by the custom registry", func() {
				names := strings.Join(gatheredNames(GetRegistry()), ",")
				So(names, ShouldContainSubstring, "attrition_api_predictions_total")
				So(names, ShouldContainSubstring, "attrition_api_prediction_errors_total")
				So(names, ShouldContainSubstring, "attrition_api_batch_size")
			})
		})

		Convey("When recording model, cache and history metrics", func() {
			So(func() {
				SetModelLoaded(true)
				SetModelLoaded(false)
				RecordModelLoad(12)
				RecordModelLoadFailure()
				RecordCacheHit()
				RecordCacheMiss()
				UpdateQueueSize(10)
				UpdateQueueCapacity(1000)
				RecordQueueEnqueueError("full")
				RecordHistoryWrite(3)
				RecordHistoryError()
				UpdateWorkerCount(2)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP, error and system metrics", func() {
			So(func() {
				RecordHTTPRequest("/predict", "POST", "200")
				RecordHTTPRequestDuration("/predict", "POST", "200", 4.2)
				RecordErrorByComponent("predictor", "model_failure")
				RecordErrorByType("validation_error", "warning")
				RecordErrorByEndpoint("/predict/batch", "POST", "validation_error")
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When reading the refresh interval", func() {
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			So(Enabled(), ShouldBeTrue)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordPrediction("1", "single")
					RecordProbability(float64(j) / 100)
					UpdateQueueSize(j)
					RecordHTTPRequest("/predict", "POST", "200")
				}
			}()
		}
		wg.Wait()

		Convey("Then no recorder panics or races", func() {
			So(true, ShouldBeTrue)
		})
	})
}
