package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "podium")
				So(manager.subsystem, ShouldEqual, "build")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithBuildBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.buildBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.constLabels["env"], ShouldEqual, "test")
			})

			Convey("And empty values keep the defaults", func() {
				m := NewManager(WithNamespace(""), WithBuildBuckets(nil), WithPrometheusRegistry(prometheus.NewRegistry()))
				So(m.namespace, ShouldEqual, "podium")
				So(len(m.buildBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording unit outcomes", func() {
			before := counterValue(globalManager.unitsTotal.WithLabelValues("history", OutcomeBuilt))
			RecordUnit("history", OutcomeBuilt)
			RecordUnit("history", OutcomeBuilt)

			Convey("Then the labelled counter advances", func() {
				after := counterValue(globalManager.unitsTotal.WithLabelValues("history", OutcomeBuilt))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording skipped records", func() {
			before := counterValue(globalManager.recordsSkipped.WithLabelValues("qualifying"))
			RecordRecordsSkipped("qualifying", 3)
			RecordRecordsSkipped("qualifying", 0)
			RecordRecordsSkipped("qualifying", -1)

			Convey("Then only positive counts are added", func() {
				after := counterValue(globalManager.recordsSkipped.WithLabelValues("qualifying"))
				So(after-before, ShouldEqual, 3)
			})
		})

		Convey("When recording the remaining metrics", func() {
			So(func() {
				RecordRun(time.Now(), 1500*time.Millisecond)
				RecordUnitBuildDuration("second-driver", 20*time.Millisecond)
				RecordCacheDecision("second-driver", "source_mismatch")
				RecordEventSkipped("second-driver", "missing")
				RecordEventCollision("qualifying")
			}, ShouldNotPanic)
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given a registry with recorded metrics", t, func() {
		RecordUnit("history", OutcomeFresh)
		RecordCacheDecision("history", "fresh")
		path := filepath.Join(t.TempDir(), "nested", "podium.prom")

		Convey("When writing the textfile", func() {
			err := WriteTextfile(path)

			Convey("Then it holds the text exposition", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				text := string(data)
				So(text, ShouldContainSubstring, "# TYPE podium_build_units_total counter")
				So(text, ShouldContainSubstring, `podium_build_units_total{outcome="fresh",report="history"}`)
				So(text, ShouldContainSubstring, "podium_build_cache_decisions_total")
			})

			Convey("And no temp files are left behind", func() {
				entries, readErr := os.ReadDir(filepath.Dir(path))
				So(readErr, ShouldBeNil)
				for _, e := range entries {
					So(strings.HasPrefix(e.Name(), "."), ShouldBeFalse)
				}
			})
		})

		Convey("When the gatherer is nil", func() {
			err := WriteGathererTextfile(nil, path)

			Convey("Then ErrNoGatherer is returned", func() {
				So(err, ShouldEqual, ErrNoGatherer)
			})
		})
	})
}
