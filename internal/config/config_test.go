package config_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/podium/internal/config"
)

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it is valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the log level is unknown", func() {
			cfg.LogLevel = "chatty"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the data dir is empty", func() {
			cfg.DataDir = " "
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When an enabled report has no logic version", func() {
			cfg.SecondDriver.LogicVersion = ""
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a disabled report is incomplete", func() {
			cfg.SecondDriver.Enabled = false
			cfg.SecondDriver.PointsFile = ""
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the column order is unknown", func() {
			cfg.History.ColumnOrder = "random"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the history points source is unknown", func() {
			cfg.History.PointsSource = "guess"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a session override is malformed", func() {
			cfg.Qualifying.SessionOverrides = map[string]string{"2021": "sprint-qualifying"}
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)

			cfg.Qualifying.SessionOverrides = map[string]string{"2021/10-great-britain": "practice"}
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestConfigResolve(t *testing.T) {
	convey.Convey("Given a config with mixed paths", t, func() {
		cfg := config.New()
		cfg.OutputDir = "/abs/out"
		cfg.Resolve("/etc/podium")

		convey.Convey("Then relative paths are joined to the base", func() {
			convey.So(cfg.DataDir, convey.ShouldEqual, filepath.Join("/etc/podium", "data/f1db/src/data"))
			convey.So(cfg.Qualifying.PointsFile, convey.ShouldEqual, filepath.Join("/etc/podium", "config/qualifying-points.json"))
		})

		convey.Convey("And absolute and empty paths are kept", func() {
			convey.So(cfg.OutputDir, convey.ShouldEqual, "/abs/out")
			convey.So(cfg.MetricsFile, convey.ShouldEqual, "")
			convey.So(cfg.LogicIdentifier, convey.ShouldEqual, "")
		})
	})
}
