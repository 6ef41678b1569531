package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/pkg/logger"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func execute(ctx context.Context, args ...string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func TestBuildCommand(t *testing.T) {
	convey.Convey("Given a config file next to a data tree", t, func() {
		ctx := context.Background()
		_ = os.Unsetenv("PODIUM_CONFIG")
		dir := t.TempDir()

		writeFile(t, filepath.Join(dir, "data", "seasons", "2021", "driver-standings.yml"), `
- position: 1
  driverId: max-verstappen
- position: 2
  driverId: lewis-hamilton
`)
		writeFile(t, filepath.Join(dir, "data", "seasons", "2021", "races", "01-bahrain", "race-results.yml"), `
- position: 1
  driverId: lewis-hamilton
  constructorId: mercedes
- position: 2
  driverId: valtteri-bottas
  constructorId: mercedes
`)
		writeFile(t, filepath.Join(dir, "points.json"), `{"points_per_position": {"1": 25, "2": 18}}`)
		cfgPath := filepath.Join(dir, "podium.yml")
		writeFile(t, cfgPath, `
data_dir: data
output_dir: out
log_level: error
history:
  points_file: points.json
qualifying:
  enabled: false
second_driver:
  points_file: points.json
  detail: false
`)

		convey.Convey("When build runs", func() {
			err := execute(ctx, "--config", cfgPath, "build")

			convey.Convey("Then the enabled reports are written", func() {
				convey.So(err, convey.ShouldBeNil)
				history, readErr := os.ReadFile(filepath.Join(dir, "out", "history.csv"))
				convey.So(readErr, convey.ShouldBeNil)
				convey.So(string(history), convey.ShouldEqual,
					"Driver,Rank,Points,2021\nmax-verstappen,1,25,25\nlewis-hamilton,2,18,18\n")
				_, statErr := os.Stat(filepath.Join(dir, "out", "2021", "second-driver.csv"))
				convey.So(statErr, convey.ShouldBeNil)
				_, statErr = os.Stat(filepath.Join(dir, "out", "2021", "qualifying.csv"))
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When build is limited to one kind", func() {
			err := execute(ctx, "--config", cfgPath, "build", "history")

			convey.Convey("Then only that report is written", func() {
				convey.So(err, convey.ShouldBeNil)
				_, statErr := os.Stat(filepath.Join(dir, "out", "history.csv"))
				convey.So(statErr, convey.ShouldBeNil)
				_, statErr = os.Stat(filepath.Join(dir, "out", "2021"))
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the data dir flag points nowhere", func() {
			err := execute(ctx, "--config", cfgPath, "--data-dir", filepath.Join(dir, "missing"), "build")

			convey.Convey("Then the precondition error is returned and nothing is written", func() {
				convey.So(errors.Is(err, service.ErrPrecondition), convey.ShouldBeTrue)
				_, statErr := os.Stat(filepath.Join(dir, "out"))
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the output dir flag is set", func() {
			err := execute(ctx, "--config", cfgPath, "--output-dir", filepath.Join(dir, "site"), "build", "history")

			convey.Convey("Then it overrides the config file", func() {
				convey.So(err, convey.ShouldBeNil)
				_, statErr := os.Stat(filepath.Join(dir, "site", "history.csv"))
				convey.So(statErr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When an unknown kind is requested", func() {
			err := execute(ctx, "--config", cfgPath, "build", "podiums")

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, service.ErrUnknownKind), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWatchTargets(t *testing.T) {
	convey.Convey("Given a watcher started with a relative config path", t, func() {
		ctx := context.Background()
		w := &watcher{opts: &rootOptions{configPath: "podium.yml"}, cfg: config.New(), log: logger.Nop()}

		convey.Convey("When its targets are computed", func() {
			w.config = w.configTarget(ctx)
			targets := w.targets()

			convey.Convey("Then the config file is watched by its absolute path", func() {
				abs, err := filepath.Abs("podium.yml")
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.config, convey.ShouldEqual, abs)
				convey.So(targets.Files, convey.ShouldContain, abs)
			})
		})

		convey.Convey("When no config file is in use", func() {
			_ = os.Unsetenv(config.EnvConfig)
			w.opts = &rootOptions{}

			convey.Convey("Then there is nothing to match changes against", func() {
				convey.So(w.configTarget(ctx), convey.ShouldBeEmpty)
				convey.So(w.targets().Files, convey.ShouldNotContain, "")
			})
		})
	})
}
