package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/pprforecast/internal/config"
	"github.com/okian/pprforecast/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func testConfig(dir string) *config.Config {
	cfg := config.New()
	cfg.RequestDelayMS = 0
	cfg.RidgeAlpha = 0
	cfg.Addr = "127.0.0.1:0"
	cfg.TrainingFile = filepath.Join(dir, "train.csv")
	cfg.AveragesFile = filepath.Join(dir, "averages.csv")
	cfg.PredictionsFile = filepath.Join(dir, "predictions.csv")
	cfg.SortedFile = filepath.Join(dir, "sorted_predictions.csv")
	cfg.ModelFile = filepath.Join(dir, "model.json")
	cfg.MetricsFile = filepath.Join(dir, "pprforecast.prom")
	return cfg
}

func writeFixtures(cfg *config.Config) {
	var b strings.Builder
	b.WriteString("name,fantasy_ppr,rush_yds,rec\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "p%d,%d,%d,%d\n", i, 10+3*i+(i%4), i, i%4)
	}
	convey.So(os.WriteFile(cfg.TrainingFile, []byte(b.String()), 0o644), convey.ShouldBeNil)
	convey.So(os.WriteFile(cfg.AveragesFile, []byte(
		"name,rush_yds,rec\nDe'Von Achane,12,2\nLeague Average,6,1\nKyren Williams,15,3\n"), 0o644), convey.ShouldBeNil)
}

func TestRunDispatch(t *testing.T) {
	convey.Convey("Given the command dispatcher", t, func() {
		ctx := context.Background()
		cfg := testConfig(t.TempDir())
		log := logger.Discard()

		convey.Convey("When no command is given", func() {
			err := run(ctx, nil, cfg, log)

			convey.Convey("Then it should report usage", func() {
				convey.So(errors.Is(err, errUsage), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the command is unknown", func() {
			err := run(ctx, []string{"scrape"}, cfg, log)

			convey.Convey("Then it should report usage", func() {
				convey.So(errors.Is(err, errUsage), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, `"scrape"`)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			cfg.TestFraction = 1
			err := run(ctx, []string{"train"}, cfg, log)

			convey.Convey("Then the service should not be built", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When training without a training file", func() {
			err := run(ctx, []string{"train"}, cfg, log)

			convey.Convey("Then it should fail and still write metrics", func() {
				convey.So(err, convey.ShouldNotBeNil)
				_, statErr := os.Stat(cfg.MetricsFile)
				convey.So(statErr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When running train, predict and sort in order", func() {
			writeFixtures(cfg)
			for _, cmd := range []string{"train", "predict", "sort"} {
				convey.So(run(ctx, []string{cmd}, cfg, log), convey.ShouldBeNil)
			}

			convey.Convey("Then the sorted file should rank players without the sentinel", func() {
				data, err := os.ReadFile(cfg.SortedFile)
				convey.So(err, convey.ShouldBeNil)
				rows := strings.Split(strings.TrimSpace(string(data)), "\n")
				convey.So(len(rows), convey.ShouldEqual, 3)
				convey.So(rows[0], convey.ShouldEqual, "name,prediction")
				convey.So(rows[1], convey.ShouldStartWith, "Kyren Williams,")
				convey.So(rows[2], convey.ShouldStartWith, "De'Von Achane,")
			})

			convey.Convey("Then serve should load the leaderboard and stop on cancel", func() {
				sctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
				defer cancel()
				convey.So(run(sctx, []string{"serve"}, cfg, log), convey.ShouldBeNil)
			})
		})

		convey.Convey("When serving without a sorted file", func() {
			err := run(ctx, []string{"serve"}, cfg, log)

			convey.Convey("Then it should fail before listening", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
