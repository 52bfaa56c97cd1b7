package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/pprforecast/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Season, convey.ShouldEqual, 2023)
				convey.So(cfg.RequestDelayMS, convey.ShouldEqual, 2500)
				convey.So(len(cfg.Categories), convey.ShouldEqual, 23)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PPR_SEASON", "2022")
			_ = os.Setenv("PPR_REQUEST_DELAY_MS", "100")
			_ = os.Setenv("PPR_RESUME", "true")
			_ = os.Setenv("PPR_EXCLUDED_POSITIONS", "QB, K")
			_ = os.Setenv("PPR_CATEGORIES", "rush_yds,rec")
			_ = os.Setenv("PPR_ZERO_GAMES_POLICY", "skip")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Season, convey.ShouldEqual, 2022)
				convey.So(cfg.RequestDelayMS, convey.ShouldEqual, 100)
				convey.So(cfg.Resume, convey.ShouldBeTrue)
				convey.So(cfg.ExcludedPositions, convey.ShouldResemble, []string{"QB", "K"})
				convey.So(cfg.Categories, convey.ShouldResemble, []string{"rush_yds", "rec"})
				convey.So(cfg.ZeroGamesPolicy, convey.ShouldEqual, "skip")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
season: 2021
base_url: "http://localhost:8099"
training_file: "data/train.csv"
excluded_features:
  - rec_long
sentinel_names:
  - League Average
  - Team Total
ridge_alpha: 0.25
`
			path := filepath.Join(t.TempDir(), "ppr.yaml")
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("PPR_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load values from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Season, convey.ShouldEqual, 2021)
				convey.So(cfg.BaseURL, convey.ShouldEqual, "http://localhost:8099")
				convey.So(cfg.TrainingFile, convey.ShouldEqual, "data/train.csv")
				convey.So(cfg.ExcludedFeatures, convey.ShouldResemble, []string{"rec_long"})
				convey.So(cfg.SentinelNames, convey.ShouldResemble, []string{"League Average", "Team Total"})
				convey.So(cfg.RidgeAlpha, convey.ShouldEqual, 0.25)
				convey.So(cfg.AveragesFile, convey.ShouldEqual, "averages.csv")
			})

			convey.Convey("And env vars should win over the file", func() {
				_ = os.Setenv("PPR_SEASON", "2020")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Season, convey.ShouldEqual, 2020)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("PPR_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then it should report a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the loaded config is invalid", func() {
			_ = os.Setenv("PPR_TEST_FRACTION", "1.5")

			_, err := config.Load(ctx)

			convey.Convey("Then it should report an invalid config", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"PPR_CONFIG",
		"PPR_SEASON",
		"PPR_REQUEST_DELAY_MS",
		"PPR_RESUME",
		"PPR_EXCLUDED_POSITIONS",
		"PPR_CATEGORIES",
		"PPR_ZERO_GAMES_POLICY",
		"PPR_TEST_FRACTION",
	} {
		_ = os.Unsetenv(key)
	}
}
