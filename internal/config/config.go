// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
//   - New() builds a Config with defaults; Load(ctx) layers file and env on top.
//   - Durations are carried as milliseconds in the file/env and exposed as
//     time.Duration through accessor methods.
//   - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"

	"github.com/okian/pprforecast/internal/domain/averaging"
)

// DefaultCategories is the stat-category list written to every output file,
// in column order. fantasy_ppr is the label and is never a feature column.
var DefaultCategories = []string{ //nolint:gochecknoglobals // default table
	"rush_att", "rush_yds", "rush_td", "rush_first_down", "rush_success",
	"rush_long", "rush_yds_per_att", "targets", "rec", "rec_yds",
	"rec_yds_per_rec", "rec_td", "rec_first_down", "rec_success", "rec_long",
	"catch_pct", "rec_yds_per_tgt", "touches", "yds_per_touch",
	"yds_from_scrimmage", "rush_receive_td", "fumbles", "av",
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// BaseURL is the site root; roster and player links are resolved against it.
	BaseURL string `koanf:"base_url"`
	// Season selects the roster listing, /years/<season>/scrimmage.htm.
	Season int `koanf:"season"`
	// UserAgent is sent on every outbound request.
	UserAgent string `koanf:"user_agent"`
	// RequestDelayMS is the minimum gap between outbound requests.
	RequestDelayMS int `koanf:"request_delay_ms"`
	// HTTPTimeoutMS bounds a single request.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`
	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
	// ExcludedPositions lists roster positions that are never fetched.
	ExcludedPositions []string `koanf:"excluded_positions"`

	// Categories are the feature columns, in output order.
	Categories []string `koanf:"categories"`
	// ExcludedFeatures are dropped from the feature matrix before training.
	ExcludedFeatures []string `koanf:"excluded_features"`
	// ZeroGamesPolicy decides what happens when a window has no games: zero, skip, error.
	ZeroGamesPolicy string `koanf:"zero_games_policy"`
	// AbortOnPlayerError stops the run on the first per-player failure.
	AbortOnPlayerError bool `koanf:"abort_on_player_error"`
	// Resume appends to an existing output file and skips players already in it.
	Resume bool `koanf:"resume"`

	// Output and artifact paths.
	TrainingFile    string `koanf:"training_file"`
	AveragesFile    string `koanf:"averages_file"`
	PredictionsFile string `koanf:"predictions_file"`
	SortedFile      string `koanf:"sorted_file"`
	ModelFile       string `koanf:"model_file"`
	// MetricsFile, when set, receives the metrics registry after batch commands.
	MetricsFile string `koanf:"metrics_file"`

	// RidgeAlpha is the L2 penalty of the regression.
	RidgeAlpha float64 `koanf:"ridge_alpha"`
	// TestFraction is the share of rows held out for evaluation.
	TestFraction float64 `koanf:"test_fraction"`
	// SplitSeed makes the train/test split reproducible.
	SplitSeed int64 `koanf:"split_seed"`

	// SentinelNames are prediction rows that are not players.
	SentinelNames []string `koanf:"sentinel_names"`

	// Addr configures the HTTP listen address of the serve command.
	Addr string `koanf:"addr"`
	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		BaseURL:             "https://www.pro-football-reference.com",
		Season:              2023,
		UserAgent:           "pprforecast/1.0 (+polite scraper)",
		RequestDelayMS:      2500,
		HTTPTimeoutMS:       30_000,
		MaxBodyBytes:        4 << 20,
		ExcludedPositions:   []string{"QB"},
		Categories:          append([]string(nil), DefaultCategories...),
		ExcludedFeatures:    []string{"rec_long", "rush_long", "rec_success"},
		ZeroGamesPolicy:     string(averaging.ZeroGamesAsZero),
		AbortOnPlayerError:  false,
		Resume:              false,
		TrainingFile:        "train.csv",
		AveragesFile:        "averages.csv",
		PredictionsFile:     "predictions.csv",
		SortedFile:          "sorted_predictions.csv",
		ModelFile:           "fantasy_ppr_predictor.json",
		MetricsFile:         "",
		RidgeAlpha:          1.0,
		TestFraction:        0.2,
		SplitSeed:           69,
		SentinelNames:       []string{"League Average"},
		Addr:                ":9080",
		MaxLeaderboardLimit: 100,
	}
}

// RequestDelay returns the pacing gap between outbound requests.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMS) * time.Millisecond
}

// HTTPTimeout returns the per-request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// RosterURL returns the scrimmage listing for the configured season.
func (c *Config) RosterURL() string {
	return fmt.Sprintf("%s/years/%d/scrimmage.htm", c.BaseURL, c.Season)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	case c.Season < 1920:
		return fmt.Errorf("%w: season %d out of range", ErrInvalidConfig, c.Season)
	case c.RequestDelayMS < 0:
		return fmt.Errorf("%w: request_delay_ms must not be negative", ErrInvalidConfig)
	case c.HTTPTimeoutMS <= 0:
		return fmt.Errorf("%w: http_timeout_ms must be positive", ErrInvalidConfig)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	case len(c.Categories) == 0:
		return fmt.Errorf("%w: categories must not be empty", ErrInvalidConfig)
	case c.RidgeAlpha < 0:
		return fmt.Errorf("%w: ridge_alpha must not be negative", ErrInvalidConfig)
	case c.TestFraction <= 0 || c.TestFraction >= 1:
		return fmt.Errorf("%w: test_fraction must be in (0, 1)", ErrInvalidConfig)
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}
	if _, err := averaging.ParseZeroGamesPolicy(c.ZeroGamesPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, path := range []string{c.TrainingFile, c.AveragesFile, c.PredictionsFile, c.SortedFile, c.ModelFile} {
		if path == "" {
			return fmt.Errorf("%w: output file paths must not be empty", ErrInvalidConfig)
		}
	}
	return nil
}
