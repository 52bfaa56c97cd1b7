// Package service runs the forecasting pipeline: collect training rows and
// career averages from the site, train the model, predict, sort, and back the
// HTTP leaderboard.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/pprforecast/internal/adapters/repository"
	"github.com/okian/pprforecast/internal/adapters/scrape"
	"github.com/okian/pprforecast/internal/config"
	"github.com/okian/pprforecast/internal/domain/averaging"
	"github.com/okian/pprforecast/internal/domain/model"
	"github.com/okian/pprforecast/internal/domain/ranking"
	"github.com/okian/pprforecast/internal/domain/regression"
	"github.com/okian/pprforecast/pkg/logger"
)

// Source fetches roster listings and per-player season logs.
type Source interface {
	Roster(ctx context.Context, url string) ([]model.Player, error)
	SeasonLog(ctx context.Context, url string) (model.SeasonHistory, error)
}

// Service owns the pipeline components.
type Service struct {
	mu sync.RWMutex

	cfg         *config.Config
	source      Source
	aggregator  *averaging.Aggregator
	trainer     *regression.Trainer
	ranker      *ranking.Ranker
	leaderboard repository.Store
	excluded    map[string]struct{}
	newRunID    func() string

	// State
	lastReport *RunReport
	model      *regression.Model

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource replaces the site client.
func WithSource(src Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithLeaderboard replaces the leaderboard store.
func WithLeaderboard(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.leaderboard = store
		}
	}
}

// WithRunIDGenerator sets how run ids are minted.
func WithRunIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newRunID = fn
		}
	}
}

// New builds a Service from cfg. Components not supplied through options are
// constructed from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := averaging.ParseZeroGamesPolicy(cfg.ZeroGamesPolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	s := &Service{
		cfg:        cfg,
		aggregator: averaging.New(averaging.WithZeroGamesPolicy(policy)),
		trainer: regression.NewTrainer(
			regression.WithAlpha(cfg.RidgeAlpha),
			regression.WithTestFraction(cfg.TestFraction),
			regression.WithSplitSeed(cfg.SplitSeed),
		),
		ranker:      ranking.New(ranking.WithSentinels(cfg.SentinelNames)),
		leaderboard: repository.NewTreapStore(repository.WithTopCacheSize(cfg.MaxLeaderboardLimit)),
		excluded:    make(map[string]struct{}, len(cfg.ExcludedPositions)),
		newRunID:    uuid.NewString,
		logger:      logger.Discard(),
	}
	for _, pos := range cfg.ExcludedPositions {
		s.excluded[pos] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = scrape.NewClient(
			scrape.WithDelay(cfg.RequestDelay()),
			scrape.WithTimeout(cfg.HTTPTimeout()),
			scrape.WithUserAgent(cfg.UserAgent),
			scrape.WithMaxBodyBytes(cfg.MaxBodyBytes),
			scrape.WithLogger(s.logger.Named("scrape")),
		)
	}
	return s, nil
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]model.RankedPrediction, error) {
	return s.leaderboard.TopN(ctx, n)
}

// Rank returns the rank and prediction for a player.
func (s *Service) Rank(ctx context.Context, name string) (model.RankedPrediction, error) {
	return s.leaderboard.Rank(ctx, name)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"players": s.leaderboard.Count(context.Background()),
		"season":  s.cfg.Season,
	}
	if s.lastReport != nil {
		stats["last_run"] = s.lastReport
	}
	if s.model != nil {
		stats["model_features"] = len(s.model.Features)
		stats["model_test_mse"] = s.model.Evaluation.MSE
		stats["model_test_r2"] = s.model.Evaluation.R2
	}
	return stats
}

func (s *Service) setReport(r *RunReport) {
	s.mu.Lock()
	s.lastReport = r
	s.mu.Unlock()
}

func (s *Service) setModel(m *regression.Model) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}
