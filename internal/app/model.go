package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/okian/pprforecast/internal/adapters/csvstore"
	"github.com/okian/pprforecast/internal/domain/model"
	"github.com/okian/pprforecast/internal/domain/regression"
	"github.com/okian/pprforecast/pkg/logger"
	"github.com/okian/pprforecast/pkg/metrics"
)

// Train fits the model on the training file and saves the artifact.
func (s *Service) Train(ctx context.Context) (*regression.Model, error) {
	log := s.logger.Named("train")
	start := time.Now()

	ds, err := csvstore.LoadDataset(s.cfg.TrainingFile, model.FantasyPPRKey, s.cfg.ExcludedFeatures)
	if err != nil {
		return nil, fmt.Errorf("load training data: %w", err)
	}
	m, err := s.trainer.Train(ds)
	if err != nil {
		metrics.RecordErrorByComponent("model", "train")
		return nil, fmt.Errorf("train: %w", err)
	}
	if err := saveModel(s.cfg.ModelFile, m); err != nil {
		return nil, err
	}

	metrics.UpdateModelQuality(m.Evaluation.MSE, m.Evaluation.R2)
	metrics.UpdateModelShape(m.Evaluation.TrainRows, len(m.Features))
	s.setModel(m)

	log.Info(ctx, "model trained",
		logger.Int("train_rows", m.Evaluation.TrainRows),
		logger.Int("test_rows", m.Evaluation.TestRows),
		logger.Int("features", len(m.Features)),
		logger.Float64("test_mse", m.Evaluation.MSE),
		logger.Float64("test_r2", m.Evaluation.R2),
		logger.String("model_file", s.cfg.ModelFile),
		logger.Duration("took", time.Since(start)),
	)
	return m, nil
}

// Predict scores every career-average row with the saved model and writes
// the predictions file. Every averages column is carried through and the
// prediction appended last.
func (s *Service) Predict(ctx context.Context) ([]model.Prediction, error) {
	log := s.logger.Named("predict")

	m, err := loadModel(s.cfg.ModelFile)
	if err != nil {
		return nil, err
	}
	s.setModel(m)

	averages, columns, err := csvstore.LoadAverages(s.cfg.AveragesFile)
	if err != nil {
		return nil, fmt.Errorf("load averages: %w", err)
	}

	preds := make([]model.Prediction, 0, len(averages))
	for _, a := range averages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := m.Predict(a.Features)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", a.Name, err)
		}
		preds = append(preds, model.Prediction{Name: a.Name, Features: a.Features, Predicted: v})
	}

	w, err := csvstore.Create(s.cfg.PredictionsFile, csvstore.PredictionsHeader(columns), false)
	if err != nil {
		return nil, err
	}
	for _, p := range preds {
		if err := w.WritePrediction(p, columns); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	metrics.RecordPredictions(len(preds))
	metrics.RecordRowsWritten(filePredictions, len(preds))
	log.Info(ctx, "predictions written",
		logger.Int("players", len(preds)),
		logger.String("file", s.cfg.PredictionsFile),
	)
	return preds, nil
}

// Sort ranks the predictions file and writes the sorted file.
func (s *Service) Sort(ctx context.Context) ([]model.RankedPrediction, error) {
	rows, err := csvstore.ReadPredictions(s.cfg.PredictionsFile)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	ranked := s.ranker.Rank(rows)

	w, err := csvstore.Create(s.cfg.SortedFile, csvstore.SortedHeader(), false)
	if err != nil {
		return nil, err
	}
	for _, r := range ranked {
		if err := w.WriteRanked(r); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	metrics.RecordRowsWritten(fileSorted, len(ranked))
	s.logger.Named("sort").Info(ctx, "sorted predictions written",
		logger.Int("players", len(ranked)),
		logger.Int("dropped", len(rows)-len(ranked)),
		logger.String("file", s.cfg.SortedFile),
	)
	return ranked, nil
}

// LoadLeaderboard fills the leaderboard from the sorted file. Rows are
// re-ranked so a hand-edited file still serves in prediction order.
func (s *Service) LoadLeaderboard(ctx context.Context) (int, error) {
	rows, err := csvstore.ReadRanked(s.cfg.SortedFile)
	if err != nil {
		return 0, fmt.Errorf("load sorted predictions: %w", err)
	}
	ranked := s.ranker.Rank(rows)
	if err := s.leaderboard.Load(ctx, ranked); err != nil {
		return 0, err
	}
	if m, err := loadModel(s.cfg.ModelFile); err == nil {
		s.setModel(m)
	}
	s.logger.Named("serve").Info(ctx, "leaderboard loaded", logger.Int("players", len(ranked)))
	return len(ranked), nil
}

func saveModel(path string, m *regression.Model) error {
	f, err := os.Create(path) //nolint:gosec // operator-chosen path
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := m.Save(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("save model: %w", err)
	}
	return f.Close()
}

func loadModel(path string) (*regression.Model, error) {
	f, err := os.Open(path) //nolint:gosec // operator-chosen path
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }()
	m, err := regression.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return m, nil
}
