package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/pprforecast/internal/adapters/csvstore"
	"github.com/okian/pprforecast/internal/adapters/scrape"
	"github.com/okian/pprforecast/internal/domain/averaging"
	"github.com/okian/pprforecast/internal/domain/dedupe"
	"github.com/okian/pprforecast/internal/domain/model"
	"github.com/okian/pprforecast/internal/domain/stats"
	"github.com/okian/pprforecast/pkg/logger"
	"github.com/okian/pprforecast/pkg/metrics"
)

// Output file labels for metrics.
const (
	fileTraining    = "training"
	fileAverages    = "averages"
	filePredictions = "predictions"
	fileSorted      = "sorted"
)

// playerWriter turns one player's history into rows. It returns the number of
// rows written.
type playerWriter func(w *csvstore.Writer, p model.Player, h model.SeasonHistory) (int, error)

// CollectTraining writes one row per trailing-average training example for
// every eligible roster player.
func (s *Service) CollectTraining(ctx context.Context) (*RunReport, error) {
	cats := s.cfg.Categories
	return s.collect(ctx, "collect", fileTraining, s.cfg.TrainingFile, csvstore.TrainingHeader(cats),
		func(w *csvstore.Writer, p model.Player, h model.SeasonHistory) (int, error) {
			examples, err := s.aggregator.Trailing(p.Name, h)
			if err != nil {
				return 0, err
			}
			for dropped := max(len(h)-1, 0) - len(examples); dropped > 0; dropped-- {
				metrics.RecordExampleDropped()
			}
			if len(examples) == 0 {
				return 0, errNoExamples
			}
			for _, ex := range examples {
				if err := w.WriteTraining(ex, cats); err != nil {
					return 0, err
				}
			}
			return len(examples), nil
		})
}

// CollectAverages writes one career-average row for every eligible roster
// player.
func (s *Service) CollectAverages(ctx context.Context) (*RunReport, error) {
	cats := s.cfg.Categories
	return s.collect(ctx, "averages", fileAverages, s.cfg.AveragesFile, csvstore.AveragesHeader(cats),
		func(w *csvstore.Writer, p model.Player, h model.SeasonHistory) (int, error) {
			ca, err := s.aggregator.Career(p.Name, h)
			if err != nil {
				return 0, err
			}
			if err := w.WriteAverage(ca, cats); err != nil {
				return 0, err
			}
			return 1, nil
		})
}

var errNoExamples = errors.New("history too short for a training example")

func (s *Service) collect(ctx context.Context, command, label, path string, header []string, write playerWriter) (report *RunReport, err error) {
	report = newRunReport(s.newRunID(), command, path)
	log := s.logger.Named(command)
	defer func() {
		report.Duration = time.Since(report.StartedAt)
		s.setReport(report)
	}()

	log.Info(ctx, "run started",
		logger.String("run_id", report.RunID),
		logger.String("file", path),
		logger.Bool("resume", s.cfg.Resume),
	)

	players, err := s.source.Roster(ctx, s.cfg.RosterURL())
	if err != nil {
		metrics.RecordErrorByComponent("pipeline", "roster")
		return report, fmt.Errorf("fetch roster: %w", err)
	}

	var seed []string
	if s.cfg.Resume {
		if seed, err = csvstore.ReadNames(path); err != nil {
			return report, err
		}
	}
	seen := dedupe.NewInMemoryDeduper(dedupe.WithSeed(seed))

	w, err := csvstore.Create(path, header, s.cfg.Resume)
	if err != nil {
		return report, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, p := range players {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.PlayersSeen++

		if _, skip := s.excluded[p.Position]; skip {
			s.skip(ctx, log, report, p, CauseExcludedPosition, nil)
			continue
		}
		if seen.SeenAndRecord(ctx, p.Name) {
			s.skip(ctx, log, report, p, CauseSeen, nil)
			continue
		}

		history, err := s.source.SeasonLog(ctx, p.URL)
		if err == nil {
			var n int
			n, err = write(w, p, history)
			report.RowsWritten += n
			if n > 0 {
				metrics.RecordRowsWritten(label, n)
			}
			if err != nil && !playerDataError(err) {
				metrics.RecordErrorByComponent("pipeline", "write")
				return report, fmt.Errorf("%w: %s: player %s: %w", ErrOutputWrite, path, p.Name, err)
			}
		}
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return report, cerr
			}
			if ferr := s.playerFailed(ctx, log, report, p, err); ferr != nil {
				return report, ferr
			}
			continue
		}

		report.PlayersWritten++
		metrics.RecordPlayerProcessed()
		log.Info(ctx, "player written", logger.String("name", p.Name), logger.String("position", p.Position))
	}

	log.Info(ctx, "run finished",
		logger.String("run_id", report.RunID),
		logger.Int("players_seen", report.PlayersSeen),
		logger.Int("players_written", report.PlayersWritten),
		logger.Int("players_skipped", report.SkippedTotal()),
		logger.Int("rows_written", report.RowsWritten),
		logger.Duration("took", time.Since(report.StartedAt)),
	)
	return report, nil
}

// playerDataError reports whether err from a player writer comes from the
// player's stats rather than from the output file.
func playerDataError(err error) bool {
	var se *scrape.Error
	return errors.Is(err, errNoExamples) ||
		errors.Is(err, averaging.ErrEmptyHistory) ||
		errors.Is(err, averaging.ErrZeroGames) ||
		errors.Is(err, stats.ErrMissingField) ||
		errors.Is(err, stats.ErrParse) ||
		errors.As(err, &se)
}

// playerFailed applies the abort policy to a per-player fetch or stats
// error. Short histories are never failures.
func (s *Service) playerFailed(ctx context.Context, log logger.Logger, report *RunReport, p model.Player, err error) error {
	switch {
	case errors.Is(err, errNoExamples):
		s.skip(ctx, log, report, p, CauseNoExamples, nil)
		return nil
	case errors.Is(err, averaging.ErrEmptyHistory):
		s.skip(ctx, log, report, p, CauseEmptyHistory, nil)
		return nil
	}

	typed := scrape.Classify(p.URL, err)
	cause := causeOf(typed)
	if s.cfg.AbortOnPlayerError {
		metrics.RecordErrorByComponent("pipeline", cause)
		return fmt.Errorf("player %s: %w", p.Name, typed)
	}
	s.skip(ctx, log, report, p, cause, typed)
	return nil
}

func causeOf(e *scrape.Error) string {
	if errors.Is(e, averaging.ErrZeroGames) {
		return CauseZeroGames
	}
	switch e.Kind {
	case scrape.KindNetwork:
		return CauseNetwork
	case scrape.KindMissingField:
		return CauseMissingField
	default:
		return CauseParse
	}
}

func (s *Service) skip(ctx context.Context, log logger.Logger, report *RunReport, p model.Player, cause string, err error) {
	report.Skipped[cause]++
	metrics.RecordPlayerSkipped(cause)

	fields := []logger.Field{logger.String("name", p.Name), logger.String("cause", cause)}
	if err == nil {
		log.Debug(ctx, "player skipped", fields...)
		return
	}
	log.Warn(ctx, "player skipped", append(fields, logger.Error(err))...)
}
