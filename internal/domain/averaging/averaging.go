package averaging

import (
	"fmt"
	"strings"

	"github.com/okian/pprforecast/internal/domain/model"
	"github.com/okian/pprforecast/internal/domain/stats"
)

// Categories whose name contains rateMarker are already per-event rates and
// are averaged by season count. Everything else is a volume stat averaged per
// game played.
const rateMarker = "per"

// IsRate reports whether cat is a rate-style category.
func IsRate(cat string) bool {
	return strings.Contains(cat, rateMarker)
}

// Aggregator averages season histories into features.
type Aggregator struct {
	zeroGames ZeroGamesPolicy
	excluded  map[string]struct{}
}

// New creates an Aggregator. By default g, gs and fantasy_ppr are excluded
// and empty windows average to zero.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		zeroGames: ZeroGamesAsZero,
		excluded: map[string]struct{}{
			model.GamesKey:        {},
			model.GamesStartedKey: {},
			model.FantasyPPRKey:   {},
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// window accumulates sums over a contiguous run of seasons.
type window struct {
	sums    map[string]float64
	games   float64
	seasons int
}

func newWindow() *window {
	return &window{sums: make(map[string]float64)}
}

func (w *window) add(s model.SeasonStat, cats []string) error {
	for _, cat := range cats {
		v, ok := s.Get(cat)
		if !ok {
			return &stats.FieldError{Field: cat, Err: stats.ErrMissingField}
		}
		w.sums[cat] += v
	}
	w.games += s.Games()
	w.seasons++
	return nil
}

// average returns the window's features, or ok=false when the window has
// no games and the policy is skip.
func (a *Aggregator) average(w *window, cats []string) (model.Features, bool, error) {
	out := make(model.Features, len(cats))
	noGames := w.games == 0
	if noGames {
		switch a.zeroGames {
		case ZeroGamesSkip:
			return nil, false, nil
		case ZeroGamesError:
			return nil, false, ErrZeroGames
		}
	}
	for _, cat := range cats {
		switch {
		case IsRate(cat):
			out[cat] = w.sums[cat] / float64(w.seasons)
		case noGames:
			out[cat] = 0
		default:
			out[cat] = w.sums[cat] / w.games
		}
	}
	return out, true, nil
}

// categories lists the averaged categories of the most recent season.
func (a *Aggregator) categories(h model.SeasonHistory) []string {
	all := h[0].Categories()
	cats := make([]string, 0, len(all))
	for _, cat := range all {
		if _, skip := a.excluded[cat]; skip {
			continue
		}
		cats = append(cats, cat)
	}
	return cats
}

// Trailing builds one training example per season that has at least one
// earlier season. h is most recent first, so example i is labeled with
// season i's fantasy_ppr and averages seasons i+1..len(h)-1 only.
// Histories with fewer than two seasons yield no examples.
func (a *Aggregator) Trailing(name string, h model.SeasonHistory) ([]model.TrainingExample, error) {
	if len(h) < 2 {
		return nil, nil
	}
	cats := a.categories(h)

	// Walk from the oldest season forward, growing the window by one season
	// before emitting the example for the next more recent season.
	built := make([]*model.TrainingExample, len(h)-1)
	w := newWindow()
	for i := len(h) - 1; i >= 1; i-- {
		if err := w.add(h[i], cats); err != nil {
			return nil, fmt.Errorf("season %d of %s: %w", i, name, err)
		}
		label, ok := h[i-1].Get(model.FantasyPPRKey)
		if !ok {
			return nil, &stats.FieldError{Field: model.FantasyPPRKey, Err: stats.ErrMissingField}
		}
		features, keep, err := a.average(w, cats)
		if err != nil {
			return nil, fmt.Errorf("example %d of %s: %w", i-1, name, err)
		}
		if !keep {
			continue
		}
		built[i-1] = &model.TrainingExample{Name: name, FantasyPPR: label, Features: features}
	}

	out := make([]model.TrainingExample, 0, len(built))
	for _, ex := range built {
		if ex != nil {
			out = append(out, *ex)
		}
	}
	return out, nil
}

// Career averages the whole history into one feature vector for predicting
// the season that has not been played yet. The skip policy cannot drop the
// only result, so it fails with ErrZeroGames like the error policy.
func (a *Aggregator) Career(name string, h model.SeasonHistory) (model.CareerAverage, error) {
	if len(h) == 0 {
		return model.CareerAverage{}, ErrEmptyHistory
	}
	cats := a.categories(h)
	w := newWindow()
	for i := range h {
		if err := w.add(h[i], cats); err != nil {
			return model.CareerAverage{}, fmt.Errorf("season %d of %s: %w", i, name, err)
		}
	}
	features, keep, err := a.average(w, cats)
	if err != nil {
		return model.CareerAverage{}, fmt.Errorf("career of %s: %w", name, err)
	}
	if !keep {
		return model.CareerAverage{}, fmt.Errorf("career of %s: %w", name, ErrZeroGames)
	}
	return model.CareerAverage{Name: name, Features: features}, nil
}
