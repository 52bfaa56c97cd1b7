// Package model contains domain models passed between layers.
package model

// FantasyPPRKey is the derived category holding a season's PPR points.
const FantasyPPRKey = "fantasy_ppr"

// Games-played categories. They weight volume averages and are never features.
const (
	GamesKey        = "g"
	GamesStartedKey = "gs"
)

// SeasonStat is one player-season: category -> value, plus fantasy_ppr.
// It is immutable once built; categories keep the order they appeared in on
// the source page.
type SeasonStat struct {
	values map[string]float64
	order  []string
}

// NewSeasonStat builds a SeasonStat, copying its inputs.
func NewSeasonStat(order []string, values map[string]float64) SeasonStat {
	s := SeasonStat{
		values: make(map[string]float64, len(values)),
		order:  make([]string, 0, len(order)),
	}
	for _, cat := range order {
		if _, dup := s.values[cat]; dup {
			continue
		}
		if v, ok := values[cat]; ok {
			s.values[cat] = v
			s.order = append(s.order, cat)
		}
	}
	return s
}

// Get returns the value for cat and whether it exists.
func (s SeasonStat) Get(cat string) (float64, bool) {
	v, ok := s.values[cat]
	return v, ok
}

// Categories returns a copy of the category names in page order.
func (s SeasonStat) Categories() []string {
	return append([]string(nil), s.order...)
}

// Games returns games played, 0 if the category is absent.
func (s SeasonStat) Games() float64 {
	return s.values[GamesKey]
}

// FantasyPPR returns the derived fantasy points.
func (s SeasonStat) FantasyPPR() float64 {
	return s.values[FantasyPPRKey]
}

// SeasonHistory is a player's seasons, most recent first.
type SeasonHistory []SeasonStat

// Features maps averaged category -> value.
type Features map[string]float64

// TrainingExample pairs trailing-average features with the fantasy_ppr of
// the season that followed them.
type TrainingExample struct {
	Name       string
	FantasyPPR float64
	Features   Features
}

// CareerAverage is the feature vector averaged over a whole career.
type CareerAverage struct {
	Name     string
	Features Features
}

// Player is one roster row.
type Player struct {
	Name     string
	URL      string
	Position string
}

// Prediction is a player's features plus the model output.
type Prediction struct {
	Name      string
	Features  Features
	Predicted float64
}

// RankedPrediction is one row of the sorted predictions file.
type RankedPrediction struct {
	Rank       int     `json:"rank"`
	Name       string  `json:"name"`
	Prediction float64 `json:"prediction"`
}
