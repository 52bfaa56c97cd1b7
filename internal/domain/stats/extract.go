// Package stats turns raw season-log cells into normalized season stats and
// derives their PPR fantasy points.
package stats

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/pprforecast/internal/domain/model"
)

// PPR scoring weights.
const (
	yardPoints      = 0.1
	touchdownPoints = 6
	receptionPoints = 1
	fumblePenalty   = 2
)

// Categories carrying a per-game suffix are already normalized by the source
// and are dropped.
const perGameMarker = "per_g"

// Cell is one raw table cell: its data-stat name and visible text.
type Cell struct {
	Stat string
	Text string
}

// Record is one raw season row in page order.
type Record []Cell

// Extract normalizes a raw record into a SeasonStat and computes fantasy_ppr.
// Percent signs are stripped and empty cells count as zero.
func Extract(rec Record) (model.SeasonStat, error) {
	order := make([]string, 0, len(rec)+1)
	values := make(map[string]float64, len(rec)+1)

	for _, c := range rec {
		if c.Stat == "" || strings.Contains(c.Stat, perGameMarker) {
			continue
		}
		v, err := parseValue(c.Text)
		if err != nil {
			return model.SeasonStat{}, &FieldError{Field: c.Stat, Value: c.Text, Err: ErrParse}
		}
		if _, seen := values[c.Stat]; !seen {
			order = append(order, c.Stat)
		}
		values[c.Stat] = v
	}

	ppr, err := FantasyPPR(values)
	if err != nil {
		return model.SeasonStat{}, err
	}
	values[model.FantasyPPRKey] = ppr
	order = append(order, model.FantasyPPRKey)

	return model.NewSeasonStat(order, values), nil
}

// FantasyPPR computes
//
//	0.1*rush_yds + 6*rush_td + 0.1*rec_yds + 6*rec_td + rec - 2*fumbles
//
// rounded to one decimal. A missing input is a *FieldError wrapping
// ErrMissingField.
func FantasyPPR(values map[string]float64) (float64, error) {
	get := func(key string) (float64, error) {
		v, ok := values[key]
		if !ok {
			return 0, &FieldError{Field: key, Err: ErrMissingField}
		}
		return v, nil
	}

	var in [6]float64
	for i, key := range [...]string{"rush_yds", "rush_td", "rec_yds", "rec_td", "rec", "fumbles"} {
		v, err := get(key)
		if err != nil {
			return 0, err
		}
		in[i] = v
	}
	rushYds, rushTD, recYds, recTD, rec, fumbles := in[0], in[1], in[2], in[3], in[4], in[5]

	points := rushYds*yardPoints + rushTD*touchdownPoints +
		recYds*yardPoints + recTD*touchdownPoints +
		rec*receptionPoints - fumbles*fumblePenalty
	return RoundTenth(points), nil
}

// RoundTenth rounds x to one decimal place, halves away from zero.
func RoundTenth(x float64) float64 {
	return math.Round(x*10) / 10
}

func parseValue(text string) (float64, error) {
	t := strings.Trim(strings.TrimSpace(text), "%")
	if t == "" {
		return 0, nil
	}
	return strconv.ParseFloat(t, 64)
}
