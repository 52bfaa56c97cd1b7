// Package ranking orders predictions for the sorted output file.
package ranking

import (
	"sort"
	"strings"

	"github.com/okian/pprforecast/internal/domain/model"
)

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithSentinels sets names that are never ranked, such as league-average rows.
func WithSentinels(names []string) Option {
	return func(r *Ranker) {
		r.sentinels = make(map[string]struct{}, len(names))
		for _, n := range names {
			r.sentinels[strings.TrimSpace(n)] = struct{}{}
		}
	}
}

// Ranker sorts predictions by predicted value, highest first.
type Ranker struct {
	sentinels map[string]struct{}
}

// New creates a Ranker with configuration options.
func New(opts ...Option) *Ranker {
	r := &Ranker{sentinels: map[string]struct{}{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank drops empty and sentinel names, then stable-sorts the rest descending.
// Equal predictions keep their input order. Ranks are 1-based positions.
func (r *Ranker) Rank(rows []model.RankedPrediction) []model.RankedPrediction {
	out := make([]model.RankedPrediction, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			continue
		}
		if _, skip := r.sentinels[name]; skip {
			continue
		}
		row.Name = name
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Prediction > out[j].Prediction
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
