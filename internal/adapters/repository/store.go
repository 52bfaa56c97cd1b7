// Package repository holds the ranked prediction leaderboard served over HTTP.
package repository

import (
	"context"

	"github.com/okian/pprforecast/internal/domain/model"
)

// Store provides read/write access to the leaderboard.
type Store interface {
	// Load replaces the leaderboard with rows. Later duplicates of a name win.
	Load(ctx context.Context, rows []model.RankedPrediction) error
	// Put sets a player's prediction, inserting or replacing it.
	Put(ctx context.Context, name string, prediction float64) error

	// Rank returns the current rank and prediction for a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, name string) (model.RankedPrediction, error)

	// TopN returns the top-N entries ordered by prediction desc.
	TopN(ctx context.Context, n int) ([]model.RankedPrediction, error)

	// Count returns the number of players on the leaderboard.
	Count(ctx context.Context) int
}
