package averaging

import "errors"

// Sentinel kinds for averaging errors.
var (
	ErrEmptyHistory = errors.New("empty season history")
	ErrZeroGames    = errors.New("no games played in averaging window")
)
