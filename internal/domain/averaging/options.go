// Package averaging derives feature vectors from a player's season history.
package averaging

import "fmt"

// ZeroGamesPolicy decides how a window without games played is averaged.
type ZeroGamesPolicy string

// Supported policies.
const (
	// ZeroGamesAsZero sets every volume feature of the window to 0.
	ZeroGamesAsZero ZeroGamesPolicy = "zero"
	// ZeroGamesSkip drops the training example built from the window.
	ZeroGamesSkip ZeroGamesPolicy = "skip"
	// ZeroGamesError fails with ErrZeroGames.
	ZeroGamesError ZeroGamesPolicy = "error"
)

// ParseZeroGamesPolicy validates a configured policy name.
func ParseZeroGamesPolicy(s string) (ZeroGamesPolicy, error) {
	switch p := ZeroGamesPolicy(s); p {
	case ZeroGamesAsZero, ZeroGamesSkip, ZeroGamesError:
		return p, nil
	default:
		return "", fmt.Errorf("unknown zero games policy %q", s)
	}
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithZeroGamesPolicy sets the policy for windows without games played.
func WithZeroGamesPolicy(p ZeroGamesPolicy) Option {
	return func(a *Aggregator) {
		if p != "" {
			a.zeroGames = p
		}
	}
}

// WithExcluded replaces the categories that are never averaged.
func WithExcluded(categories ...string) Option {
	return func(a *Aggregator) {
		a.excluded = make(map[string]struct{}, len(categories))
		for _, c := range categories {
			a.excluded[c] = struct{}{}
		}
	}
}
