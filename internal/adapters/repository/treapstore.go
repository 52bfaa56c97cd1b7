package repository

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/okian/pprforecast/internal/domain/model"
	"github.com/okian/pprforecast/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: prediction DESC, then name ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst. Reads are served from an immutable snapshot that is
// republished after every write.

// scoreScale controls fixed-point scaling from float64.
const scoreScale = 1_000_000

const defaultTopCacheSize = 100

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	switch {
	case math.IsNaN(x):
		return 0
	case math.IsInf(x, 1):
		return scoreFP(math.MaxInt64)
	case math.IsInf(x, -1):
		return scoreFP(math.MinInt64)
	}
	scaled := math.Round(x * scoreScale)
	if scaled >= float64(math.MaxInt64) {
		return scoreFP(math.MaxInt64)
	}
	if scaled <= float64(math.MinInt64) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(scaled)
}

// Snapshot is an immutable view of the leaderboard.
type Snapshot struct {
	RankByName map[string]int
	TopCache   []model.RankedPrediction
	Count      int
}

// treap node
type node struct {
	name  string
	score scoreFP
	value float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aName) should appear before (bScore, bName).
func less(aScore scoreFP, aName string, bScore scoreFP, bName string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aName < bName
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// namePriority derives a stable heap priority from the name.
func namePriority(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

func insert(n *node, name string, score scoreFP, value float64) *node {
	if n == nil {
		return &node{name: name, score: score, value: value, prio: namePriority(name), size: 1}
	}
	if less(score, name, n.score, n.name) {
		n.left = insert(n.left, name, score, value)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, name, score, value)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, name string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && name == n.name:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, name, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, name, score)
		}
	case less(score, name, n.score, n.name):
		n.left = deleteNode(n.left, name, score)
	default:
		n.right = deleteNode(n.right, name, score)
	}
	fix(n)
	return n
}

// collect appends up to limit entries in rank order. limit < 0 means all.
func collect(n *node, limit int, out *[]model.RankedPrediction) {
	if n == nil || (limit >= 0 && len(*out) >= limit) {
		return
	}
	collect(n.left, limit, out)
	if limit < 0 || len(*out) < limit {
		*out = append(*out, model.RankedPrediction{Name: n.name, Prediction: n.value})
	}
	collect(n.right, limit, out)
}

// TreapStore is the in-memory leaderboard.
type TreapStore struct {
	mu           sync.RWMutex
	root         *node
	byName       map[string]scoreFP
	topCacheSize int

	snapshot atomic.Pointer[Snapshot]
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byName:       make(map[string]scoreFP),
		topCacheSize: defaultTopCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.publishSnapshotLocked()
	return s
}

// Load implements Store.Load.
func (s *TreapStore) Load(_ context.Context, rows []model.RankedPrediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.root = nil
	s.byName = make(map[string]scoreFP, len(rows))
	defer s.publishSnapshotLocked()
	for _, r := range rows {
		if err := s.putLocked(r.Name, r.Prediction); err != nil {
			return err
		}
	}
	return nil
}

// Put implements Store.Put in O(log n) expected time plus a snapshot rebuild.
func (s *TreapStore) Put(_ context.Context, name string, prediction float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.putLocked(name, prediction); err != nil {
		return err
	}
	s.publishSnapshotLocked()
	return nil
}

func (s *TreapStore) putLocked(name string, prediction float64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		metrics.RecordErrorByComponent("repository", "invalid_name")
		return ErrInvalidName
	}
	if old, ok := s.byName[name]; ok {
		s.root = deleteNode(s.root, name, old)
	}
	fp := toFixedPoint(prediction)
	s.byName[name] = fp
	s.root = insert(s.root, name, fp, prediction)
	return nil
}

// Rank returns the dense rank and prediction for a player in O(1).
func (s *TreapStore) Rank(_ context.Context, name string) (model.RankedPrediction, error) {
	snap := s.snapshot.Load()
	name = strings.TrimSpace(name)
	rank, ok := snap.RankByName[name]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.RankedPrediction{}, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.find(name)
	if n == nil {
		return model.RankedPrediction{}, ErrNotFound
	}
	return model.RankedPrediction{Rank: rank, Name: name, Prediction: n.value}, nil
}

func (s *TreapStore) find(name string) *node {
	score, ok := s.byName[name]
	if !ok {
		return nil
	}
	n := s.root
	for n != nil {
		if n.name == name && n.score == score {
			return n
		}
		if less(score, name, n.score, n.name) {
			n = n.left
		} else {
			n = n.right
		}
	}
	return nil
}

// TopN returns the top N entries ordered by prediction desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]model.RankedPrediction, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	snap := s.snapshot.Load()
	if n <= len(snap.TopCache) || len(snap.TopCache) == snap.Count {
		if n > len(snap.TopCache) {
			n = len(snap.TopCache)
		}
		out := make([]model.RankedPrediction, n)
		copy(out, snap.TopCache[:n])
		return out, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.RankedPrediction, 0, n)
	collect(s.root, n, &out)
	assignDenseRanks(out)
	return out, nil
}

// Count returns the total number of players.
func (s *TreapStore) Count(_ context.Context) int {
	return s.snapshot.Load().Count
}

// publishSnapshotLocked rebuilds and publishes a new snapshot. Caller holds
// the write lock or is the constructor.
func (s *TreapStore) publishSnapshotLocked() {
	all := make([]model.RankedPrediction, 0, len(s.byName))
	collect(s.root, -1, &all)
	assignDenseRanks(all)

	rankByName := make(map[string]int, len(all))
	for _, e := range all {
		rankByName[e.Name] = e.Rank
	}
	top := all
	if len(top) > s.topCacheSize {
		top = top[:s.topCacheSize]
	}

	s.snapshot.Store(&Snapshot{
		RankByName: rankByName,
		TopCache:   append([]model.RankedPrediction(nil), top...),
		Count:      len(all),
	})
	metrics.UpdateLeaderboardPlayers(len(all))
}

// assignDenseRanks gives equal predictions the same rank; the next distinct
// prediction takes the following rank.
func assignDenseRanks(entries []model.RankedPrediction) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Prediction != entries[i-1].Prediction {
			rank++
		}
		entries[i].Rank = rank
	}
}
