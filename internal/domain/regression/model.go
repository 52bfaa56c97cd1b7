package regression

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/pprforecast/internal/domain/model"
)

// Default training configuration constants.
const (
	defaultAlpha        = 1.0
	defaultTestFraction = 0.2
	defaultSplitSeed    = 69
)

// Dataset is a feature matrix with its labels. Features names the columns.
type Dataset struct {
	Features []string
	X        *mat.Dense
	Y        []float64
}

// Rows returns the number of observations.
func (d Dataset) Rows() int {
	if d.X == nil {
		return 0
	}
	r, _ := d.X.Dims()
	return r
}

// subset copies the given rows.
func (d Dataset) subset(idx []int) Dataset {
	_, cols := d.X.Dims()
	x := mat.NewDense(len(idx), cols, nil)
	y := make([]float64, len(idx))
	for i, src := range idx {
		x.SetRow(i, mat.Row(nil, src, d.X))
		y[i] = d.Y[src]
	}
	return Dataset{Features: d.Features, X: x, Y: y}
}

// Evaluation holds held-out quality numbers.
type Evaluation struct {
	MSE       float64 `json:"mse"`
	R2        float64 `json:"r2"`
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
}

// Model is the persisted predictor: column order, scaler and ridge weights.
type Model struct {
	Features   []string   `json:"features"`
	Scaler     Scaler     `json:"scaler"`
	Ridge      Ridge      `json:"ridge"`
	Evaluation Evaluation `json:"evaluation"`
}

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithAlpha sets the ridge penalty.
func WithAlpha(alpha float64) Option {
	return func(t *Trainer) {
		if alpha >= 0 {
			t.alpha = alpha
		}
	}
}

// WithTestFraction sets the held-out share.
func WithTestFraction(f float64) Option {
	return func(t *Trainer) {
		if f > 0 && f < 1 {
			t.testFraction = f
		}
	}
}

// WithSplitSeed sets the shuffle seed of the train/test split.
func WithSplitSeed(seed int64) Option {
	return func(t *Trainer) {
		t.seed = seed
	}
}

// Trainer splits, scales and fits.
type Trainer struct {
	alpha        float64
	testFraction float64
	seed         int64
}

// NewTrainer creates a Trainer with configuration options.
func NewTrainer(opts ...Option) *Trainer {
	t := &Trainer{
		alpha:        defaultAlpha,
		testFraction: defaultTestFraction,
		seed:         defaultSplitSeed,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Split shuffles row indexes with the trainer's seed and holds out
// ceil(n*testFraction) of them, keeping at least one row on each side.
func (t *Trainer) Split(n int) (train, test []int) {
	perm := rand.New(rand.NewSource(t.seed)).Perm(n) //nolint:gosec // reproducible split, not security
	nTest := int(math.Ceil(float64(n) * t.testFraction))
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-1 {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

// Train fits the scaler on the train split, fits ridge on the scaled train
// split and evaluates on the scaled test split.
func (t *Trainer) Train(d Dataset) (*Model, error) {
	n := d.Rows()
	if n != len(d.Y) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrShapeMismatch, n, len(d.Y))
	}
	if n < 3 {
		return nil, fmt.Errorf("%w: have %d, need at least 3", ErrNotEnoughRows, n)
	}

	trainIdx, testIdx := t.Split(n)
	train, test := d.subset(trainIdx), d.subset(testIdx)

	scaler := FitScaler(train.X)
	ridge, err := FitRidge(scaler.Transform(train.X), train.Y, t.alpha)
	if err != nil {
		return nil, err
	}

	predicted := ridge.Predict(scaler.Transform(test.X))
	return &Model{
		Features: append([]string(nil), d.Features...),
		Scaler:   scaler,
		Ridge:    ridge,
		Evaluation: Evaluation{
			MSE:       MSE(predicted, test.Y),
			R2:        R2(predicted, test.Y),
			TrainRows: len(trainIdx),
			TestRows:  len(testIdx),
		},
	}, nil
}

// Predict scores one feature mapping. Every model feature must be present.
func (m *Model) Predict(f model.Features) (float64, error) {
	if m == nil || !m.consistent() {
		return 0, ErrNotFitted
	}
	row := make([]float64, len(m.Features))
	for j, name := range m.Features {
		v, ok := f[name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingFeature, name)
		}
		row[j] = v
	}
	return m.Ridge.PredictRow(m.Scaler.TransformRow(row)), nil
}

// Save writes the model as indented JSON.
func (m *Model) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// Load reads a model written by Save.
func Load(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if len(m.Features) == 0 || !m.consistent() {
		return nil, ErrNotFitted
	}
	return &m, nil
}

// consistent reports whether coefficients and scaler parameters line up with
// the feature list.
func (m *Model) consistent() bool {
	n := len(m.Features)
	return len(m.Ridge.Coefficients) == n && len(m.Scaler.Means) == n && len(m.Scaler.Scales) == n
}

// MSE is the mean squared error of predicted against actual.
func MSE(predicted, actual []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sum float64
	for i := range actual {
		d := predicted[i] - actual[i]
		sum += d * d
	}
	return sum / float64(len(actual))
}

// R2 is the coefficient of determination of predicted against actual.
func R2(predicted, actual []float64) float64 {
	return stat.RSquaredFrom(predicted, actual, nil)
}
