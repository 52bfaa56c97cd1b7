// Package regression fits and applies the fantasy_ppr prediction model: a
// standard scaler followed by ridge linear regression.
package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes columns to zero mean and unit variance.
// Constant columns keep a scale of 1 so they transform to zero.
type Scaler struct {
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`
}

// FitScaler computes per-column mean and population standard deviation.
func FitScaler(x mat.Matrix) Scaler {
	rows, cols := x.Dims()
	s := Scaler{Means: make([]float64, cols), Scales: make([]float64, cols)}
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		mean, variance := stat.PopMeanVariance(col, nil)
		sd := math.Sqrt(variance)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		s.Means[j] = mean
		s.Scales[j] = sd
	}
	return s
}

// Transform returns a scaled copy of x.
func (s Scaler) Transform(x mat.Matrix) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Means[j]) / s.Scales[j]
	}, x)
	return out
}

// TransformRow scales one observation in place order.
func (s Scaler) TransformRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Means[j]) / s.Scales[j]
	}
	return out
}
