package regression

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Ridge is an L2-penalized linear model. The intercept is not penalized.
type Ridge struct {
	Alpha        float64   `json:"alpha"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// FitRidge solves (XcᵀXc + αI)β = Xcᵀyc on centered data and recovers the
// intercept from the means. With α = 0 it falls back to least squares.
func FitRidge(x mat.Matrix, y []float64, alpha float64) (Ridge, error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return Ridge{}, fmt.Errorf("%w: %d rows, %d labels", ErrShapeMismatch, rows, len(y))
	}
	if rows < 2 || cols == 0 {
		return Ridge{}, fmt.Errorf("%w: %d rows, %d features", ErrNotEnoughRows, rows, cols)
	}

	xMeans := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		xMeans[j] = stat.Mean(col, nil)
	}
	yMean := stat.Mean(y, nil)

	xc := mat.NewDense(rows, cols, nil)
	xc.Apply(func(_, j int, v float64) float64 { return v - xMeans[j] }, x)
	yc := mat.NewVecDense(rows, nil)
	for i, v := range y {
		yc.SetVec(i, v-yMean)
	}

	var beta mat.VecDense
	if alpha > 0 {
		var gram mat.SymDense
		gram.SymOuterK(1, xc.T())
		for j := 0; j < cols; j++ {
			gram.SetSym(j, j, gram.At(j, j)+alpha)
		}
		var xty mat.VecDense
		xty.MulVec(xc.T(), yc)

		var chol mat.Cholesky
		if ok := chol.Factorize(&gram); !ok {
			return Ridge{}, ErrSingular
		}
		if err := chol.SolveVecTo(&beta, &xty); err != nil {
			return Ridge{}, fmt.Errorf("%w: %w", ErrSingular, err)
		}
	} else if err := beta.SolveVec(xc, yc); err != nil {
		return Ridge{}, fmt.Errorf("%w: %w", ErrSingular, err)
	}

	coef := make([]float64, cols)
	for j := range coef {
		coef[j] = beta.AtVec(j)
	}
	return Ridge{
		Alpha:        alpha,
		Coefficients: coef,
		Intercept:    yMean - floats.Dot(coef, xMeans),
	}, nil
}

// PredictRow returns the model output for one observation.
func (r Ridge) PredictRow(row []float64) float64 {
	return r.Intercept + floats.Dot(r.Coefficients, row)
}

// Predict returns outputs for every row of x.
func (r Ridge) Predict(x mat.Matrix) []float64 {
	rows, cols := x.Dims()
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, x)
		out[i] = r.PredictRow(row)
	}
	return out
}
