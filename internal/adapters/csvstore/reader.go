package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/okian/pprforecast/internal/domain/model"
	"github.com/okian/pprforecast/internal/domain/regression"
)

// ReadNames returns the name column of an existing output file. A missing
// file yields no names.
func ReadNames(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // operator-chosen path
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var names []string
	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if first {
			first = false
			continue
		}
		if len(rec) > 0 && rec[0] != "" {
			names = append(names, rec[0])
		}
	}
}

// loadFrame reads a file with a string name column and float columns elsewhere.
func loadFrame(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path) //nolint:gosec // operator-chosen path
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
		dataframe.WithTypes(map[string]series.Type{NameColumn: series.String}),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parse %s: %w", path, df.Err)
	}
	if !slices.Contains(df.Names(), NameColumn) {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s in %s", ErrMissingColumn, NameColumn, path)
	}
	return df, nil
}

// floatColumn returns a column as float64, rejecting unparsable cells.
func floatColumn(df dataframe.DataFrame, col string) ([]float64, error) {
	vals := df.Col(col).Float()
	for i, v := range vals {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: column %s row %d", ErrInvalidValue, col, i+1)
		}
	}
	return vals, nil
}

// LoadDataset reads a training file into a feature matrix. The name column,
// the label and any excluded columns are dropped from the features; an
// excluded column that is not present is ignored.
func LoadDataset(path, label string, excluded []string) (regression.Dataset, error) {
	df, err := loadFrame(path)
	if err != nil {
		return regression.Dataset{}, err
	}
	if !slices.Contains(df.Names(), label) {
		return regression.Dataset{}, fmt.Errorf("%w: %s in %s", ErrMissingColumn, label, path)
	}
	y, err := floatColumn(df, label)
	if err != nil {
		return regression.Dataset{}, err
	}

	var features []string
	for _, name := range df.Names() {
		if name == NameColumn || name == label || slices.Contains(excluded, name) {
			continue
		}
		features = append(features, name)
	}

	if df.Nrow() == 0 || len(features) == 0 {
		return regression.Dataset{Features: features, Y: y}, nil
	}
	x := mat.NewDense(df.Nrow(), len(features), nil)
	for j, name := range features {
		col, err := floatColumn(df, name)
		if err != nil {
			return regression.Dataset{}, err
		}
		x.SetCol(j, col)
	}
	return regression.Dataset{Features: features, X: x, Y: y}, nil
}

// LoadAverages reads the career averages file. Columns are returned in file
// order without the name column.
func LoadAverages(path string) ([]model.CareerAverage, []string, error) {
	df, err := loadFrame(path)
	if err != nil {
		return nil, nil, err
	}
	names := df.Col(NameColumn).Records()

	var columns []string
	values := make(map[string][]float64)
	for _, c := range df.Names() {
		if c == NameColumn {
			continue
		}
		col, err := floatColumn(df, c)
		if err != nil {
			return nil, nil, err
		}
		columns = append(columns, c)
		values[c] = col
	}

	out := make([]model.CareerAverage, len(names))
	for i, n := range names {
		f := make(model.Features, len(columns))
		for _, c := range columns {
			f[c] = values[c][i]
		}
		out[i] = model.CareerAverage{Name: n, Features: f}
	}
	return out, columns, nil
}

// ReadPredictions returns (name, last column) for every data row of a
// predictions file.
func ReadPredictions(path string) ([]model.RankedPrediction, error) {
	return readPairs(path)
}

// ReadRanked reads a sorted file and numbers rows by position.
func ReadRanked(path string) ([]model.RankedPrediction, error) {
	rows, err := readPairs(path)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

func readPairs(path string) ([]model.RankedPrediction, error) {
	f, err := os.Open(path) //nolint:gosec // operator-chosen path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	out := make([]model.RankedPrediction, 0, len(recs)-1)
	for i, rec := range recs[1:] {
		if len(rec) < 2 {
			return nil, fmt.Errorf("%w: %s line %d has %d fields", ErrInvalidValue, path, i+2, len(rec))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[len(rec)-1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %w", ErrInvalidValue, path, i+2, err)
		}
		out = append(out, model.RankedPrediction{Name: rec[0], Prediction: v})
	}
	return out, nil
}
