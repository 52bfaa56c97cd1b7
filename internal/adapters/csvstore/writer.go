// Package csvstore reads and writes the pipeline's flat files. All files are
// comma-delimited with one header row.
package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/okian/pprforecast/internal/domain/model"
	"github.com/okian/pprforecast/internal/domain/stats"
)

// Fixed column names.
const (
	NameColumn       = "name"
	PredictedColumn  = "predicted_fantasy_ppr"
	PredictionColumn = "prediction"
)

// TrainingHeader is name, fantasy_ppr, then the feature categories.
func TrainingHeader(categories []string) []string {
	return append([]string{NameColumn, model.FantasyPPRKey}, categories...)
}

// AveragesHeader is name, then the feature categories.
func AveragesHeader(categories []string) []string {
	return append([]string{NameColumn}, categories...)
}

// PredictionsHeader is name, the feature columns, then the prediction.
func PredictionsHeader(columns []string) []string {
	h := append([]string{NameColumn}, columns...)
	return append(h, PredictedColumn)
}

// SortedHeader is name, prediction.
func SortedHeader() []string {
	return []string{NameColumn, PredictionColumn}
}

// Writer appends rows to one output file and flushes after every row so an
// interrupted run keeps what it wrote.
type Writer struct {
	f    *os.File
	w    *csv.Writer
	cols []string
	rows int
}

// Create opens path for writing. With appendMode an existing file is kept and
// the header is only written when the file is empty; otherwise the file is
// truncated and the header written.
func Create(path string, header []string, appendMode bool) (*Writer, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644) //nolint:gosec // operator-chosen output path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	w := &Writer{f: f, w: csv.NewWriter(f), cols: header}
	if info.Size() == 0 {
		if err := w.write(header); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return w, nil
}

// Rows reports how many data rows this writer has written.
func (w *Writer) Rows() int { return w.rows }

// WriteTraining writes one training example in category order.
func (w *Writer) WriteTraining(ex model.TrainingExample, categories []string) error {
	vals, err := featureRow(ex.Features, categories)
	if err != nil {
		return err
	}
	return w.writeRow(append([]string{ex.Name, formatFloat(ex.FantasyPPR)}, vals...))
}

// WriteAverage writes one career average in category order.
func (w *Writer) WriteAverage(ca model.CareerAverage, categories []string) error {
	vals, err := featureRow(ca.Features, categories)
	if err != nil {
		return err
	}
	return w.writeRow(append([]string{ca.Name}, vals...))
}

// WritePrediction writes features in column order followed by the prediction.
func (w *Writer) WritePrediction(p model.Prediction, columns []string) error {
	vals, err := featureRow(p.Features, columns)
	if err != nil {
		return err
	}
	row := append([]string{p.Name}, vals...)
	return w.writeRow(append(row, formatFloat(p.Predicted)))
}

// WriteRanked writes one sorted row.
func (w *Writer) WriteRanked(r model.RankedPrediction) error {
	return w.writeRow([]string{r.Name, formatFloat(r.Prediction)})
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("flush: %w", err)
	}
	return w.f.Close()
}

func (w *Writer) writeRow(rec []string) error {
	if err := w.write(rec); err != nil {
		return err
	}
	w.rows++
	return nil
}

func (w *Writer) write(rec []string) error {
	if err := w.w.Write(rec); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.w.Flush()
	return w.w.Error()
}

// featureRow renders values in column order. A category absent from the
// features is a missing field.
func featureRow(f model.Features, columns []string) ([]string, error) {
	out := make([]string, len(columns))
	for i, c := range columns {
		v, ok := f[c]
		if !ok {
			return nil, &stats.FieldError{Field: c, Err: stats.ErrMissingField}
		}
		out[i] = formatFloat(v)
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
