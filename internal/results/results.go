// Package results accumulates per-image evaluation results across batches
// and persists them.
package results

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/bbsga/internal/metrics"
	"github.com/born-ml/bbsga/internal/serialization"
	"github.com/born-ml/bbsga/internal/tensor"
)

// ScriptName identifies runs trained by this method in run names and
// result files.
const ScriptName = "bb_sga"

// Fields lists the per-image result fields in reporting order.
var Fields = []string{"mse", "psnr", "msssim", "msssim_db", "est_bpp", "est_y_bpp", "est_z_bpp", "est_bpp_back"}

// Metadata keys of a saved result file.
const (
	MetaRunID   = "run_id"
	MetaRunName = "run_name"
	MetaLambda  = "lambda"
	MetaInput   = "input"
)

var (
	// ErrNoResults is returned when saving a record without images.
	ErrNoResults = errors.New("results: no images recorded")

	// ErrUnknownField is returned for a field not in Fields.
	ErrUnknownField = errors.New("results: unknown field")
)

// Record holds per-image values of every field, in the order images were
// appended.
type Record struct {
	values map[string][]float64
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	r := &Record{values: make(map[string][]float64, len(Fields))}
	for _, f := range Fields {
		r.values[f] = nil
	}
	return r
}

// Append adds the images of one batch report.
func (r *Record) Append(rep metrics.Report) error {
	cols := reportColumns(rep)
	n := rep.Len()
	for i, f := range Fields {
		if len(cols[i]) != n {
			return fmt.Errorf("results: field %s has %d values, want %d", f, len(cols[i]), n)
		}
	}
	for i, f := range Fields {
		r.values[f] = append(r.values[f], cols[i]...)
	}
	return nil
}

func reportColumns(rep metrics.Report) [][]float64 {
	return [][]float64{rep.MSE, rep.PSNR, rep.MSSSIM, rep.MSSSIMDB, rep.BPP, rep.YBPP, rep.ZBPP, rep.BPPBack}
}

// Len returns the number of images recorded.
func (r *Record) Len() int {
	return len(r.values[Fields[0]])
}

// Values returns the per-image values of field.
func (r *Record) Values(field string) ([]float64, error) {
	v, ok := r.values[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return v, nil
}

// Mean returns the mean of field over all images; NaN when empty.
func (r *Record) Mean(field string) (float64, error) {
	v, err := r.Values(field)
	if err != nil {
		return 0, err
	}
	return stat.Mean(v, nil), nil
}

// FileName returns the result file name of a run.
//
// A run trained by this method is named after itself; otherwise the
// refinement λ and the training run are both encoded.
func FileName(runName, inputFile string, lambda float64) string {
	input := filepath.Base(inputFile)
	trainedBy, _, _ := strings.Cut(runName, "-")
	if trainedBy == ScriptName {
		return fmt.Sprintf("rd-%s-input=%s.safetensors", runName, input)
	}
	return fmt.Sprintf("rd-%s-lmbda=%s+%s-input=%s.safetensors", ScriptName, formatG(lambda), runName, input)
}

// formatG formats like C's %g, with six significant digits.
func formatG(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// NewMetadata returns the metadata stored with a result file, including a
// fresh run identifier.
func NewMetadata(runName, inputFile string, lambda float64) map[string]string {
	return map[string]string{
		MetaRunID:   uuid.NewString(),
		MetaRunName: runName,
		MetaLambda:  strconv.FormatFloat(lambda, 'g', -1, 64),
		MetaInput:   filepath.Base(inputFile),
	}
}

// Save writes one F64 tensor of shape (N) per field.
func (r *Record) Save(path string, metadata map[string]string) error {
	n := r.Len()
	if n == 0 {
		return ErrNoResults
	}
	tensors := make(map[string]*tensor.Tensor, len(Fields))
	for _, f := range Fields {
		t, err := tensor.FromSlice(r.values[f], tensor.Shape{n})
		if err != nil {
			return fmt.Errorf("results: field %s: %w", f, err)
		}
		tensors[f] = t
	}
	if err := serialization.WriteFile(path, tensors, serialization.F64, metadata); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

// Load reads a result file written by Save.
func Load(path string) (*Record, map[string]string, error) {
	file, err := serialization.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load results: %w", err)
	}
	r := NewRecord()
	n := -1
	for _, f := range Fields {
		t, err := file.Tensor(f)
		if err != nil {
			return nil, nil, fmt.Errorf("load results: %w", err)
		}
		if n >= 0 && t.NumElements() != n {
			return nil, nil, fmt.Errorf("load results: field %s has %d values, want %d", f, t.NumElements(), n)
		}
		n = t.NumElements()
		r.values[f] = append([]float64(nil), t.Data()...)
	}
	return r, file.Metadata, nil
}

// WriteSummary prints the mean of every field as "Avg <field>" rows.
func (r *Record) WriteSummary(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")

	rows := make([][]string, 0, len(Fields))
	for _, f := range Fields {
		mean := stat.Mean(r.values[f], nil)
		rows = append(rows, []string{"Avg " + f + ":", fmt.Sprintf("%0.4f", mean)})
	}
	table.AppendBulk(rows)
	table.Render()
}
