package results

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bbsga/internal/metrics"
)

func report(n int, base float64) metrics.Report {
	col := func(off float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = base + off + float64(i)
		}
		return out
	}
	return metrics.Report{
		MSE: col(0), PSNR: col(10), MSSSIM: col(0.5), MSSSIMDB: col(20),
		BPP: col(1), YBPP: col(2), ZBPP: col(3), BPPBack: col(4),
	}
}

func TestRecord_AppendAndMean(t *testing.T) {
	r := NewRecord()
	require.NoError(t, r.Append(report(2, 0)))
	require.NoError(t, r.Append(report(1, 10)))
	assert.Equal(t, 3, r.Len())

	mse, err := r.Values("mse")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 10}, mse)

	mean, err := r.Mean("est_bpp")
	require.NoError(t, err)
	assert.InDelta(t, (1+2+11)/3.0, mean, 1e-12)

	_, err = r.Mean("bogus")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestRecord_AppendRagged(t *testing.T) {
	rep := report(2, 0)
	rep.BPPBack = rep.BPPBack[:1]
	r := NewRecord()
	require.Error(t, r.Append(rep))
	assert.Equal(t, 0, r.Len())
}

func TestFileName(t *testing.T) {
	tests := []struct {
		runName string
		input   string
		lambda  float64
		want    string
	}{
		{"bb_sga-num_filters=192-lmbda=0.01", "/data/kodim01.png", 0.01,
			"rd-bb_sga-num_filters=192-lmbda=0.01-input=kodim01.png.safetensors"},
		{"mbt2018-num_filters=192-lmbda=0.01", "kodak.safetensors", 0.01,
			"rd-bb_sga-lmbda=0.01+mbt2018-num_filters=192-lmbda=0.01-input=kodak.safetensors.safetensors"},
		{"bmshj2018", "img.png", 1e-5,
			"rd-bb_sga-lmbda=1e-05+bmshj2018-input=img.png.safetensors"},
		{"bmshj2018", "img.png", 2048,
			"rd-bb_sga-lmbda=2048+bmshj2018-input=img.png.safetensors"},
	}
	for _, tt := range tests {
		t.Run(tt.runName, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.runName, tt.input, tt.lambda))
		})
	}
}

func TestSaveLoad(t *testing.T) {
	r := NewRecord()
	require.NoError(t, r.Append(report(3, 1)))
	meta := NewMetadata("run-lmbda=0.01", "/tmp/in.png", 0.01)
	_, err := uuid.Parse(meta[MetaRunID])
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), FileName("run-lmbda=0.01", "in.png", 0.01))
	require.NoError(t, r.Save(path, meta))

	got, gotMeta, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(meta, gotMeta); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	for _, f := range Fields {
		want, _ := r.Values(f)
		have, _ := got.Values(f)
		assert.Equal(t, want, have, f)
	}
}

func TestSave_Empty(t *testing.T) {
	err := NewRecord().Save(filepath.Join(t.TempDir(), "x.safetensors"), nil)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestWriteSummary(t *testing.T) {
	r := NewRecord()
	require.NoError(t, r.Append(report(2, 0)))

	var buf bytes.Buffer
	r.WriteSummary(&buf)
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(Fields))
	for i, f := range Fields {
		assert.Contains(t, lines[i], "Avg "+f+":")
	}
	assert.Contains(t, lines[0], "0.5000")
	assert.Contains(t, lines[1], "10.5000")
}
