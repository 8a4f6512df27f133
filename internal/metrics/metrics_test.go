package metrics_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"

	"github.com/born-ml/bbsga/internal/metrics"
	"github.com/born-ml/bbsga/internal/rng"
	"github.com/born-ml/bbsga/internal/tensor"
)

func TestMSEAndPSNR(t *testing.T) {
	a := tensor.Full(tensor.Shape{2, 4, 4, 3}, 100)
	b := a.Clone()
	// Image 1 differs by 5 everywhere; image 0 is identical.
	d := b.Data()
	for i := 48; i < 96; i++ {
		d[i] += 5
	}

	if diff := cmp.Diff([]float64{0, 25}, metrics.MSE(a, b)); diff != "" {
		t.Errorf("MSE mismatch (-want +got):\n%s", diff)
	}
	psnr := metrics.PSNR(a, b, 255)
	assert.True(t, math.IsInf(psnr[0], 1))
	assert.InDelta(t, 10*math.Log10(255*255/25.0), psnr[1], 1e-12)
}

func TestQuantize(t *testing.T) {
	x, _ := tensor.FromSlice([]float64{-0.2, 0, 0.5, 0.999, 1.4}, tensor.Shape{5})
	assert.Equal(t, []float64{0, 0, 128, 255, 255}, metrics.Quantize(x).Data())
}

func TestMSSSIM_Identical(t *testing.T) {
	x := rng.New(1).Uniform(tensor.Shape{2, 64, 48, 3}, 0, 255)
	got := metrics.MSSSIM(x, x, 255)
	if diff := cmp.Diff([]float64{1, 1}, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("MSSSIM(x, x) mismatch (-want +got):\n%s", diff)
	}
}

func TestMSSSIM_DegradesWithNoise(t *testing.T) {
	r := rng.New(2)
	x := r.Uniform(tensor.Shape{1, 64, 64, 1}, 50, 200)
	small := tensor.Add(x, tensor.Scale(r.Normal(x.Shape()), 2))
	large := tensor.Add(x, tensor.Scale(r.Normal(x.Shape()), 30))

	s := metrics.MSSSIM(x, small, 255)[0]
	l := metrics.MSSSIM(x, large, 255)[0]
	assert.Less(t, s, 1.0)
	assert.Less(t, l, s)
	assert.GreaterOrEqual(t, l, 0.0)
}

func TestMSSSIM_SmallImages(t *testing.T) {
	// Smaller than the Gaussian window at every scale.
	x := tensor.Full(tensor.Shape{1, 8, 8, 3}, 128)
	y := tensor.Full(tensor.Shape{1, 8, 8, 3}, 120)
	v := metrics.MSSSIM(x, y, 255)[0]
	assert.False(t, math.IsNaN(v))
	assert.Greater(t, v, 0.0)
	assert.Less(t, v, 1.0)
}

func TestMSSSIMDB(t *testing.T) {
	got := metrics.MSSSIMDB([]float64{0.9, 0.99})
	if diff := cmp.Diff([]float64{10, 20}, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("MSSSIMDB mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate(t *testing.T) {
	x := tensor.Full(tensor.Shape{1, 16, 16, 3}, 0.5)
	r := metrics.Evaluate(x, x)
	assert.Equal(t, 1, r.Len())
	// 0.5·255 = 127.5 against the quantized 128.
	assert.InDelta(t, 0.25, r.MSE[0], 1e-12)
	assert.InDelta(t, 10*math.Log10(255*255/0.25), r.PSNR[0], 1e-9)
}
