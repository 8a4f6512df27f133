package entropy_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bbsga/internal/autodiff"
	"github.com/born-ml/bbsga/internal/entropy"
	"github.com/born-ml/bbsga/internal/rng"
	"github.com/born-ml/bbsga/internal/tensor"
)

func TestScaleTable(t *testing.T) {
	table := entropy.ScaleTable()
	require.Len(t, table, entropy.ScalesLevels)
	assert.InDelta(t, 0.11, table[0], 1e-12)
	assert.InDelta(t, 256, table[len(table)-1], 1e-9)

	ratio := table[1] / table[0]
	for i := 1; i < len(table); i++ {
		assert.Greater(t, table[i], table[i-1])
		assert.InDelta(t, ratio, table[i]/table[i-1], 1e-9)
	}

	table[0] = -1
	assert.InDelta(t, 0.11, entropy.ScaleBound(), 1e-12, "table must be read-only")
}

func TestGaussianConditional_Normalized(t *testing.T) {
	const n = 201
	y := tensor.New(tensor.Shape{n})
	for i := range y.Data() {
		y.Data()[i] = float64(i - n/2)
	}
	mu := tensor.Full(tensor.Shape{n}, 0.3)
	sigma := tensor.Full(tensor.Shape{n}, 2)

	l := entropy.GaussianConditional(autodiff.New(), y, mu, sigma)
	assert.InDelta(t, 1, tensor.Sum(l), 1e-6)
}

func TestGaussianConditional_Bounds(t *testing.T) {
	y, _ := tensor.FromSlice([]float64{1e3, 0, -50}, tensor.Shape{3})
	mu := tensor.Zeros(tensor.Shape{3})
	sigma, _ := tensor.FromSlice([]float64{1, 1e-6, 0.5}, tensor.Shape{3})

	l := entropy.GaussianConditional(autodiff.New(), y, mu, sigma).Data()
	for _, v := range l {
		assert.GreaterOrEqual(t, v, entropy.LikelihoodBound)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.Equal(t, entropy.LikelihoodBound, l[0])

	// A vanishing scale is clamped to the smallest table entry.
	want := 2*normalCDF(0.5/entropy.ScaleBound()) - 1
	assert.InDelta(t, want, l[1], 1e-9)
}

func normalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func TestLogNormalPDF(t *testing.T) {
	z, _ := tensor.FromSlice([]float64{0.5, -1, 2}, tensor.Shape{3})
	mean, _ := tensor.FromSlice([]float64{0, -1, 1}, tensor.Shape{3})
	logvar, _ := tensor.FromSlice([]float64{0, math.Log(4), -1}, tensor.Shape{3})

	got := entropy.LogNormalPDF(autodiff.New(), z, mean, logvar).Data()
	for i := range got {
		v := math.Exp(logvar.Data()[i])
		d := z.Data()[i] - mean.Data()[i]
		want := -0.5*math.Log(2*math.Pi*v) - d*d/(2*v)
		assert.InDelta(t, want, got[i], 1e-12)
	}
}

func newPrior(t *testing.T, channels int) *entropy.FactorizedPrior {
	t.Helper()
	p := entropy.NewFactorizedPrior(channels, []int{3, 3, 3}, 10, rng.New(7))
	// Non-zero factors exercise the tanh gates.
	r := rng.New(11)
	params := p.StateDict()
	for i := 0; i < 3; i++ {
		f := params[factorName(i)]
		copy(f.Data(), r.Uniform(f.Shape(), -0.8, 0.8).Data())
	}
	return p
}

func factorName(i int) string {
	return fmt.Sprintf("factor.%d", i)
}

func TestFactorizedPrior_StateDict(t *testing.T) {
	p := entropy.NewFactorizedPrior(4, []int{3, 3, 3}, 10, rng.New(1))
	params := p.StateDict()
	assert.Len(t, params, 4+4+3)
	assert.Equal(t, tensor.Shape{4, 3, 1}, params["matrix.0"].Shape())
	assert.Equal(t, tensor.Shape{4, 1, 3}, params["matrix.3"].Shape())
	assert.Equal(t, tensor.Shape{4, 3}, params["factor.2"].Shape())
	assert.Equal(t, []int{3, 3, 3}, p.Filters())

	for _, v := range params["bias.1"].Data() {
		assert.GreaterOrEqual(t, v, -0.5)
		assert.Less(t, v, 0.5)
	}

	q := entropy.NewFactorizedPrior(4, []int{3, 3, 3}, 10, rng.New(2))
	require.NoError(t, q.LoadStateDict(params))
	assert.Equal(t, params["bias.1"].Data(), q.StateDict()["bias.1"].Data())

	delete(params, "bias.0")
	assert.Error(t, q.LoadStateDict(params))
}

func TestFactorizedPrior_Normalized(t *testing.T) {
	p := newPrior(t, 2)
	const n = 401
	z := tensor.New(tensor.Shape{1, n, 1, 2})
	for i := 0; i < n; i++ {
		z.Data()[2*i] = float64(i - n/2)
		z.Data()[2*i+1] = float64(i - n/2)
	}
	l := p.Likelihood(autodiff.New(), z).Data()

	var sums [2]float64
	for i, v := range l {
		assert.Greater(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		sums[i%2] += v
	}
	assert.InDelta(t, 1, sums[0], 1e-4)
	assert.InDelta(t, 1, sums[1], 1e-4)
}

func TestFactorizedPrior_Gradient(t *testing.T) {
	p := newPrior(t, 3)
	z := rng.New(5).Uniform(tensor.Shape{1, 2, 2, 3}, -3, 3)

	b := autodiff.New()
	b.Tape().StartRecording()
	loss := b.Sum(b.Log(p.Likelihood(b, z)))
	grad := autodiff.Grad(b.Gradients(loss), z).Data()

	const eps = 1e-6
	eval := func() float64 {
		return tensor.Sum(tensor.Map(p.Likelihood(autodiff.New(), z), math.Log))
	}
	data := z.Data()
	for i := range data {
		orig := data[i]
		data[i] = orig + eps
		plus := eval()
		data[i] = orig - eps
		minus := eval()
		data[i] = orig
		numeric := (plus - minus) / (2 * eps)
		require.InDeltaf(t, numeric, grad[i], 1e-5*math.Max(1, math.Abs(numeric)), "element %d", i)
	}
}

func TestFactorizedPrior_ChannelMismatch(t *testing.T) {
	p := entropy.NewFactorizedPrior(2, []int{3}, 10, rng.New(1))
	assert.Panics(t, func() {
		p.Likelihood(autodiff.New(), tensor.Zeros(tensor.Shape{1, 1, 1, 3}))
	})
}
