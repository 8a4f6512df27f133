package optim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bbsga/internal/autodiff"
	"github.com/born-ml/bbsga/internal/optim"
	"github.com/born-ml/bbsga/internal/tensor"
)

func vec(values ...float64) *tensor.Tensor {
	t, err := tensor.FromSlice(values, tensor.Shape{len(values)})
	if err != nil {
		panic(err)
	}
	return t
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})
	x := vec(2.0)

	out, err := opt.Update([]*tensor.Tensor{x}, []*tensor.Tensor{vec(1.0)})
	require.NoError(t, err)

	// x_new = 2.0 - 0.1 * 1.0
	assert.InDelta(t, 1.9, out[0].Item(), 1e-12)
	assert.Equal(t, 2.0, x.Item(), "inputs are not modified")
	assert.Equal(t, 1, opt.GetTimestep())
}

// TestSGD_WithMomentum tests SGD with momentum.
func TestSGD_WithMomentum(t *testing.T) {
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	params := []*tensor.Tensor{vec(1.0)}
	grads := []*tensor.Tensor{vec(1.0)}

	// v1 = 1, x1 = 0.9; v2 = 1.9, x2 = 0.71
	params, err := opt.Update(params, grads)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, params[0].Item(), 1e-12)

	params, err = opt.Update(params, grads)
	require.NoError(t, err)
	assert.InDelta(t, 0.71, params[0].Item(), 1e-12)
}

func TestSGD_GetSetLR(t *testing.T) {
	opt := optim.NewSGD(optim.SGDConfig{})
	assert.Equal(t, 0.01, opt.GetLR())
	opt.SetLR(0.001)
	assert.Equal(t, 0.001, opt.GetLR())
}

// TestAdam_SimpleUpdate tests the first, bias-corrected Adam step.
func TestAdam_SimpleUpdate(t *testing.T) {
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.001, Betas: [2]float64{0.9, 0.999}, Eps: 1e-8})

	out, err := opt.Update([]*tensor.Tensor{vec(1.0)}, []*tensor.Tensor{vec(1.0)})
	require.NoError(t, err)

	// m_hat = v_hat = 1 after bias correction, so x moves by exactly lr.
	assert.InDelta(t, 0.999, out[0].Item(), 1e-9)
}

// TestAdam_StepSizeIndependentOfScale checks that the first step has
// magnitude lr·|g|/(|g|+eps), which is lr up to eps, regardless of gradient
// magnitude.
func TestAdam_StepSizeIndependentOfScale(t *testing.T) {
	const lr, eps = 0.005, 1e-8
	for _, g := range []float64{1e-4, 1, 1e4, -3} {
		opt := optim.NewAdam(optim.AdamConfig{LR: lr, Eps: eps})
		out, err := opt.Update([]*tensor.Tensor{vec(0)}, []*tensor.Tensor{vec(g)})
		require.NoError(t, err)

		want := -lr * g / (math.Abs(g) + eps)
		assert.InDelta(t, want, out[0].Item(), 1e-12, "g=%g", g)
		assert.InEpsilon(t, -lr*math.Copysign(1, g), out[0].Item(), 1e-5, "g=%g", g)
	}
}

func TestAdam_Defaults(t *testing.T) {
	opt := optim.NewAdam(optim.AdamConfig{})
	assert.Equal(t, 0.001, opt.GetLR())
	assert.Equal(t, 0, opt.GetTimestep())
}

// TestAdam_Heterogeneous updates positions of unrelated shapes and checks
// that state is per position.
func TestAdam_Heterogeneous(t *testing.T) {
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.01})
	a := tensor.Full(tensor.Shape{1, 2, 2, 3}, 1)
	b := vec(5, 6)
	ga := tensor.Full(tensor.Shape{1, 2, 2, 3}, 0.5)
	gb := vec(-1, 0)

	params := []*tensor.Tensor{a, b}
	for i := 1; i <= 3; i++ {
		var err error
		params, err = opt.Update(params, []*tensor.Tensor{ga, gb})
		require.NoError(t, err)
		assert.Equal(t, i, opt.GetTimestep())
	}

	// Constant gradients give |m_hat/sqrt(v_hat)| = 1 each step.
	for _, v := range params[0].Data() {
		assert.InDelta(t, 1-3*0.01, v, 1e-6)
	}
	assert.InDelta(t, 5+3*0.01, params[1].Data()[0], 1e-6)
	assert.Equal(t, 6.0, params[1].Data()[1], "zero gradient leaves the parameter in place")
}

func TestOptimizers_ShapeErrors(t *testing.T) {
	for _, kind := range []optim.Kind{optim.KindAdam, optim.KindSGD} {
		t.Run(string(kind), func(t *testing.T) {
			opt, err := optim.New(kind, 0.01)
			require.NoError(t, err)

			_, err = opt.Update([]*tensor.Tensor{vec(1)}, nil)
			assert.ErrorIs(t, err, optim.ErrShapeMismatch)

			_, err = opt.Update([]*tensor.Tensor{vec(1, 2)}, []*tensor.Tensor{vec(1)})
			assert.ErrorIs(t, err, optim.ErrShapeMismatch)
			assert.Equal(t, 0, opt.GetTimestep())

			_, err = opt.Update([]*tensor.Tensor{vec(1, 2)}, []*tensor.Tensor{vec(1, 1)})
			require.NoError(t, err)

			// A position may not change shape between calls.
			_, err = opt.Update([]*tensor.Tensor{vec(1, 2, 3)}, []*tensor.Tensor{vec(1, 1, 1)})
			assert.ErrorIs(t, err, optim.ErrShapeMismatch)

			_, err = opt.Update([]*tensor.Tensor{vec(1, 2), vec(3)}, []*tensor.Tensor{vec(1, 1), vec(1)})
			assert.ErrorIs(t, err, optim.ErrShapeMismatch)
			assert.Equal(t, 1, opt.GetTimestep())
		})
	}
}

func TestNew(t *testing.T) {
	opt, err := optim.New(optim.KindAdam, 0.003)
	require.NoError(t, err)
	assert.IsType(t, &optim.Adam{}, opt)
	assert.Equal(t, 0.003, opt.GetLR())

	opt, err = optim.New(optim.KindSGD, 0.1)
	require.NoError(t, err)
	assert.IsType(t, &optim.SGD{}, opt)

	_, err = optim.New("lbfgs", 0.1)
	assert.Error(t, err)
	_, err = optim.New(optim.KindAdam, 0)
	assert.Error(t, err)
}

// TestConvergence_SimpleQuadratic minimizes f(x) = Σ x² with gradients
// taken from the tape.
func TestConvergence_SimpleQuadratic(t *testing.T) {
	for _, kind := range []optim.Kind{optim.KindAdam, optim.KindSGD} {
		t.Run(string(kind), func(t *testing.T) {
			opt, err := optim.New(kind, 0.05)
			require.NoError(t, err)
			params := []*tensor.Tensor{vec(2, -3)}

			for range 500 {
				b := autodiff.New()
				b.Tape().StartRecording()
				loss := b.Sum(b.Square(params[0]))
				grads := b.Gradients(loss)
				params, err = opt.Update(params, []*tensor.Tensor{autodiff.Grad(grads, params[0])})
				require.NoError(t, err)
			}
			for _, v := range params[0].Data() {
				assert.InDelta(t, 0, v, 0.05)
			}
		})
	}
}
