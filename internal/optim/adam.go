package optim

import (
	"math"

	"github.com/born-ml/bbsga/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.005,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
type Adam struct {
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int            // Timestep for bias correction
	shapes []tensor.Shape // Shape per position, fixed by the first Update
	m      [][]float64    // First moment estimates
	v      [][]float64    // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer. Zero config fields take the
// defaults LR 0.001, Betas (0.9, 0.999), Eps 1e-8.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
	}
}

// Update performs a single optimization step using Adam algorithm.
//
// On error the optimizer state is left unchanged.
func (a *Adam) Update(params, grads []*tensor.Tensor) ([]*tensor.Tensor, error) {
	shapes, err := checkInputs(params, grads, a.shapes)
	if err != nil {
		return nil, err
	}
	if a.shapes == nil {
		a.shapes = shapes
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for i, p := range params {
			a.m[i] = make([]float64, p.NumElements())
			a.v[i] = make([]float64, p.NumElements())
		}
	}

	a.t++
	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))

	out := make([]*tensor.Tensor, len(params))
	for i, p := range params {
		out[i] = a.updateParameter(p, grads[i], a.m[i], a.v[i], biasCorrection1, biasCorrection2)
	}
	return out, nil
}

// updateParameter performs the Adam update for a single position.
func (a *Adam) updateParameter(param, grad *tensor.Tensor, m, v []float64, biasCorrection1, biasCorrection2 float64) *tensor.Tensor {
	out := param.Clone()
	paramData := out.Data()
	gradData := grad.Data()

	for i := range paramData {
		g := gradData[i]
		m[i] = a.beta1*m[i] + (1.0-a.beta1)*g
		v[i] = a.beta2*v[i] + (1.0-a.beta2)*g*g

		mHat := m[i] / biasCorrection1
		vHat := v[i] / biasCorrection2
		paramData[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
	return out
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// GetTimestep returns the current timestep.
func (a *Adam) GetTimestep() int {
	return a.t
}
