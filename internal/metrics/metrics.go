// Package metrics computes per-image distortion metrics on [0, 255] images.
//
// All functions take NHWC batches and return one value per image.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/bbsga/internal/tensor"
)

// MaxVal is the dynamic range of evaluated images.
const MaxVal = 255.0

// Quantize maps a reconstruction in [0, 1] to integer pixel values: clip to
// [0, 1], scale by 255 and round.
func Quantize(x *tensor.Tensor) *tensor.Tensor {
	return tensor.Map(x, func(v float64) float64 {
		return math.RoundToEven(math.Min(math.Max(v, 0), 1) * MaxVal)
	})
}

// MSE returns the mean squared error of every image.
func MSE(a, b *tensor.Tensor) []float64 {
	mustMatch("MSE", a, b)
	n := a.Shape()[0]
	per := a.NumElements() / n
	out := make([]float64, n)
	diff := tensor.Sub(a, b).Data()
	for i := range out {
		d := diff[i*per : (i+1)*per]
		out[i] = floats.Dot(d, d) / float64(per)
	}
	return out
}

// PSNR returns 10·log10(maxVal² / mse) for every image. Identical images
// give +Inf.
func PSNR(a, b *tensor.Tensor, maxVal float64) []float64 {
	mse := MSE(a, b)
	out := make([]float64, len(mse))
	for i, m := range mse {
		out[i] = 10 * math.Log10(maxVal*maxVal/m)
	}
	return out
}

// MSSSIMDB converts MS-SSIM values to decibels: −10·log10(1 − msssim).
func MSSSIMDB(msssim []float64) []float64 {
	out := make([]float64, len(msssim))
	for i, v := range msssim {
		out[i] = -10 * math.Log10(1-v)
	}
	return out
}

func mustMatch(op string, a, b *tensor.Tensor) {
	if !a.Shape().Equal(b.Shape()) || len(a.Shape()) != 4 {
		panic(fmt.Sprintf("metrics.%s: expected equal NHWC shapes, got %v and %v", op, a.Shape(), b.Shape()))
	}
}
