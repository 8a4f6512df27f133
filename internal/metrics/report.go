package metrics

import "github.com/born-ml/bbsga/internal/tensor"

// Report holds per-image evaluation results of one batch.
type Report struct {
	MSE      []float64
	PSNR     []float64
	MSSSIM   []float64
	MSSSIMDB []float64

	// Estimated rates in bits per pixel.
	BPP     []float64 // BPP = YBPP + ZBPP - BPPBack
	YBPP    []float64
	ZBPP    []float64
	BPPBack []float64
}

// Len returns the number of images in the report.
func (r Report) Len() int {
	return len(r.MSE)
}

// Evaluate fills the distortion fields of a report for original images x
// and reconstructions xTilde, both in [0, 1]. The reconstruction is
// quantized with Quantize first.
func Evaluate(x, xTilde *tensor.Tensor) Report {
	ref := tensor.Scale(x, MaxVal)
	rec := Quantize(xTilde)
	msssim := MSSSIM(rec, ref, MaxVal)
	return Report{
		MSE:      MSE(ref, rec),
		PSNR:     PSNR(rec, ref, MaxVal),
		MSSSIM:   msssim,
		MSSSIMDB: MSSSIMDB(msssim),
	}
}
