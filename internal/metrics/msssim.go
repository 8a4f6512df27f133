package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/bbsga/internal/parallel"
	"github.com/born-ml/bbsga/internal/tensor"
)

// MS-SSIM parameters.
const (
	FilterSize  = 11
	FilterSigma = 1.5
	K1          = 0.01
	K2          = 0.03
)

// PowerFactors weigh the five scales of MS-SSIM, finest first.
var PowerFactors = [...]float64{0.0448, 0.2856, 0.3001, 0.2363, 0.1333}

// plane is one channel of one image.
type plane struct {
	h, w int
	data []float64
}

// MSSSIM returns the multi-scale structural similarity of every image,
// averaged over channels.
//
// Each scale filters with an 11×11 Gaussian window (σ = 1.5); between
// scales the images are padded to even size by edge reflection and
// average-pooled 2×2. The contrast-structure terms of the first four scales
// and the SSIM of the last scale are rectified and combined as a weighted
// geometric mean. The window shrinks to the image size when the image is
// smaller than 11 pixels at some scale.
func MSSSIM(a, b *tensor.Tensor, maxVal float64) []float64 {
	mustMatch("MSSSIM", a, b)
	n, h, w, c := a.Dims4()
	planes := make([]float64, n*c)
	parallel.ForBatch(n, c, func(i, ch int) {
		planes[i*c+ch] = msssimPlane(extract(a, i, ch, h, w), extract(b, i, ch, h, w), maxVal)
	}, parallel.HeavyConfig())

	out := make([]float64, n)
	for i := range out {
		out[i] = floats.Sum(planes[i*c:(i+1)*c]) / float64(c)
	}
	return out
}

func msssimPlane(x, y plane, maxVal float64) float64 {
	result := 1.0
	for k, weight := range PowerFactors {
		if k > 0 {
			x, y = downsample(x), downsample(y)
		}
		ssim, cs := ssimPlane(x, y, maxVal)
		v := cs
		if k == len(PowerFactors)-1 {
			v = ssim
		}
		result *= math.Pow(math.Max(v, 0), weight)
	}
	return result
}

// ssimPlane returns the mean SSIM and mean contrast-structure term.
func ssimPlane(x, y plane, maxVal float64) (ssim, cs float64) {
	size := min(FilterSize, x.h, x.w)
	kernel := gaussianKernel(size, FilterSigma)

	c1 := (K1 * maxVal) * (K1 * maxVal)
	c2 := (K2 * maxVal) * (K2 * maxVal)

	xy := make([]float64, len(x.data))
	sq := make([]float64, len(x.data))
	for i := range xy {
		xy[i] = x.data[i] * y.data[i]
		sq[i] = x.data[i]*x.data[i] + y.data[i]*y.data[i]
	}

	mean0 := filter(x, kernel)
	mean1 := filter(y, kernel)
	num1 := filter(plane{x.h, x.w, xy}, kernel)
	den1 := filter(plane{x.h, x.w, sq}, kernel)

	var ssimSum, csSum float64
	for i := range mean0 {
		num0 := 2 * mean0[i] * mean1[i]
		den0 := mean0[i]*mean0[i] + mean1[i]*mean1[i]
		luminance := (num0 + c1) / (den0 + c1)
		contrast := (2*num1[i] - num0 + c2) / (den1[i] - den0 + c2)
		ssimSum += luminance * contrast
		csSum += contrast
	}
	count := float64(len(mean0))
	return ssimSum / count, csSum / count
}

// gaussianKernel returns a normalized 1-D Gaussian window.
func gaussianKernel(size int, sigma float64) []float64 {
	k := make([]float64, size)
	center := float64(size-1) / 2
	for i := range k {
		d := float64(i) - center
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// filter applies the separable window with VALID padding.
func filter(p plane, k []float64) []float64 {
	s := len(k)
	oh, ow := p.h-s+1, p.w-s+1

	rows := make([]float64, p.h*ow)
	for r := 0; r < p.h; r++ {
		for c := 0; c < ow; c++ {
			rows[r*ow+c] = floats.Dot(k, p.data[r*p.w+c:r*p.w+c+s])
		}
	}

	out := make([]float64, oh*ow)
	for r := 0; r < oh; r++ {
		for c := 0; c < ow; c++ {
			var v float64
			for i := 0; i < s; i++ {
				v += k[i] * rows[(r+i)*ow+c]
			}
			out[r*ow+c] = v
		}
	}
	return out
}

// downsample pads odd dimensions by repeating the last row/column and
// average-pools 2×2 blocks.
func downsample(p plane) plane {
	h, w := p.h+p.h%2, p.w+p.w%2
	at := func(r, c int) float64 {
		return p.data[min(r, p.h-1)*p.w+min(c, p.w-1)]
	}
	out := plane{h: h / 2, w: w / 2, data: make([]float64, h/2*w/2)}
	for r := 0; r < out.h; r++ {
		for c := 0; c < out.w; c++ {
			out.data[r*out.w+c] = (at(2*r, 2*c) + at(2*r+1, 2*c) + at(2*r, 2*c+1) + at(2*r+1, 2*c+1)) / 4
		}
	}
	return out
}

func extract(t *tensor.Tensor, n, ch, h, w int) plane {
	c := t.Shape()[3]
	data := t.Data()
	p := plane{h: h, w: w, data: make([]float64, h*w)}
	base := n * h * w * c
	for i := range p.data {
		p.data[i] = data[base+i*c+ch]
	}
	return p
}
