package tensor

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Map applies f to every element and returns the result.
func Map(t *Tensor, f func(float64) float64) *Tensor {
	out := New(t.shape)
	for i, v := range t.data {
		out.data[i] = f(v)
	}
	return out
}

// Zip combines two same-shaped tensors element-wise.
func Zip(a, b *Tensor, f func(x, y float64) float64) *Tensor {
	mustMatch("Zip", a.shape, b.shape)
	out := New(a.shape)
	for i := range a.data {
		out.data[i] = f(a.data[i], b.data[i])
	}
	return out
}

// Add returns a + b.
func Add(a, b *Tensor) *Tensor {
	mustMatch("Add", a.shape, b.shape)
	out := a.Clone()
	floats.Add(out.data, b.data)
	return out
}

// Sub returns a - b.
func Sub(a, b *Tensor) *Tensor {
	mustMatch("Sub", a.shape, b.shape)
	out := a.Clone()
	floats.Sub(out.data, b.data)
	return out
}

// Mul returns the element-wise product a * b.
func Mul(a, b *Tensor) *Tensor {
	mustMatch("Mul", a.shape, b.shape)
	out := a.Clone()
	floats.Mul(out.data, b.data)
	return out
}

// Scale returns c * t.
func Scale(t *Tensor, c float64) *Tensor {
	out := t.Clone()
	floats.Scale(c, out.data)
	return out
}

// AddScalar returns t + c.
func AddScalar(t *Tensor, c float64) *Tensor {
	out := t.Clone()
	floats.AddConst(c, out.data)
	return out
}

// Floor returns the element-wise floor.
func Floor(t *Tensor) *Tensor { return Map(t, math.Floor) }

// Ceil returns the element-wise ceiling.
func Ceil(t *Tensor) *Tensor { return Map(t, math.Ceil) }

// Round rounds to the nearest integer, halves to even, element-wise.
func Round(t *Tensor) *Tensor { return Map(t, math.RoundToEven) }

// Clip limits every element to [lo, hi].
func Clip(t *Tensor, lo, hi float64) *Tensor {
	return Map(t, func(v float64) float64 {
		return math.Min(math.Max(v, lo), hi)
	})
}

// Sum returns the sum of all elements.
func Sum(t *Tensor) float64 {
	return floats.Sum(t.data)
}

// Mean returns the arithmetic mean of all elements.
func Mean(t *Tensor) float64 {
	return floats.Sum(t.data) / float64(len(t.data))
}

// SumPerBatch reduces every axis except the first, returning a tensor of
// shape (N).
func SumPerBatch(t *Tensor) *Tensor {
	n := t.shape[0]
	per := len(t.data) / n
	out := New(Shape{n})
	for b := 0; b < n; b++ {
		out.data[b] = floats.Sum(t.data[b*per : (b+1)*per])
	}
	return out
}

// AllFinite reports whether t contains no NaN or infinite values.
func AllFinite(t *Tensor) bool {
	for _, v := range t.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
