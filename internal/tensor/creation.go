package tensor

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return New(shape)
}

// ZerosLike creates a zero tensor with the same shape as t.
func ZerosLike(t *Tensor) *Tensor {
	return New(t.shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full(tensor.Shape{1, 8, 8, 3}, 0.5)
func Full(shape Shape, value float64) *Tensor {
	t := New(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// Scalar creates a rank-0 tensor holding v.
func Scalar(v float64) *Tensor {
	return &Tensor{shape: Shape{}, data: []float64{v}}
}

// Linspace returns n evenly spaced values over [start, stop] as a 1-D tensor.
func Linspace(start, stop float64, n int) *Tensor {
	t := New(Shape{n})
	if n == 1 {
		t.data[0] = start
		return t
	}
	step := (stop - start) / float64(n-1)
	for i := range t.data {
		t.data[i] = start + float64(i)*step
	}
	t.data[n-1] = stop
	return t
}
