package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Dense computes x·W + b over the last axis.
//
// x has shape (..., in), kernel (in, out) and bias (out); the result has
// shape (..., out). A nil bias is treated as zero.
func Dense(x, kernel, bias *Tensor) *Tensor {
	in, out := kernel.shape[0], kernel.shape[1]
	if x.shape[len(x.shape)-1] != in {
		panic(fmt.Sprintf("tensor.Dense: input %v does not match kernel %v", x.shape, kernel.shape))
	}
	rows := len(x.data) / in
	res := New(x.shape.WithLast(out))
	dst := mat.NewDense(rows, out, res.data)
	dst.Mul(mat.NewDense(rows, in, x.data), mat.NewDense(in, out, kernel.data))
	if bias != nil {
		for r := 0; r < rows; r++ {
			row := res.data[r*out : (r+1)*out]
			for j := range row {
				row[j] += bias.data[j]
			}
		}
	}
	return res
}

// AsMatrix views t as a rows×cols gonum matrix sharing t's storage, where
// cols is the size of the last axis.
func AsMatrix(t *Tensor) *mat.Dense {
	cols := t.shape[len(t.shape)-1]
	return mat.NewDense(len(t.data)/cols, cols, t.data)
}
