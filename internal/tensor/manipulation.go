package tensor

import "fmt"

// Dims4 unpacks an NHWC shape.
func (t *Tensor) Dims4() (n, h, w, c int) {
	if len(t.shape) != 4 {
		panic(fmt.Sprintf("tensor.Dims4: expected rank 4, got shape %v", t.shape))
	}
	return t.shape[0], t.shape[1], t.shape[2], t.shape[3]
}

// SliceChannels returns channels [from, to) of the last axis.
func SliceChannels(t *Tensor, from, to int) *Tensor {
	c := t.shape[len(t.shape)-1]
	if from < 0 || to > c || from >= to {
		panic(fmt.Sprintf("tensor.SliceChannels: invalid range [%d, %d) for %d channels", from, to, c))
	}
	width := to - from
	rows := len(t.data) / c
	out := New(t.shape.WithLast(width))
	for r := 0; r < rows; r++ {
		copy(out.data[r*width:(r+1)*width], t.data[r*c+from:r*c+to])
	}
	return out
}

// ConcatChannels concatenates tensors along the last axis.
func ConcatChannels(parts ...*Tensor) *Tensor {
	total := 0
	for _, p := range parts {
		mustMatch("ConcatChannels", p.shape.WithLast(1), parts[0].shape.WithLast(1))
		total += p.shape[len(p.shape)-1]
	}
	rows := len(parts[0].data) / parts[0].shape[len(parts[0].shape)-1]
	out := New(parts[0].shape.WithLast(total))
	for r := 0; r < rows; r++ {
		off := r * total
		for _, p := range parts {
			c := p.shape[len(p.shape)-1]
			copy(out.data[off:off+c], p.data[r*c:(r+1)*c])
			off += c
		}
	}
	return out
}

// CropSpatial keeps the top-left h×w window of an NHWC tensor.
func CropSpatial(t *Tensor, h, w int) *Tensor {
	n, th, tw, c := t.Dims4()
	if h > th || w > tw {
		panic(fmt.Sprintf("tensor.CropSpatial: cannot crop %v to %dx%d", t.shape, h, w))
	}
	out := New(Shape{n, h, w, c})
	for b := 0; b < n; b++ {
		for y := 0; y < h; y++ {
			src := ((b*th+y)*tw)*c
			dst := ((b*h+y)*w)*c
			copy(out.data[dst:dst+w*c], t.data[src:src+w*c])
		}
	}
	return out
}

// PadSpatial zero-pads an NHWC tensor at the bottom/right to h×w.
func PadSpatial(t *Tensor, h, w int) *Tensor {
	n, th, tw, c := t.Dims4()
	if h < th || w < tw {
		panic(fmt.Sprintf("tensor.PadSpatial: cannot pad %v to %dx%d", t.shape, h, w))
	}
	out := New(Shape{n, h, w, c})
	for b := 0; b < n; b++ {
		for y := 0; y < th; y++ {
			src := ((b*th+y)*tw)*c
			dst := ((b*h+y)*w)*c
			copy(out.data[dst:dst+tw*c], t.data[src:src+tw*c])
		}
	}
	return out
}

// SpaceToDepth folds non-overlapping s×s spatial blocks into channels.
//
// Input (N, H, W, C) with H and W divisible by s becomes
// (N, H/s, W/s, s*s*C); the output channel index is (dy*s+dx)*C + c.
func SpaceToDepth(t *Tensor, s int) *Tensor {
	n, h, w, c := t.Dims4()
	if h%s != 0 || w%s != 0 {
		panic(fmt.Sprintf("tensor.SpaceToDepth: shape %v not divisible by block %d", t.shape, s))
	}
	oh, ow, oc := h/s, w/s, s*s*c
	out := New(Shape{n, oh, ow, oc})
	for b := 0; b < n; b++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				src := ((b*h+y)*w + x) * c
				dst := ((b*oh+y/s)*ow+x/s)*oc + ((y%s)*s+x%s)*c
				copy(out.data[dst:dst+c], t.data[src:src+c])
			}
		}
	}
	return out
}

// DepthToSpace is the inverse of SpaceToDepth.
func DepthToSpace(t *Tensor, s int) *Tensor {
	n, h, w, c := t.Dims4()
	if c%(s*s) != 0 {
		panic(fmt.Sprintf("tensor.DepthToSpace: %d channels not divisible by %d", c, s*s))
	}
	oh, ow, oc := h*s, w*s, c/(s*s)
	out := New(Shape{n, oh, ow, oc})
	for b := 0; b < n; b++ {
		for y := 0; y < oh; y++ {
			for x := 0; x < ow; x++ {
				dst := ((b*oh+y)*ow + x) * oc
				src := ((b*h+y/s)*w+x/s)*c + ((y%s)*s+x%s)*oc
				copy(out.data[dst:dst+oc], t.data[src:src+oc])
			}
		}
	}
	return out
}
