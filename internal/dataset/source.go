package dataset

import (
	"fmt"
	"io"

	"github.com/born-ml/bbsga/internal/tensor"
)

// evalPixelBudget bounds the pixels of one evaluation batch.
const evalPixelBudget = 1 << 20

// Source yields image batches. Next returns io.EOF once no batches remain.
type Source interface {
	Next() (*tensor.Tensor, error)
}

// EvalBatchSize returns the number of images of numPixels pixels each that
// are refined together.
func EvalBatchSize(numPixels int) int {
	if numPixels <= 0 {
		return 1
	}
	return max(1, evalPixelBudget/numPixels)
}

// SliceSource splits an in-memory batch into consecutive batches of a fixed
// size; the last batch may be smaller.
type SliceSource struct {
	images    *tensor.Tensor
	batchSize int
	next      int
}

// NewSliceSource creates a Source over images (N, H, W, C). A batchSize of
// zero or less selects EvalBatchSize(H·W).
func NewSliceSource(images *tensor.Tensor, batchSize int) (*SliceSource, error) {
	if images == nil || len(images.Shape()) != 4 {
		return nil, fmt.Errorf("%w: expected an NHWC batch", ErrEmpty)
	}
	_, h, w, _ := images.Dims4()
	if batchSize <= 0 {
		batchSize = EvalBatchSize(h * w)
	}
	return &SliceSource{images: images, batchSize: batchSize}, nil
}

// BatchSize returns the number of images per batch.
func (s *SliceSource) BatchSize() int {
	return s.batchSize
}

// Next returns the next batch, or io.EOF when the images are exhausted.
func (s *SliceSource) Next() (*tensor.Tensor, error) {
	n, h, w, c := s.images.Dims4()
	if s.next >= n {
		return nil, io.EOF
	}
	end := min(s.next+s.batchSize, n)
	per := h * w * c
	batch, err := tensor.FromSlice(s.images.Data()[s.next*per:end*per], tensor.Shape{end - s.next, h, w, c})
	if err != nil {
		return nil, err
	}
	s.next = end
	return batch, nil
}
