// Package dataset loads images into NHWC batches and serves them one batch
// at a time.
//
// Supported inputs:
//   - Single images (png, jpeg, bmp, tiff, webp), loaded as a batch of one
//   - SafeTensors files holding an "images" tensor of shape (N, H, W, 3)
//     with values in [0, 255]
//
// Pixel values are normalized to [0, 1].
package dataset

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/born-ml/bbsga/internal/serialization"
	"github.com/born-ml/bbsga/internal/tensor"
)

// ImagesKey names the batch tensor inside a SafeTensors input file.
const ImagesKey = "images"

// Channels is the number of color channels of every loaded image.
const Channels = 3

// ErrEmpty is returned when an input holds no images.
var ErrEmpty = errors.New("dataset: no images")

// Load reads path as a batch file when it has a .safetensors extension and
// as a single image otherwise.
func Load(path string) (*tensor.Tensor, error) {
	if strings.EqualFold(filepath.Ext(path), ".safetensors") {
		return LoadBatchFile(path)
	}
	return LoadImage(path)
}

// LoadImage decodes an image file into a (1, H, W, 3) tensor in [0, 1].
// Alpha is dropped.
func LoadImage(path string) (*tensor.Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return DecodeImage(f)
}

// DecodeImage decodes an image stream into a (1, H, W, 3) tensor in [0, 1].
func DecodeImage(r io.Reader) (*tensor.Tensor, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	if h == 0 || w == 0 {
		return nil, fmt.Errorf("%w: empty %s image", ErrEmpty, format)
	}

	out := tensor.New(tensor.Shape{1, h, w, Channels})
	data := out.Data()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cr, cg, cb, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := (y*w + x) * Channels
			data[i] = float64(cr>>8) / 255
			data[i+1] = float64(cg>>8) / 255
			data[i+2] = float64(cb>>8) / 255
		}
	}
	return out, nil
}

// LoadBatchFile reads the "images" tensor of a SafeTensors file and scales
// it to [0, 1].
func LoadBatchFile(path string) (*tensor.Tensor, error) {
	file, err := serialization.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	images, err := file.Tensor(ImagesKey)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	shape := images.Shape()
	if len(shape) != 4 || shape[3] != Channels {
		return nil, fmt.Errorf("batch file %s: %q has shape %v, want (N, H, W, %d)", path, ImagesKey, shape, Channels)
	}
	return tensor.Scale(images, 1.0/255), nil
}

// SaveBatchFile writes images (values in [0, 1]) as a U8 batch file
// readable by LoadBatchFile.
func SaveBatchFile(path string, images *tensor.Tensor) error {
	return serialization.WriteFile(path,
		map[string]*tensor.Tensor{ImagesKey: tensor.Scale(images, 255)},
		serialization.U8, nil)
}
