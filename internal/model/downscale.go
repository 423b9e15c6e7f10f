package model

import (
	"fmt"

	"github.com/retouch-ml/retouch/internal/tensor"
)

// ValidDownscaleFactor reports whether k is a supported box-average factor.
func ValidDownscaleFactor(k int) bool {
	switch k {
	case 2, 4, 8, 16:
		return true
	}
	return false
}

// Downscale shrinks a [N, C, H, W] image batch by k in both spatial
// dimensions using a box average: each output pixel is the mean of a
// k x k input block.
//
// Panics if k is not one of the supported factors; Config.Validate catches
// this earlier for configured values.
func Downscale[B tensor.Backend](x *tensor.Tensor[float32, B], k int) *tensor.Tensor[float32, B] {
	if !ValidDownscaleFactor(k) {
		panic(fmt.Sprintf("downscale: factor must be 2, 4, 8 or 16, got %d", k))
	}

	backend := x.Backend()
	return tensor.New[float32, B](backend.AvgPool2D(x.Raw(), k, k), backend)
}
