package train

import (
	"github.com/retouch-ml/retouch/internal/tensor"
)

// DiscriminatorAccuracy returns the fraction of logits the discriminator
// classified correctly: real logits above zero and fake logits below.
//
// Hovering near 0.5 means the two distributions still overlap; pinned at
// 1.0 the discriminator has stopped providing a useful gradient.
func DiscriminatorAccuracy[B tensor.Backend](realLogits, fakeLogits *tensor.Tensor[float32, B]) float64 {
	correct := 0
	total := 0

	for _, v := range realLogits.Raw().AsFloat32() {
		if v > 0 {
			correct++
		}
		total++
	}
	for _, v := range fakeLogits.Raw().AsFloat32() {
		if v < 0 {
			correct++
		}
		total++
	}

	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}
