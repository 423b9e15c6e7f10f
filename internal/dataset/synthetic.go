package dataset

import "fmt"

// SyntheticSet is an in-memory ImageSet with procedurally generated
// images. Tests and the example train on it without touching disk.
type SyntheticSet struct {
	size   int
	images [][]float32
}

// NewSynthetic generates n deterministic size x size images. Each image
// carries a different diagonal gradient so batches are distinguishable.
func NewSynthetic(n, size int) *SyntheticSet {
	images := make([][]float32, n)
	for i := range images {
		img := make([]float32, 3*size*size)
		for c := 0; c < 3; c++ {
			for y := 0; y < size; y++ {
				for x := 0; x < size; x++ {
					img[c*size*size+y*size+x] = float32((x+y+7*c+13*i)%32) / 31.0
				}
			}
		}
		images[i] = img
	}
	return &SyntheticSet{size: size, images: images}
}

// Len returns the number of images.
func (s *SyntheticSet) Len() int {
	return len(s.images)
}

// Size returns the square edge length in pixels.
func (s *SyntheticSet) Size() int {
	return s.size
}

// Image returns image i.
func (s *SyntheticSet) Image(i int) ([]float32, error) {
	if i < 0 || i >= len(s.images) {
		return nil, fmt.Errorf("dataset: image index %d out of range [0, %d)", i, len(s.images))
	}
	return s.images[i], nil
}
