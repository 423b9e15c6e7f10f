// Package dataset feeds the training loop with unpaired image batches.
//
// Two independent sets are involved: source images feed the generator and
// the pixel loss, target images only ever feed the discriminator's real
// pass. The sets are never paired, so they are shuffled independently and
// may differ in length.
//
// Images are square, NCHW float32 with values in [0, 1]. A directory of
// JPEG/PNG files becomes a set via OpenDirectory (center-crop to square,
// then resize); tests and examples use the in-memory synthetic set.
package dataset

// ImageSet provides fixed-resolution images for batching.
type ImageSet interface {
	// Len returns the number of images in the set.
	Len() int

	// Size returns the square edge length in pixels.
	Size() int

	// Image returns image i in CHW layout, three channels of Size x Size
	// float32 values in [0, 1]. The caller must not modify the slice.
	Image(i int) ([]float32, error)
}
