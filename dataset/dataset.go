// Copyright 2026 Retouch ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset feeds unpaired image batches to the training loop.
//
// Source and target directories are walked in independently shuffled order
// per epoch, so the two sets stay unpaired. Images are center-cropped to a
// square and resized to the training resolution; a background worker
// prefetches assembled NCHW float32 batches.
//
// # Basic Usage
//
//	sourceSet, err := dataset.OpenDirectory("faces/raw", 64)
//	targetSet, err := dataset.OpenDirectory("faces/retouched", 64)
//	batcher, err := dataset.NewBatcher(sourceSet, targetSet, 16, 2, backend)
//	defer batcher.Close()
//
//	source, target, err := batcher.Next()
package dataset

import (
	"github.com/retouch-ml/retouch/internal/dataset"
	"github.com/retouch-ml/retouch/internal/tensor"
)

// ErrClosed is returned by Next after the batcher has been closed.
var ErrClosed = dataset.ErrClosed

// ImageSet is a fixed-resolution image collection.
type ImageSet = dataset.ImageSet

// DirectorySet lazily decodes a directory of JPEG/PNG images.
type DirectorySet = dataset.DirectorySet

// OpenDirectory opens a directory of images at the given square resolution.
func OpenDirectory(dir string, size int) (*DirectorySet, error) {
	return dataset.OpenDirectory(dir, size)
}

// SyntheticSet generates deterministic in-memory images, for tests and
// examples.
type SyntheticSet = dataset.SyntheticSet

// NewSynthetic creates a synthetic set of n images at the given resolution.
func NewSynthetic(n, size int) *SyntheticSet {
	return dataset.NewSynthetic(n, size)
}

// Batcher prefetches shuffled, unpaired source/target batch tensors.
type Batcher[B tensor.Backend] = dataset.Batcher[B]

// NewBatcher starts a prefetching batcher over the two sets.
func NewBatcher[B tensor.Backend](source, target ImageSet, batchSize, prefetch int, backend B) (*Batcher[B], error) {
	return dataset.NewBatcher(source, target, batchSize, prefetch, backend)
}

// LoadImage decodes one image file into CHW float32 pixels in [0,1].
func LoadImage(path string, size int) ([]float32, error) {
	return dataset.LoadImage(path, size)
}

// SavePNG writes CHW float32 pixels to a PNG file, clamping to [0,1].
func SavePNG(path string, img []float32, size int) error {
	return dataset.SavePNG(path, img, size)
}
