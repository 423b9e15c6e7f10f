package dataset

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// LoadImage reads one JPEG/PNG file, center-crops it to a square and
// scales it to size x size, returning CHW float32 planes in [0, 1].
func LoadImage(path string, size int) ([]float32, error) {
	if size <= 0 {
		return nil, fmt.Errorf("dataset: image size must be positive, got %d", size)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: decode %s: %w", path, err)
	}

	return imageToCHW(squareResize(img, size)), nil
}

// SavePNG writes CHW float32 planes as a size x size PNG. Values are
// clamped to [0, 1]; the generator's scaled sigmoid can exceed 1 slightly.
func SavePNG(path string, img []float32, size int) error {
	if len(img) != 3*size*size {
		return fmt.Errorf("dataset: image has %d values, want %d for size %d", len(img), 3*size*size, size)
	}

	out := image.NewRGBA(image.Rect(0, 0, size, size))
	n := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := y*size + x
			out.SetRGBA(x, y, color.RGBA{
				R: clampByte(img[i]),
				G: clampByte(img[n+i]),
				B: clampByte(img[2*n+i]),
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := png.Encode(f, out); err != nil {
		return fmt.Errorf("dataset: encode %s: %w", path, err)
	}
	return nil
}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
