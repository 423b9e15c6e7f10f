package dataset

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	// Register decoders for the supported formats.
	_ "image/jpeg"
	_ "image/png"
)

// DirectorySet is an ImageSet backed by a directory of JPEG/PNG files.
//
// Files are decoded lazily on each Image call; the batcher's prefetch
// hides the latency. Non-image files in the directory are ignored.
type DirectorySet struct {
	dir   string
	size  int
	files []string
}

// OpenDirectory scans dir for image files and returns them as a set of
// size x size images. Each image is center-cropped to a square and scaled
// to the requested size when loaded.
func OpenDirectory(dir string, size int) (*DirectorySet, error) {
	if size <= 0 {
		return nil, fmt.Errorf("dataset: image size must be positive, got %d", size)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dataset: read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("dataset: no JPEG/PNG images in %s", dir)
	}

	return &DirectorySet{dir: dir, size: size, files: files}, nil
}

// Len returns the number of image files.
func (s *DirectorySet) Len() int {
	return len(s.files)
}

// Size returns the square edge length in pixels.
func (s *DirectorySet) Size() int {
	return s.size
}

// Image decodes, crops and scales file i.
func (s *DirectorySet) Image(i int) ([]float32, error) {
	if i < 0 || i >= len(s.files) {
		return nil, fmt.Errorf("dataset: image index %d out of range [0, %d)", i, len(s.files))
	}
	f, err := os.Open(s.files[i])
	if err != nil {
		return nil, fmt.Errorf("dataset: open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: decode %s: %w", s.files[i], err)
	}

	return imageToCHW(squareResize(img, s.size)), nil
}

// squareResize center-crops an image to a square and scales it to
// size x size with Catmull-Rom interpolation.
func squareResize(img image.Image, size int) *image.RGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	edge := min(w, h)
	offX := bounds.Min.X + (w-edge)/2
	offY := bounds.Min.Y + (h-edge)/2
	src := image.Rect(offX, offY, offX+edge, offY+edge)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	return dst
}

// imageToCHW flattens an RGBA image to CHW float32 planes in [0, 1].
func imageToCHW(img *image.RGBA) []float32 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	data := make([]float32, 3*h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns 16-bit values
			data[0*h*w+y*w+x] = float32(r>>8) / 255.0
			data[1*h*w+y*w+x] = float32(g>>8) / 255.0
			data[2*h*w+y*w+x] = float32(b>>8) / 255.0
		}
	}
	return data
}
