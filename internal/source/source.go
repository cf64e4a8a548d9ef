package source

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// Source is an ordered set of nested images. Implementations: explicit image
// files/directories, or the pages of a PDF document.
type Source interface {
	Count() int
	// Image decodes image i. Indexing is stable across calls.
	Image(i int) (image.Image, error)
	// Name identifies image i in error messages (a path or a page number).
	Name(i int) string
	// Paths identifies the whole input set; the frame store hashes it to key
	// its resume directory.
	Paths() []string
	Close() error
}

// Open picks a Source implementation for the given inputs. A single .pdf path
// opens the document's pages as the image stack; everything else is treated
// as image files and directories.
func Open(inputs []string, dpi int) (Source, error) {
	if len(inputs) == 1 && strings.HasSuffix(strings.ToLower(inputs[0]), ".pdf") {
		return OpenPDF(inputs[0], dpi)
	}
	return OpenFiles(inputs)
}

// LoadAll decodes every image up front, so workers later share the decoded
// buffers read-only. It enforces the stack preconditions: at least two
// images, and one common aspect ratio. A decode failure here is fatal,
// before any frame work starts.
func LoadAll(src Source, reverse bool) ([]image.Image, error) {
	n := src.Count()
	if n < 2 {
		return nil, fmt.Errorf("at least two images are required to create a zoom video, got %d", n)
	}

	images := make([]image.Image, n)
	var aspect float64
	for i := 0; i < n; i++ {
		img, err := src.Image(i)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src.Name(i), err)
		}
		b := img.Bounds()
		if b.Dx() == 0 || b.Dy() == 0 {
			return nil, fmt.Errorf("reading %s: empty image", src.Name(i))
		}

		r := float64(b.Dx()) / float64(b.Dy())
		if i == 0 {
			aspect = r
		} else if math.Abs(r-aspect)/aspect > 0.01 {
			return nil, fmt.Errorf("aspect ratio of %s (%.4f) does not match the first image (%.4f)",
				src.Name(i), r, aspect)
		}
		images[i] = img
	}

	if reverse {
		for i, j := 0, len(images)-1; i < j; i, j = i+1, j-1 {
			images[i], images[j] = images[j], images[i]
		}
	}

	return images, nil
}
