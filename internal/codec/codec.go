// Package codec is the image capability service the rest of the pipeline
// depends on: decoding source images, encoding finished frames and filtered
// resizing. The core only sees the Codec interface; StdCodec is the adapter
// over the standard image package and golang.org/x/image/draw.
package codec

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"sort"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

type Codec interface {
	Decode(r io.Reader) (image.Image, error)
	Encode(w io.Writer, img image.Image) error
	Resize(img image.Image, width, height int, f Filter) *image.RGBA
}

// Filter is a resampling filter resolved once, at configuration time, from
// its configured name.
type Filter struct {
	name   string
	scaler draw.Scaler
}

func (f Filter) Name() string { return f.name }

const DefaultFilter = "lanczos"

var filters = map[string]draw.Scaler{
	"nearest":  draw.NearestNeighbor,
	"box":      &draw.Kernel{Support: 0.5, At: boxAt},
	"bilinear": draw.BiLinear,
	"hamming":  &draw.Kernel{Support: 1, At: hammingAt},
	"bicubic":  draw.CatmullRom,
	"lanczos":  &draw.Kernel{Support: 3, At: lanczosAt},
}

// ResolveFilter maps a filter name to a concrete scaler. Unknown names are a
// configuration error and are rejected before any rendering starts.
func ResolveFilter(name string) (Filter, error) {
	s, ok := filters[name]
	if !ok {
		return Filter{}, fmt.Errorf("unsupported resampling function: %q (supported: %s)",
			name, strings.Join(FilterNames(), ", "))
	}
	return Filter{name: name, scaler: s}, nil
}

// FilterNames returns all supported filter names, sorted.
func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StdCodec implements Codec with stdlib png/jpeg (plus x/image webp decode)
// and x/image/draw scalers.
type StdCodec struct{}

func (StdCodec) Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

func (StdCodec) Encode(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// Resize scales img to width x height with the given filter. The result is
// always a fresh buffer, so callers may keep the source immutable and shared.
func (StdCodec) Resize(img image.Image, width, height int, f Filter) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
		return dst
	}
	f.scaler.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Kernel shapes follow the classic definitions (box, hamming-windowed sinc,
// lanczos3); x/image/draw only ships nearest, bilinear and Catmull-Rom.

func boxAt(t float64) float64 {
	if t < 0 {
		t = -t
	}
	if t <= 0.5 {
		return 1
	}
	return 0
}

func hammingAt(t float64) float64 {
	if t < 0 {
		t = -t
	}
	if t >= 1 {
		return 0
	}
	if t == 0 {
		return 1
	}
	x := t * math.Pi
	return math.Sin(x) / x * (0.54 + 0.46*math.Cos(x))
}

func lanczosAt(t float64) float64 {
	if t < 0 {
		t = -t
	}
	if t >= 3 {
		return 0
	}
	if t == 0 {
		return 1
	}
	x := t * math.Pi
	return 3 * math.Sin(x) * math.Sin(x/3) / (x * x)
}
