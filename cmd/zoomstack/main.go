// zoomstack generates a synthetic self-similar image stack: each image shows
// the same scale-invariant ring pattern, magnified by the zoom ratio from the
// previous one, with a QR label naming the level. Useful for trying the
// composer and for inspecting seams with -blend-preview.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ivlev/zoomcomposer/internal/logger"
)

var log = logger.Log

var palette = []color.RGBA{
	{230, 57, 70, 255},
	{244, 162, 97, 255},
	{233, 196, 106, 255},
	{42, 157, 143, 255},
	{38, 70, 83, 255},
	{109, 89, 122, 255},
}

func main() {
	outPtr := flag.String("out", "stack", "Output directory for the generated images")
	countPtr := flag.Int("count", 5, "Number of images in the stack")
	sizePtr := flag.Int("size", 1024, "Image size in pixels (square)")
	zoomPtr := flag.Float64("zoom", 2.0, "Zoom ratio between consecutive images")
	flag.Parse()

	if *countPtr < 2 {
		log.Fatalf("[-] A stack needs at least two images, got %d", *countPtr)
	}
	if *zoomPtr <= 1 {
		log.Fatalf("[-] Zoom ratio must be > 1, got %g", *zoomPtr)
	}
	if *sizePtr < 64 {
		log.Fatalf("[-] Image size must be at least 64px, got %d", *sizePtr)
	}

	if err := os.MkdirAll(*outPtr, 0755); err != nil {
		log.Fatalf("[-] %v", err)
	}

	for level := 0; level < *countPtr; level++ {
		img := renderLevel(*sizePtr, *zoomPtr, level)
		stampLabel(img, level)

		path := filepath.Join(*outPtr, fmt.Sprintf("stack_%03d.png", level))
		f, err := os.Create(path)
		if err != nil {
			log.Fatalf("[-] %v", err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			log.Fatalf("[-] Encoding %s: %v", path, err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("[-] %v", err)
		}
		log.Infof("[*] Wrote %s", path)
	}

	log.Infof("[+++] Done! Try: zoomcomposer -zoom %g %s", *zoomPtr, *outPtr)
}

// renderLevel draws the pattern as seen at magnification zoom^level. The
// pattern only depends on log_zoom(r) and the angle, so magnifying it by the
// zoom ratio reproduces it exactly; that is what makes the stack nest.
func renderLevel(size int, zoom float64, level int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	extent := 1.0 / math.Pow(zoom, float64(level))

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			wx := (float64(x)/float64(size) - 0.5) * 2 * extent
			wy := (float64(y)/float64(size) - 0.5) * 2 * extent
			r := math.Hypot(wx, wy)

			c := color.RGBA{12, 12, 16, 255} // center singularity
			if r > 1e-9 {
				band := math.Log(r) / math.Log(zoom) * 2
				sector := math.Floor((math.Atan2(wy, wx) + math.Pi) / (2 * math.Pi) * 16)
				c = palette[mod(int(math.Floor(band)), len(palette))]
				if int(sector)%2 == 0 {
					c = shade(c)
				}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// stampLabel puts a QR code naming the level into the corner. The corner
// lies in the composer's default margin region, so the label shows up in
// blend previews but is trimmed from real renders.
func stampLabel(img *image.RGBA, level int) {
	size := img.Bounds().Dx()
	qr, err := qrcode.New(fmt.Sprintf("zoomstack level %03d", level), qrcode.Medium)
	if err != nil {
		log.Fatalf("[-] QR label: %v", err)
	}
	label := qr.Image(size / 10)
	off := size / 64
	draw.Draw(img, label.Bounds().Add(image.Pt(off, off)), label, label.Bounds().Min, draw.Src)
}

func shade(c color.RGBA) color.RGBA {
	return color.RGBA{c.R / 4 * 3, c.G / 4 * 3, c.B / 4 * 3, 255}
}

func mod(v, n int) int {
	return ((v % n) + n) % n
}
