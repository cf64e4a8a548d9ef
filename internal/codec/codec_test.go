package codec

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"
)

func TestResolveFilter(t *testing.T) {
	for _, name := range FilterNames() {
		f, err := ResolveFilter(name)
		if err != nil {
			t.Errorf("ResolveFilter(%q): %v", name, err)
		}
		if f.Name() != name {
			t.Errorf("ResolveFilter(%q).Name() = %q", name, f.Name())
		}
	}

	if _, err := ResolveFilter("gaussian"); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestResizeDims(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 48))
	var c StdCodec

	for _, name := range FilterNames() {
		f, err := ResolveFilter(name)
		if err != nil {
			t.Fatal(err)
		}
		got := c.Resize(src, 100, 30, f)
		if got.Bounds().Dx() != 100 || got.Bounds().Dy() != 30 {
			t.Errorf("%s: resized to %v, want 100x30", name, got.Bounds())
		}
	}
}

func TestResizeSameSizeIsCopy(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, color.RGBA{uint8(x * 30), uint8(y * 30), 128, 255})
		}
	}

	f, err := ResolveFilter("lanczos")
	if err != nil {
		t.Fatal(err)
	}
	got := StdCodec{}.Resize(src, 8, 8, f)
	if !bytes.Equal(got.Pix, src.Pix) {
		t.Error("same-size resize should be a pixel-exact copy")
	}

	// And the buffer must be fresh, not an alias of the source.
	got.Pix[0] ^= 0xff
	if src.Pix[0] == got.Pix[0] {
		t.Error("resize returned an aliased buffer")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.Set(1, 2, color.RGBA{200, 10, 30, 255})

	var buf bytes.Buffer
	var c StdCodec
	if err := c.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	got, err := c.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds() != src.Bounds() {
		t.Errorf("decoded bounds %v, want %v", got.Bounds(), src.Bounds())
	}
}

func TestKernels(t *testing.T) {
	kernels := []struct {
		name    string
		at      func(float64) float64
		support float64
	}{
		{"box", boxAt, 0.5},
		{"hamming", hammingAt, 1},
		{"lanczos", lanczosAt, 3},
	}
	for _, k := range kernels {
		t.Run(k.name, func(t *testing.T) {
			if got := k.at(0); math.Abs(got-1) > 1e-9 {
				t.Errorf("at(0) = %g, want 1", got)
			}
			if got := k.at(k.support + 0.001); got != 0 {
				t.Errorf("at(%g) = %g, want 0 outside support", k.support+0.001, got)
			}
			if got, want := k.at(0.3), k.at(-0.3); got != want {
				t.Errorf("kernel not symmetric: at(0.3)=%g at(-0.3)=%g", got, want)
			}
		})
	}
}
