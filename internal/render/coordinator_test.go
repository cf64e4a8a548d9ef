package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/zoomcomposer/internal/codec"
	"github.com/ivlev/zoomcomposer/internal/compositor"
	"github.com/ivlev/zoomcomposer/internal/easing"
	"github.com/ivlev/zoomcomposer/internal/timeline"
)

func testStack(t *testing.T) *compositor.Stack {
	t.Helper()

	// Distinct gradients per image so different frames produce different
	// bytes.
	images := make([]image.Image, 3)
	for i := range images {
		img := image.NewRGBA(image.Rect(0, 0, 48, 36))
		for y := 0; y < 36; y++ {
			for x := 0; x < 48; x++ {
				k := img.PixOffset(x, y)
				img.Pix[k+0] = uint8(x * 5 * (i + 1) % 256)
				img.Pix[k+1] = uint8(y * 7 % 256)
				img.Pix[k+2] = uint8(i * 90)
				img.Pix[k+3] = 255
			}
		}
		images[i] = img
	}

	filter, err := codec.ResolveFilter("bilinear")
	if err != nil {
		t.Fatal(err)
	}
	stack, err := compositor.NewStack(images, codec.StdCodec{}, compositor.Options{
		Zoom: 2.0, Margin: 0.05, Width: 24, Height: 18, Supersample: 1, Filter: filter,
	})
	if err != nil {
		t.Fatal(err)
	}
	return stack
}

func testFrames(t *testing.T, n int) []timeline.Frame {
	t.Helper()
	lin, err := easing.Resolve("linear", easing.DefaultPower, easing.DefaultEdge)
	if err != nil {
		t.Fatal(err)
	}
	frames, err := timeline.New(n, 3, timeline.Out, lin)
	if err != nil {
		t.Fatal(err)
	}
	return frames
}

func newCoordinator(t *testing.T, dir string, workers int, resume bool) *Coordinator {
	t.Helper()
	store, err := NewStore(dir, []string{"a.png", "b.png", "c.png"})
	if err != nil {
		t.Fatal(err)
	}
	return &Coordinator{
		Stack:   testStack(t),
		Store:   store,
		Codec:   codec.StdCodec{},
		Workers: workers,
		Resume:  resume,
	}
}

func frameSet(t *testing.T, c *Coordinator, n int) map[int][]byte {
	t.Helper()
	out := make(map[int][]byte, n)
	for i := 0; i < n; i++ {
		data, err := os.ReadFile(c.Store.FramePath(i))
		if err != nil {
			t.Fatalf("frame %d missing: %v", i, err)
		}
		out[i] = data
	}
	return out
}

func TestRunProducesAllFrames(t *testing.T) {
	const n = 20
	c := newCoordinator(t, t.TempDir(), 4, false)
	if err := c.Run(context.Background(), testFrames(t, n)); err != nil {
		t.Fatal(err)
	}
	frameSet(t, c, n)

	// The temp-then-rename protocol must leave no temp files behind.
	entries, err := os.ReadDir(c.Store.Dir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestWorkerCountInvariance(t *testing.T) {
	const n = 16
	frames := testFrames(t, n)

	one := newCoordinator(t, t.TempDir(), 1, false)
	if err := one.Run(context.Background(), frames); err != nil {
		t.Fatal(err)
	}
	eight := newCoordinator(t, t.TempDir(), 8, false)
	if err := eight.Run(context.Background(), frames); err != nil {
		t.Fatal(err)
	}

	a, b := frameSet(t, one, n), frameSet(t, eight, n)
	for i := 0; i < n; i++ {
		if !bytes.Equal(a[i], b[i]) {
			t.Errorf("frame %d differs between 1 and 8 workers", i)
		}
	}
}

func TestResumeSkipsValidFrames(t *testing.T) {
	const n = 12
	frames := testFrames(t, n)
	dir := t.TempDir()

	// Simulate an interrupted run: only the first K frames were written.
	const k = 5
	first := newCoordinator(t, dir, 2, false)
	if err := first.Run(context.Background(), frames[:k]); err != nil {
		t.Fatal(err)
	}

	mtimes := make(map[int]time.Time, k)
	for i := 0; i < k; i++ {
		fi, err := os.Stat(first.Store.FramePath(i))
		if err != nil {
			t.Fatal(err)
		}
		mtimes[i] = fi.ModTime()
	}

	resumed := newCoordinator(t, dir, 2, true)
	if err := resumed.Run(context.Background(), frames); err != nil {
		t.Fatal(err)
	}
	got := frameSet(t, resumed, n)

	// Zero recomputation of the first K frames.
	for i := 0; i < k; i++ {
		fi, err := os.Stat(resumed.Store.FramePath(i))
		if err != nil {
			t.Fatal(err)
		}
		if !fi.ModTime().Equal(mtimes[i]) {
			t.Errorf("frame %d was rewritten on resume", i)
		}
	}

	// And the final set matches an uninterrupted run.
	clean := newCoordinator(t, t.TempDir(), 2, false)
	if err := clean.Run(context.Background(), frames); err != nil {
		t.Fatal(err)
	}
	want := frameSet(t, clean, n)
	for i := 0; i < n; i++ {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("frame %d differs from an uninterrupted run", i)
		}
	}
}

func TestRunPreviewRendersOnePerPair(t *testing.T) {
	c := newCoordinator(t, t.TempDir(), 2, false)
	if err := c.RunPreview(context.Background()); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < c.Stack.Count()-1; i++ {
		if !c.Store.Valid(c.Store.PairPath(i)) {
			t.Errorf("missing preview composite for pair %d", i)
		}
	}
	if c.Store.Valid(c.Store.FramePath(0)) {
		t.Error("preview mode must not render timeline frames")
	}
}

// failingCodec fails every encode; used to verify error propagation.
type failingCodec struct {
	codec.StdCodec
}

func (failingCodec) Encode(w io.Writer, img image.Image) error {
	return errors.New("encode exploded")
}

func TestFirstErrorAbortsRun(t *testing.T) {
	c := newCoordinator(t, t.TempDir(), 4, false)
	c.Codec = failingCodec{}

	err := c.Run(context.Background(), testFrames(t, 10))
	if err == nil {
		t.Fatal("expected the run to fail")
	}
	var fe *FrameError
	if !errors.As(err, &fe) {
		t.Fatalf("want *FrameError, got %T: %v", err, err)
	}

	// No frame file may look valid after a failed write.
	for i := 0; i < 10; i++ {
		if c.Store.Valid(c.Store.FramePath(i)) {
			t.Errorf("frame %d claims to be valid after encode failure", i)
		}
	}
}

func TestStoreDirIsKeyedByInputs(t *testing.T) {
	dir := t.TempDir()
	a, err := NewStore(dir, []string{"x.png", "y.png"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewStore(dir, []string{"x.png", "z.png"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Dir() == b.Dir() {
		t.Error("different input sets must not share a frame directory")
	}

	same, err := NewStore(dir, []string{"x.png", "y.png"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Dir() != same.Dir() {
		t.Error("the same input set must map to the same frame directory for resume")
	}
}

func TestStorePattern(t *testing.T) {
	store, err := NewStore(t.TempDir(), []string{"a"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := store.FramePath(7), fmt.Sprintf(store.Pattern(), 7); got != want {
		t.Errorf("FramePath(7) = %s, but pattern expands to %s", got, want)
	}
	if filepath.Dir(store.FramePath(0)) != store.Dir() {
		t.Error("frames must live inside the store directory")
	}
}
