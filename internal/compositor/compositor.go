// Package compositor produces single output frames from a stack of nested
// source images. A Stack holds the immutable inputs; each render worker gets
// its own Session with a small private layer cache, so composing distinct
// frames concurrently needs no locking.
package compositor

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/ivlev/zoomcomposer/internal/codec"
	"github.com/ivlev/zoomcomposer/internal/easing"
)

// LayerCacheSize bounds the trimmed-and-scaled layers a Session keeps alive.
// Consecutive frames almost always share the same base/next pair, so a small
// cache captures nearly all reuse; a miss only costs recomputation.
const LayerCacheSize = 3

type Options struct {
	// Zoom is the constant magnification ratio between consecutive images.
	Zoom float64
	// Margin is the fraction of each image's smaller dimension trimmed from
	// every edge before use.
	Margin float64
	// Width and Height are the output frame dimensions.
	Width  int
	Height int
	// Supersample scales the working canvas; frames are composed at
	// Width*Supersample x Height*Supersample and downsampled at the end.
	Supersample int
	// Filter is the resampling filter for every resize.
	Filter codec.Filter
	// Blend shapes the cross-fade weight toward the next image. nil means
	// smoothstep.
	Blend easing.Func
}

type Stack struct {
	images []image.Image
	codec  codec.Codec
	opts   Options
	workW  int
	workH  int
}

func NewStack(images []image.Image, c codec.Codec, opts Options) (*Stack, error) {
	if len(images) < 2 {
		return nil, fmt.Errorf("at least two images are required, got %d", len(images))
	}
	if opts.Zoom <= 1 {
		return nil, fmt.Errorf("zoom ratio must be > 1, got %g", opts.Zoom)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", opts.Width, opts.Height)
	}
	if opts.Supersample < 1 {
		return nil, fmt.Errorf("supersample factor must be >= 1, got %d", opts.Supersample)
	}
	if opts.Margin < 0 || opts.Margin >= 0.5 {
		return nil, fmt.Errorf("margin must be in [0, 0.5) of the smaller dimension, got %g", opts.Margin)
	}
	if opts.Blend == nil {
		blend, err := easing.Resolve("smoothstep", easing.DefaultPower, easing.DefaultEdge)
		if err != nil {
			return nil, err
		}
		opts.Blend = blend
	}

	return &Stack{
		images: images,
		codec:  c,
		opts:   opts,
		workW:  opts.Width * opts.Supersample,
		workH:  opts.Height * opts.Supersample,
	}, nil
}

func (s *Stack) Count() int { return len(s.images) }

// LayerBytes estimates the memory held by one cached working layer.
func (s *Stack) LayerBytes() int { return s.workW * s.workH * 4 }

// NewSession creates a private compositing session for one worker.
func (s *Stack) NewSession() *Session {
	return &Session{stack: s}
}

type cachedLayer struct {
	index int
	img   *image.RGBA
}

// Session composes frames using a bounded LRU of prepared layers. It is not
// safe for concurrent use; give every worker its own.
type Session struct {
	stack  *Stack
	layers []cachedLayer
}

// Compose renders the frame at the given zoom coordinate. The integer part
// selects the base image, the fraction blends toward the next one. The
// result is always a fresh Width x Height buffer.
func (s *Session) Compose(coord float64) (*image.RGBA, error) {
	st := s.stack
	n := len(st.images)
	if coord < 0 || coord > float64(n-1) {
		return nil, fmt.Errorf("zoom coordinate %g outside stack [0,%d]", coord, n-1)
	}

	i := int(math.Floor(coord))
	f := coord - float64(i)
	if i >= n-1 {
		i, f = n-1, 0
	}

	base, err := s.layer(i)
	if err != nil {
		return nil, err
	}

	canvas := base
	if f > 0 {
		// Continuous magnification between the two discrete captures: at f=0
		// this is the base layer itself, as f->1 it approaches the next
		// layer's full-frame view.
		canvas = s.zoomCrop(base, math.Pow(st.opts.Zoom, f))

		next, err := s.layer(i + 1)
		if err != nil {
			return nil, err
		}
		blendInto(canvas, next, st.opts.Blend(f))
	}

	return st.codec.Resize(canvas, st.opts.Width, st.opts.Height, st.opts.Filter), nil
}

// layer returns image i trimmed by the margin and scaled to the working
// canvas, preparing and caching it on demand.
func (s *Session) layer(i int) (*image.RGBA, error) {
	for k, l := range s.layers {
		if l.index == i {
			if k != 0 {
				copy(s.layers[1:k+1], s.layers[:k])
				s.layers[0] = l
			}
			return l.img, nil
		}
	}

	img, err := s.prepare(i)
	if err != nil {
		return nil, err
	}

	s.layers = append([]cachedLayer{{index: i, img: img}}, s.layers...)
	if len(s.layers) > LayerCacheSize {
		s.layers = s.layers[:LayerCacheSize]
	}
	return img, nil
}

func (s *Session) prepare(i int) (*image.RGBA, error) {
	st := s.stack
	src := st.images[i]
	b := src.Bounds()

	m := int(math.Round(st.opts.Margin * float64(min(b.Dx(), b.Dy()))))
	if 2*m >= b.Dx() || 2*m >= b.Dy() {
		return nil, fmt.Errorf("margin %dpx leaves nothing of image %d (%dx%d)", m, i, b.Dx(), b.Dy())
	}

	trimmed := cropped(src, image.Rect(b.Min.X+m, b.Min.Y+m, b.Max.X-m, b.Max.Y-m))
	return st.codec.Resize(trimmed, st.workW, st.workH, st.opts.Filter), nil
}

// zoomCrop resizes the layer by scale about its center and crops back to the
// working canvas, like an optical zoom.
func (s *Session) zoomCrop(layer *image.RGBA, scale float64) *image.RGBA {
	st := s.stack
	zw := int(float64(st.workW) * scale)
	zh := int(float64(st.workH) * scale)
	big := st.codec.Resize(layer, zw, zh, st.opts.Filter)

	out := image.NewRGBA(image.Rect(0, 0, st.workW, st.workH))
	draw.Draw(out, out.Bounds(), big, image.Pt((zw-st.workW)/2, (zh-st.workH)/2), draw.Src)
	return out
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func cropped(img image.Image, r image.Rectangle) image.Image {
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}

// blendInto cross-fades next over dst in place with weight w in [0,1].
// Fixed-point arithmetic keeps the result byte-deterministic across runs and
// worker counts.
func blendInto(dst, next *image.RGBA, w float64) {
	wa := uint32(math.Round(w * 65536))
	if wa == 0 {
		return
	}
	inv := uint32(65536) - wa
	for k := range dst.Pix {
		dst.Pix[k] = uint8((uint32(dst.Pix[k])*inv + uint32(next.Pix[k])*wa + 32768) >> 16)
	}
}
