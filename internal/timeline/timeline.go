package timeline

import (
	"fmt"
	"math"

	"github.com/ivlev/zoomcomposer/internal/easing"
)

// Direction selects how the zoom coordinate traverses the image stack while
// normalized time runs 0..1.
type Direction string

const (
	In    Direction = "in"    // N-1 -> 0
	Out   Direction = "out"   // 0 -> N-1
	InOut Direction = "inout" // 0 -> N-1 -> 0
	OutIn Direction = "outin" // N-1 -> 0 -> N-1
)

// ParseDirection validates a direction name. Unknown values are a
// configuration error.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case In, Out, InOut, OutIn:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unsupported zoom direction: %q (supported: in, out, inout, outin)", s)
}

// Frame describes a single output frame. Frames are immutable once produced
// by New.
type Frame struct {
	Index int
	Time  float64 // normalized time in [0,1]
	Coord float64 // zoom coordinate in [0, N-1]
}

// Split returns the integer part (base image index) and the fractional part
// (blend weight toward the next image) of the zoom coordinate. At the top of
// the stack the fraction is exactly 0, so a blend partner always exists when
// it is needed.
func (f Frame) Split() (int, float64) {
	i := int(math.Floor(f.Coord))
	return i, f.Coord - float64(i)
}

// New maps every frame index k in [0,frames) to a zoom coordinate over a
// stack of images. The coordinate moves monotonically within each direction
// segment; for inout/outin each half renormalizes its local time before
// easing, so the reversal at the midpoint has no velocity jump.
func New(frames, images int, dir Direction, ease easing.Func) ([]Frame, error) {
	if images < 2 {
		return nil, fmt.Errorf("at least two images are required, got %d", images)
	}
	if frames < 1 {
		return nil, fmt.Errorf("at least one frame is required, got %d", frames)
	}

	span := float64(images - 1)
	out := make([]Frame, frames)

	for k := 0; k < frames; k++ {
		var coord float64
		switch dir {
		case Out:
			coord = ease(localTime(k, frames)) * span
		case In:
			coord = (1 - ease(localTime(k, frames))) * span
		case InOut:
			half := frames / 2
			if k < half {
				coord = ease(localTime(k, half)) * span
			} else {
				coord = (1 - ease(localTime(k-half, frames-half))) * span
			}
		case OutIn:
			half := frames / 2
			if k < half {
				coord = (1 - ease(localTime(k, half))) * span
			} else {
				coord = ease(localTime(k-half, frames-half)) * span
			}
		default:
			return nil, fmt.Errorf("unsupported zoom direction: %q", dir)
		}

		// Floating error in the easing function must not push the
		// coordinate outside the stack.
		coord = math.Min(math.Max(coord, 0), span)

		out[k] = Frame{Index: k, Time: localTime(k, frames), Coord: coord}
	}

	return out, nil
}

// localTime normalizes a frame index within a segment of n frames to [0,1].
func localTime(k, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(k) / float64(n-1)
}

// FrameCount derives the number of output frames from duration and fps,
// exactly as the frame store and the video encoder will see them.
func FrameCount(duration float64, fps int) int {
	return int(duration * float64(fps))
}
