package video

import (
	"context"
	"fmt"
	"os/exec"
)

// Encoder muxes a finished frame sequence (plus an optional audio track)
// into the final container file. It runs strictly after the render join
// barrier and consumes frames in index order.
type Encoder interface {
	Encode(ctx context.Context, framePattern string, opts Options) error
}

type Options struct {
	FPS       int
	AudioPath string
	Output    string
	// Codec is the H.264 encoder name (libx264, h264_videotoolbox, h264_nvenc).
	Codec   string
	Quality int
}

type FFmpegEncoder struct{}

func (e *FFmpegEncoder) Encode(ctx context.Context, framePattern string, opts Options) error {
	args := e.buildArgs(framePattern, opts)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg error: %w, output: %s", err, string(out))
	}
	return nil
}

func (e *FFmpegEncoder) buildArgs(framePattern string, opts Options) []string {
	args := []string{
		"-y",
		"-framerate", fmt.Sprintf("%d", opts.FPS),
		"-i", framePattern,
	}

	if opts.AudioPath != "" {
		args = append(args, "-i", opts.AudioPath)
	}

	args = append(args,
		"-c:v", opts.Codec,
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", opts.FPS),
	)

	// Quality knob differs per encoder
	switch opts.Codec {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", opts.Quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", opts.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", opts.Quality), "-preset", "medium")
	}

	if opts.AudioPath != "" {
		// Trim the audio to the video length, as the original stack is the
		// source of truth for duration.
		args = append(args, "-c:a", "aac", "-shortest")
	}

	args = append(args, opts.Output)
	return args
}

// DefaultQuality picks a sensible quality value for the detected encoder
// when the user did not set one.
func DefaultQuality(codec string) int {
	switch codec {
	case "h264_videotoolbox":
		return 75 // bitrate units: 75 -> 7.5 Mbit/s
	case "h264_nvenc":
		return 28
	default:
		return 23 // x264 CRF
	}
}
