package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ivlev/zoomcomposer/internal/codec"
	"github.com/ivlev/zoomcomposer/internal/compositor"
	"github.com/ivlev/zoomcomposer/internal/config"
	"github.com/ivlev/zoomcomposer/internal/easing"
	"github.com/ivlev/zoomcomposer/internal/logger"
	"github.com/ivlev/zoomcomposer/internal/render"
	"github.com/ivlev/zoomcomposer/internal/source"
	"github.com/ivlev/zoomcomposer/internal/system"
	"github.com/ivlev/zoomcomposer/internal/timeline"
	"github.com/ivlev/zoomcomposer/internal/video"
)

var log = logger.Log

func main() {
	system.InitResourceLimits()

	def := config.Default()

	jobPtr := flag.String("job", "", "YAML job file; explicit flags override its values")
	outputPtr := flag.String("output", def.Output, "Output video file")
	audioPtr := flag.String("audio", "", "Audio file to add to the video")
	zoomPtr := flag.Float64("zoom", def.Zoom, "Zoom factor/ratio between images")
	durationPtr := flag.Float64("duration", def.Duration, "Duration of the video in seconds")
	fpsPtr := flag.Int("fps", def.FPS, "Frames per second of the output video")
	easingPtr := flag.String("easing", def.Easing, "Easing function ("+strings.Join(easing.Names(), ", ")+")")
	easingPowerPtr := flag.Float64("easing-power", def.EasingPower, "Exponent for the easeInPow/easeOutPow/easeInOutPow easings")
	easingEdgePtr := flag.Float64("easing-edge", def.EasingEdge, "Eased fraction at each end for linearWithInOutEase")
	blendPtr := flag.String("blend-easing", def.BlendEasing, "Cross-fade weight curve between adjacent images")
	directionPtr := flag.String("direction", def.Direction, "Zoom direction: in, out, inout, outin")
	widthPtr := flag.Float64("width", def.Width, "Output width: >1 pixels, <=1 fraction of the first image")
	heightPtr := flag.Float64("height", def.Height, "Output height: >1 pixels, <=1 fraction of the first image")
	marginPtr := flag.Float64("margin", def.Margin, "Edge margin to trim: >1 pixels, <=1 fraction of the smaller dimension")
	resamplingPtr := flag.String("resampling", def.Resampling, "Resampling filter ("+strings.Join(codec.FilterNames(), ", ")+")")
	supersamplePtr := flag.Int("supersample", def.Supersample, "Compose frames at this multiple of the output size before the final downscale")
	workersPtr := flag.Int("workers", def.Workers, "Worker count; values <= 0 mean available CPUs minus the absolute value")
	tmpDirPtr := flag.String("tmp-dir", def.TmpDir, "Temporary directory for frames")
	dpiPtr := flag.Int("dpi", def.DPI, "Render DPI when the input is a PDF")
	keepFramesPtr := flag.Bool("keep-frames", false, "Keep the frame directory after the video is written")
	skipVideoPtr := flag.Bool("skip-video", false, "Only generate frames, skip video encoding (implies keeping frames)")
	resumePtr := flag.Bool("resume", false, "Skip frames that already exist from an interrupted run")
	previewPtr := flag.Bool("blend-preview", false, "Render one half-blend composite per image pair and stop")
	reversePtr := flag.Bool("reverse-images", false, "Reverse the order of the input images")
	qualityPtr := flag.Int("quality", 0, "Video quality (0 = auto; x264: CRF, VideoToolbox: bitrate units, NVENC: CQ)")

	flag.Parse()

	cfg := def
	if *jobPtr != "" {
		loaded, err := config.Load(*jobPtr)
		if err != nil {
			log.Fatalf("[-] Job file error: %v", err)
		}
		cfg = loaded
	}

	// Flags set explicitly on the command line win over the job file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output":
			cfg.Output = *outputPtr
		case "audio":
			cfg.AudioPath = *audioPtr
		case "zoom":
			cfg.Zoom = *zoomPtr
		case "duration":
			cfg.Duration = *durationPtr
		case "fps":
			cfg.FPS = *fpsPtr
		case "easing":
			cfg.Easing = *easingPtr
		case "easing-power":
			cfg.EasingPower = *easingPowerPtr
		case "easing-edge":
			cfg.EasingEdge = *easingEdgePtr
		case "blend-easing":
			cfg.BlendEasing = *blendPtr
		case "direction":
			cfg.Direction = *directionPtr
		case "width":
			cfg.Width = *widthPtr
		case "height":
			cfg.Height = *heightPtr
		case "margin":
			cfg.Margin = *marginPtr
		case "resampling":
			cfg.Resampling = *resamplingPtr
		case "supersample":
			cfg.Supersample = *supersamplePtr
		case "workers":
			cfg.Workers = *workersPtr
		case "tmp-dir":
			cfg.TmpDir = *tmpDirPtr
		case "dpi":
			cfg.DPI = *dpiPtr
		case "keep-frames":
			cfg.KeepFrames = *keepFramesPtr
		case "skip-video":
			cfg.SkipVideo = *skipVideoPtr
		case "resume":
			cfg.Resume = *resumePtr
		case "blend-preview":
			cfg.BlendPreview = *previewPtr
		case "reverse-images":
			cfg.ReverseImages = *reversePtr
		case "quality":
			cfg.Quality = *qualityPtr
		}
	})

	if args := flag.Args(); len(args) > 0 {
		cfg.Inputs = args
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Configuration error: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("[-] %v", err)
	}
}

func run(cfg *config.Config) error {
	src, err := source.Open(cfg.Inputs, cfg.DPI)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer src.Close()

	log.Infof("[*] Reading %d images ...", src.Count())
	images, err := source.LoadAll(src, cfg.ReverseImages)
	if err != nil {
		return err
	}

	first := images[0].Bounds()
	width := config.PxOrFraction(cfg.Width, first.Dx())
	height := config.PxOrFraction(cfg.Height, first.Dy())
	// yuv420p needs even dimensions
	width += width % 2
	height += height % 2

	marginFrac, err := config.MarginFraction(cfg.Margin, first.Dx(), first.Dy())
	if err != nil {
		return err
	}

	// All the string-keyed knobs were validated already; resolve them into
	// concrete values once, before any frame work.
	ease, err := easing.Resolve(cfg.Easing, cfg.EasingPower, cfg.EasingEdge)
	if err != nil {
		return err
	}
	blend, err := easing.Resolve(cfg.BlendEasing, cfg.EasingPower, cfg.EasingEdge)
	if err != nil {
		return err
	}
	dir, err := timeline.ParseDirection(cfg.Direction)
	if err != nil {
		return err
	}
	filter, err := codec.ResolveFilter(cfg.Resampling)
	if err != nil {
		return err
	}

	stack, err := compositor.NewStack(images, codec.StdCodec{}, compositor.Options{
		Zoom:        cfg.Zoom,
		Margin:      marginFrac,
		Width:       width,
		Height:      height,
		Supersample: cfg.Supersample,
		Filter:      filter,
		Blend:       blend,
	})
	if err != nil {
		return err
	}

	store, err := render.NewStore(cfg.TmpDir, src.Paths())
	if err != nil {
		return err
	}

	workers := system.Workers(cfg.Workers)
	system.CheckMemory(workers, stack.LayerBytes(), compositor.LayerCacheSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord := &render.Coordinator{
		Stack:    stack,
		Store:    store,
		Codec:    codec.StdCodec{},
		Workers:  workers,
		Resume:   cfg.Resume,
		Progress: true,
	}

	if cfg.BlendPreview {
		log.Infof("[*] Rendering %d blend previews to %s ...", stack.Count()-1, store.Dir())
		if err := coord.RunPreview(ctx); err != nil {
			return err
		}
		log.Infof("[+] Done! Inspect the pair_*.png composites in %s", store.Dir())
		return nil
	}

	frameCount := timeline.FrameCount(cfg.Duration, cfg.FPS)
	frames, err := timeline.New(frameCount, len(images), dir, ease)
	if err != nil {
		return err
	}

	log.Infof("[*] Source: %d images | %dx%d @ %d FPS | %d frames | zoom %.2f | %s/%s",
		len(images), width, height, cfg.FPS, frameCount, cfg.Zoom, cfg.Direction, cfg.Easing)
	log.Infof("[*] Rendering in %d workers to %s ...", workers, store.Dir())

	if err := coord.Run(ctx, frames); err != nil {
		return fmt.Errorf("render failed: %w (finished frames are kept; rerun with -resume to continue)", err)
	}

	if cfg.SkipVideo {
		log.Infof("[+] Frames ready in %s (video generation skipped)", store.Dir())
		return nil
	}

	encoder := system.GetBestH264Encoder()
	if encoder != "libx264" {
		log.Infof("[*] Hardware encoder detected: %s", encoder)
	}
	quality := cfg.Quality
	if quality == 0 {
		quality = video.DefaultQuality(encoder)
	}

	log.Infof("[*] Writing video to %s ...", cfg.Output)
	enc := &video.FFmpegEncoder{}
	err = enc.Encode(ctx, store.Pattern(), video.Options{
		FPS:       cfg.FPS,
		AudioPath: cfg.AudioPath,
		Output:    cfg.Output,
		Codec:     encoder,
		Quality:   quality,
	})
	if err != nil {
		return err
	}

	if !cfg.KeepFrames {
		if err := store.Remove(); err != nil {
			log.Warnf("[!] Could not remove frame directory: %v", err)
		}
	}

	log.Infof("[+++] Done! Result: %s", cfg.Output)
	return nil
}
