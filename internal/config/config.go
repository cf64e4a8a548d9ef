package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/zoomcomposer/internal/codec"
	"github.com/ivlev/zoomcomposer/internal/easing"
	"github.com/ivlev/zoomcomposer/internal/timeline"
)

// Config collects every knob of a zoom render job. It can be populated from
// flags, from a YAML job file, or both (flags win).
type Config struct {
	Inputs        []string `yaml:"inputs"`
	Output        string   `yaml:"output"`
	AudioPath     string   `yaml:"audio"`
	Zoom          float64  `yaml:"zoom"`
	Duration      float64  `yaml:"duration"`
	FPS           int      `yaml:"fps"`
	Easing        string   `yaml:"easing"`
	EasingPower   float64  `yaml:"easing_power"`
	EasingEdge    float64  `yaml:"easing_edge"`
	BlendEasing   string   `yaml:"blend_easing"`
	Direction     string   `yaml:"direction"`
	Width         float64  `yaml:"width"`
	Height        float64  `yaml:"height"`
	Margin        float64  `yaml:"margin"`
	Resampling    string   `yaml:"resampling"`
	Supersample   int      `yaml:"supersample"`
	Workers       int      `yaml:"workers"`
	TmpDir        string   `yaml:"tmp_dir"`
	DPI           int      `yaml:"dpi"`
	KeepFrames    bool     `yaml:"keep_frames"`
	SkipVideo     bool     `yaml:"skip_video"`
	Resume        bool     `yaml:"resume"`
	BlendPreview  bool     `yaml:"blend_preview"`
	ReverseImages bool     `yaml:"reverse_images"`
	Quality       int      `yaml:"quality"`
}

// Default mirrors the CLI defaults. Width/Height/Margin <= 1 are fractions
// of the first image (see PxOrFraction).
func Default() *Config {
	return &Config{
		Output:      "output.mp4",
		Zoom:        2.0,
		Duration:    10.0,
		FPS:         30,
		Easing:      easing.DefaultKind,
		EasingPower: easing.DefaultPower,
		EasingEdge:  easing.DefaultEdge,
		BlendEasing: "smoothstep",
		Direction:   string(timeline.Out),
		Width:       1,
		Height:      1,
		Margin:      0.05,
		Resampling:  codec.DefaultFilter,
		Supersample: 2,
		Workers:     -1,
		TmpDir:      "tmp",
		DPI:         300,
	}
}

// Load reads a YAML job file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing job file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects every configuration error it can see before any image is
// loaded; checks that need the source dimensions (margin vs. image size,
// aspect ratios) happen after loading. All the string-keyed knobs resolve to
// concrete values here, so an unknown tag can never surface at render time.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return fmt.Errorf("no input images given")
	}
	if c.Zoom <= 1 {
		return fmt.Errorf("zoom ratio must be > 1, got %g", c.Zoom)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g", c.Duration)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if timeline.FrameCount(c.Duration, c.FPS) < 1 {
		return fmt.Errorf("duration %gs at %d fps yields no frames", c.Duration, c.FPS)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("output size must be positive, got %gx%g", c.Width, c.Height)
	}
	if c.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %g", c.Margin)
	}
	if c.Supersample < 1 {
		return fmt.Errorf("supersample factor must be >= 1, got %d", c.Supersample)
	}
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", c.DPI)
	}
	if c.BlendPreview && c.Resume {
		return fmt.Errorf("blend preview ignores existing frames; it cannot be combined with resume")
	}

	if _, err := easing.Resolve(c.Easing, c.EasingPower, c.EasingEdge); err != nil {
		return err
	}
	if _, err := easing.Resolve(c.BlendEasing, c.EasingPower, c.EasingEdge); err != nil {
		return fmt.Errorf("blend easing: %w", err)
	}
	if _, err := timeline.ParseDirection(c.Direction); err != nil {
		return err
	}
	if _, err := codec.ResolveFilter(c.Resampling); err != nil {
		return err
	}

	return nil
}

// PxOrFraction interprets v as absolute pixels when > 1 and as a fraction of
// the reference dimension otherwise.
func PxOrFraction(v float64, reference int) int {
	if v <= 1 {
		v = float64(reference) * v
	}
	return int(v)
}

// MarginFraction resolves the margin against the first image and checks it
// leaves something to composite: a margin of half the smaller dimension or
// more would trim the image away entirely.
func MarginFraction(margin float64, firstW, firstH int) (float64, error) {
	smaller := firstW
	if firstH < smaller {
		smaller = firstH
	}
	px := PxOrFraction(margin, smaller)
	if 2*px >= smaller {
		return 0, fmt.Errorf("margin %dpx is at least half the smaller image dimension (%dpx)", px, smaller)
	}
	return float64(px) / float64(smaller), nil
}
