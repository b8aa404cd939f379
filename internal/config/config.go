// Tuning file for the lane finder
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"advanced-lane-finding/internal/lane"
	"advanced-lane-finding/internal/perspective"
	"advanced-lane-finding/internal/search"
	"advanced-lane-finding/internal/threshold"
)

// Tuning is the root of the YAML file. Every field is optional; accessors
// fall back to the built-in defaults.
type Tuning struct {
	Threshold   *ThresholdTuning   `yaml:"threshold"`
	Search      *SearchTuning      `yaml:"search"`
	Perspective *PerspectiveTuning `yaml:"perspective"`
	Calibration *ScaleTuning       `yaml:"scale"`
}

// ThresholdTuning overrides threshold criteria. Ranges are [min, max].
type ThresholdTuning struct {
	AbsX        []float64 `yaml:"abs_x"`
	AbsY        []float64 `yaml:"abs_y"`
	Magnitude   []float64 `yaml:"magnitude"`
	Direction   []float64 `yaml:"direction"`
	Hue         []float64 `yaml:"hue"`
	Saturation  []float64 `yaml:"saturation"`
	SobelKernel *int      `yaml:"sobel_kernel"`
	ColorOrder  *string   `yaml:"color_order"`
	BlurKernel  *int      `yaml:"blur_kernel"`
	CloseKernel *int      `yaml:"close_kernel"`
}

// SearchTuning overrides the lane search.
type SearchTuning struct {
	Windows     *int     `yaml:"windows"`
	Margin      *int     `yaml:"margin"`
	MinPixels   *int     `yaml:"min_pixels"`
	PriorMargin *float64 `yaml:"prior_margin"`
}

// PerspectiveTuning overrides the warp quads. Both need four anchors.
type PerspectiveTuning struct {
	Source      []AnchorTuning `yaml:"source"`
	Destination []AnchorTuning `yaml:"destination"`
}

// AnchorTuning is one quad corner relative to the frame size.
type AnchorTuning struct {
	XFrac   float64 `yaml:"x_frac"`
	XOffset float64 `yaml:"x_offset"`
	YFrac   float64 `yaml:"y_frac"`
	YOffset float64 `yaml:"y_offset"`
}

// ScaleTuning overrides the pixel-to-metre calibration.
type ScaleTuning struct {
	MetersPerPixelY *float64 `yaml:"meters_per_pixel_y"`
	MetersPerPixelX *float64 `yaml:"meters_per_pixel_x"`
}

// Default returns a tuning with every value at its default.
func Default() *Tuning {
	return &Tuning{}
}

// Load reads and validates a tuning file.
func Load(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates YAML tuning data.
func Parse(data []byte) (*Tuning, error) {
	t := &Tuning{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the resolved values of every section.
func (t *Tuning) Validate() error {
	opts, err := t.ThresholdOptions()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("threshold: %w", err)
	}

	if err := t.SearchParams().Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if _, err := t.PerspectiveConfig(); err != nil {
		return err
	}

	s := t.Scale()
	if s.MetersPerPixelX <= 0 || s.MetersPerPixelY <= 0 {
		return fmt.Errorf("scale: metres per pixel must be positive, got x=%g y=%g", s.MetersPerPixelX, s.MetersPerPixelY)
	}
	return nil
}

// ThresholdOptions resolves the threshold section.
func (t *Tuning) ThresholdOptions() (threshold.Options, error) {
	opts := threshold.DefaultOptions()
	th := t.Threshold
	if th == nil {
		return opts, nil
	}

	ranges := []struct {
		name      string
		values    []float64
		dst       *threshold.Range
		exclusive bool
	}{
		{"abs_x", th.AbsX, &opts.AbsX, false},
		{"abs_y", th.AbsY, &opts.AbsY, false},
		{"magnitude", th.Magnitude, &opts.Magnitude, false},
		{"direction", th.Direction, &opts.Direction, false},
		{"hue", th.Hue, &opts.Hue, true},
		{"saturation", th.Saturation, &opts.Saturation, true},
	}
	for _, r := range ranges {
		if r.values == nil {
			continue
		}
		if len(r.values) != 2 {
			return opts, fmt.Errorf("threshold.%s: want [min, max], got %d values", r.name, len(r.values))
		}
		if r.exclusive {
			*r.dst = threshold.LowerExclusive(r.values[0], r.values[1])
		} else {
			*r.dst = threshold.Inclusive(r.values[0], r.values[1])
		}
	}

	opts.SobelKernel = th.GetSobelKernel()
	opts.ColorOrder = threshold.ColorOrder(th.GetColorOrder())
	opts.BlurKernel = th.GetBlurKernel()
	opts.CloseKernel = th.GetCloseKernel()
	return opts, nil
}

// SearchParams resolves the search section.
func (t *Tuning) SearchParams() search.Params {
	s := t.Search
	return search.Params{
		Windows:     s.GetWindows(),
		Margin:      s.GetMargin(),
		MinPixels:   s.GetMinPixels(),
		PriorMargin: s.GetPriorMargin(),
	}
}

// PerspectiveConfig resolves the perspective section.
func (t *Tuning) PerspectiveConfig() (perspective.Config, error) {
	cfg := perspective.DefaultConfig()
	p := t.Perspective
	if p == nil {
		return cfg, nil
	}

	if p.Source != nil {
		q, err := quad("source", p.Source)
		if err != nil {
			return cfg, err
		}
		cfg.Source = q
	}
	if p.Destination != nil {
		q, err := quad("destination", p.Destination)
		if err != nil {
			return cfg, err
		}
		cfg.Destination = q
	}
	return cfg, nil
}

// Scale resolves the calibration section.
func (t *Tuning) Scale() lane.Scale {
	return lane.Scale{
		MetersPerPixelY: t.Calibration.GetMetersPerPixelY(),
		MetersPerPixelX: t.Calibration.GetMetersPerPixelX(),
	}
}

func quad(name string, anchors []AnchorTuning) (perspective.Quad, error) {
	var q perspective.Quad
	if len(anchors) != len(q) {
		return q, fmt.Errorf("perspective.%s: want 4 anchors, got %d", name, len(anchors))
	}
	for i, a := range anchors {
		q[i] = perspective.Anchor{XFrac: a.XFrac, XOffset: a.XOffset, YFrac: a.YFrac, YOffset: a.YOffset}
	}
	return q, nil
}
