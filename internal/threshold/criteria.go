package threshold

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"advanced-lane-finding/internal/mask"
)

// Criterion turns a frame's features into one binary mask.
type Criterion interface {
	Name() string
	Evaluate(f *Features) *mask.Mask
}

// Criterion names. Engine.Evaluate logs each criterion's pixel count under its name.
const (
	NameAbsX       = "abs_x"
	NameAbsY       = "abs_y"
	NameMagnitude  = "magnitude"
	NameDirection  = "direction"
	NameHue        = "hue"
	NameSaturation = "saturation"
)

// AbsSobel thresholds the absolute derivative along one axis after
// rescaling it to 0..255 by the frame maximum.
type AbsSobel struct {
	Axis  string // "x" or "y"
	Range Range
}

func (a AbsSobel) Name() string {
	if a.Axis == "y" {
		return NameAbsY
	}
	return NameAbsX
}

func (a AbsSobel) Evaluate(f *Features) *mask.Mask {
	src := f.SobelX
	if a.Axis == "y" {
		src = f.SobelY
	}

	abs := make([]float64, len(src))
	for i, v := range src {
		abs[i] = math.Abs(v)
	}
	peak := maxOf(abs)

	out := mask.New(f.Width, f.Height)
	for i, v := range abs {
		if a.Range.Contains(float64(rescaleByMax(v, peak))) {
			out.Pix[i] = 1
		}
	}
	return out
}

// Magnitude thresholds the rescaled gradient magnitude.
type Magnitude struct {
	Range Range
}

func (Magnitude) Name() string { return NameMagnitude }

func (m Magnitude) Evaluate(f *Features) *mask.Mask {
	mag := make([]float64, f.Len())
	for i := range mag {
		mag[i] = math.Hypot(f.SobelX[i], f.SobelY[i])
	}
	peak := maxOf(mag)

	out := mask.New(f.Width, f.Height)
	for i, v := range mag {
		if m.Range.Contains(float64(rescaleByFactor(v, peak))) {
			out.Pix[i] = 1
		}
	}
	return out
}

// Direction thresholds atan2(|dy|, |dx|) in radians.
type Direction struct {
	Range Range
}

func (Direction) Name() string { return NameDirection }

func (d Direction) Evaluate(f *Features) *mask.Mask {
	out := mask.New(f.Width, f.Height)
	for i := range out.Pix {
		angle := math.Atan2(math.Abs(f.SobelY[i]), math.Abs(f.SobelX[i]))
		if d.Range.Contains(angle) {
			out.Pix[i] = 1
		}
	}
	return out
}

// Channel thresholds one 8-bit HLS channel.
type Channel struct {
	Label string
	Range Range
	Pick  func(f *Features) []uint8
}

func (c Channel) Name() string { return c.Label }

func (c Channel) Evaluate(f *Features) *mask.Mask {
	out := mask.New(f.Width, f.Height)
	for i, v := range c.Pick(f) {
		if c.Range.Contains(float64(v)) {
			out.Pix[i] = 1
		}
	}
	return out
}

// HueChannel thresholds the hue plane.
func HueChannel(r Range) Channel {
	return Channel{Label: NameHue, Range: r, Pick: func(f *Features) []uint8 { return f.Hue }}
}

// SaturationChannel thresholds the saturation plane.
func SaturationChannel(r Range) Channel {
	return Channel{Label: NameSaturation, Range: r, Pick: func(f *Features) []uint8 { return f.Saturation }}
}

func maxOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Max(v)
}

// rescaleByMax computes uint8(255*v/peak), truncating. A zero peak yields 0.
func rescaleByMax(v, peak float64) uint8 {
	if peak == 0 {
		return 0
	}
	return uint8(255 * v / peak)
}

// rescaleByFactor computes uint8(v/(peak/255)), truncating. A zero peak
// yields 0.
func rescaleByFactor(v, peak float64) uint8 {
	if peak == 0 {
		return 0
	}
	return uint8(math.Min(v/(peak/255), 255))
}
