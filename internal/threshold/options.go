package threshold

import (
	"fmt"
)

// Range is a threshold interval. Max is always inclusive; Min is inclusive
// unless LowerExclusive is set.
type Range struct {
	Min            float64
	Max            float64
	LowerExclusive bool
}

// Inclusive returns the closed range [min, max].
func Inclusive(min, max float64) Range {
	return Range{Min: min, Max: max}
}

// LowerExclusive returns the half-open range (min, max].
func LowerExclusive(min, max float64) Range {
	return Range{Min: min, Max: max, LowerExclusive: true}
}

// Contains reports whether v lies in the range.
func (r Range) Contains(v float64) bool {
	if r.LowerExclusive {
		return v > r.Min && v <= r.Max
	}
	return v >= r.Min && v <= r.Max
}

func (r Range) validate(name string) error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("%s range must be non-negative, got [%g, %g]", name, r.Min, r.Max)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%s range min %g exceeds max %g", name, r.Min, r.Max)
	}
	return nil
}

// ColorOrder names the channel order of incoming colour frames.
type ColorOrder string

const (
	BGR ColorOrder = "bgr"
	RGB ColorOrder = "rgb"
)

// Options configures the engine. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	AbsX       Range
	AbsY       Range
	Magnitude  Range
	Direction  Range // radians
	Hue        Range // OpenCV 8-bit hue, 0..180
	Saturation Range

	SobelKernel int
	ColorOrder  ColorOrder

	// BlurKernel is the Gaussian pre-blur size, 0 disables it.
	BlurKernel int
	// CloseKernel is the closing size applied to the combined mask, 0 disables it.
	CloseKernel int
}

// DefaultOptions returns the lane-finding defaults.
func DefaultOptions() Options {
	return Options{
		AbsX:        Inclusive(20, 100),
		AbsY:        Inclusive(20, 100),
		Magnitude:   Inclusive(30, 100),
		Direction:   Inclusive(0.7, 1.4),
		Hue:         LowerExclusive(10, 35),
		Saturation:  LowerExclusive(120, 255),
		SobelKernel: 3,
		ColorOrder:  BGR,
	}
}

// Validate checks every range and kernel size.
func (o Options) Validate() error {
	ranges := []struct {
		name string
		r    Range
	}{
		{"abs_x", o.AbsX},
		{"abs_y", o.AbsY},
		{"magnitude", o.Magnitude},
		{"direction", o.Direction},
		{"hue", o.Hue},
		{"saturation", o.Saturation},
	}
	for _, nr := range ranges {
		if err := nr.r.validate(nr.name); err != nil {
			return err
		}
	}

	switch o.SobelKernel {
	case 1, 3, 5, 7:
	default:
		return fmt.Errorf("sobel kernel must be 1, 3, 5 or 7, got %d", o.SobelKernel)
	}

	if o.ColorOrder != BGR && o.ColorOrder != RGB {
		return fmt.Errorf("unknown colour order: %q", o.ColorOrder)
	}

	if o.BlurKernel < 0 || (o.BlurKernel > 0 && o.BlurKernel%2 == 0) {
		return fmt.Errorf("blur kernel must be 0 or a positive odd number, got %d", o.BlurKernel)
	}
	if o.CloseKernel < 0 || o.CloseKernel > 15 {
		return fmt.Errorf("close kernel must be between 0 and 15, got %d", o.CloseKernel)
	}
	return nil
}
