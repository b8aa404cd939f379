// Binary lane-pixel masks from colour frames
package threshold

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"advanced-lane-finding/internal/cvmat"
	"advanced-lane-finding/internal/mask"
)

// Masks holds the six per-criterion masks of one frame.
type Masks struct {
	AbsX       *mask.Mask
	AbsY       *mask.Mask
	Magnitude  *mask.Mask
	Direction  *mask.Mask
	Hue        *mask.Mask
	Saturation *mask.Mask
}

// Combine fuses the masks as (absX AND absY AND magnitude AND direction) OR
// (hue AND saturation).
func Combine(m Masks) (*mask.Mask, error) {
	gradient, err := mask.And(m.AbsX, m.AbsY, m.Magnitude, m.Direction)
	if err != nil {
		return nil, fmt.Errorf("gradient criteria: %w", err)
	}
	color, err := mask.And(m.Hue, m.Saturation)
	if err != nil {
		return nil, fmt.Errorf("colour criteria: %w", err)
	}
	return mask.Or(gradient, color)
}

// Engine converts colour frames into binary masks. It keeps no per-frame
// state and is safe for concurrent use.
type Engine struct {
	opts     Options
	criteria []Criterion
	logger   logrus.FieldLogger
}

// New validates opts and builds the six criteria.
func New(opts Options, logger logrus.FieldLogger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid threshold options: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Engine{
		opts: opts,
		criteria: []Criterion{
			AbsSobel{Axis: "x", Range: opts.AbsX},
			AbsSobel{Axis: "y", Range: opts.AbsY},
			Magnitude{Range: opts.Magnitude},
			Direction{Range: opts.Direction},
			HueChannel(opts.Hue),
			SaturationChannel(opts.Saturation),
		},
		logger: logger,
	}, nil
}

// Options returns the engine's configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// Apply thresholds an 8-bit 3-channel frame. The frame is not modified.
func (e *Engine) Apply(frame gocv.Mat) (*mask.Mask, error) {
	masks, err := e.Evaluate(frame)
	if err != nil {
		return nil, err
	}

	combined, err := Combine(masks)
	if err != nil {
		return nil, err
	}

	if e.opts.CloseKernel > 0 {
		combined, err = closeMask(combined, e.opts.CloseKernel)
		if err != nil {
			return nil, fmt.Errorf("closing: %w", err)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"width":  combined.Width,
		"height": combined.Height,
		"pixels": combined.Count(),
	}).Debug("THRESHOLD: mask combined")
	return combined, nil
}

// Evaluate computes the six criterion masks, in parallel.
func (e *Engine) Evaluate(frame gocv.Mat) (Masks, error) {
	if err := cvmat.ValidateColor(frame); err != nil {
		return Masks{}, err
	}

	src := frame
	if e.opts.BlurKernel > 0 {
		blurred := blur(frame, e.opts.BlurKernel)
		defer blurred.Close()
		src = blurred
	}

	features, err := extractFeatures(src, e.opts)
	if err != nil {
		return Masks{}, fmt.Errorf("feature extraction: %w", err)
	}

	results := make([]*mask.Mask, len(e.criteria))
	var g errgroup.Group
	for i, c := range e.criteria {
		g.Go(func() error {
			results[i] = c.Evaluate(features)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Masks{}, err
	}

	counts := logrus.Fields{}
	for i, c := range e.criteria {
		counts[c.Name()] = results[i].Count()
	}
	e.logger.WithFields(counts).Debug("THRESHOLD: criteria evaluated")

	return Masks{
		AbsX:       results[0],
		AbsY:       results[1],
		Magnitude:  results[2],
		Direction:  results[3],
		Hue:        results[4],
		Saturation: results[5],
	}, nil
}
