// Lane geometry metrics: curvature radius and lateral offset
package metrics

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"advanced-lane-finding/internal/lane"
)

// CurvatureRadius returns the radius of the osculating circle of fit at y:
// R = (1 + (2ay + b)^2)^1.5 / |2a|. A zero leading coefficient has no finite
// radius; it yields +Inf together with lane.ErrDegenerateCurvature.
func CurvatureRadius(fit lane.Fit, y float64) (float64, error) {
	if fit.A == 0 {
		return math.Inf(1), lane.ErrDegenerateCurvature
	}
	slope := fit.Slope(y)
	return math.Pow(1+slope*slope, 1.5) / math.Abs(2*fit.A), nil
}

// LateralOffset evaluates both pixel fits at y = height, the lower edge of the
// frame, averages them into the lane center and returns (frame midpoint -
// center) in metres rounded to 2 decimals. Positive means the camera is right
// of lane center.
func LateralOffset(left, right lane.Fit, width, height int, scale lane.Scale) float64 {
	bottom := float64(height)
	center := (left.At(bottom) + right.At(bottom)) / 2
	position := float64(width / 2)
	return round2((position - center) * scale.MetersPerPixelX)
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// Input carries the fits of one frame.
type Input struct {
	LeftPixel, RightPixel   lane.Fit
	LeftMetric, RightMetric lane.Fit
	Width, Height           int
}

// Analyzer computes per-frame lane metrics for a fixed camera scale.
type Analyzer struct {
	scale  lane.Scale
	logger logrus.FieldLogger
}

// NewAnalyzer creates an analyzer for the given pixel-to-metre scale.
func NewAnalyzer(scale lane.Scale, logger logrus.FieldLogger) *Analyzer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Analyzer{scale: scale, logger: logger}
}

// Scale returns the analyzer's pixel-to-metre scale.
func (a *Analyzer) Scale() lane.Scale {
	return a.scale
}

// Analyze derives curvature radii at the bottom of the frame and the lateral
// offset. Straight lanes report +Inf radius, never NaN.
func (a *Analyzer) Analyze(in Input) lane.Metrics {
	yEval := float64(in.Height-1) * a.scale.MetersPerPixelY

	left, err := CurvatureRadius(in.LeftMetric, yEval)
	if err != nil {
		a.logger.WithField("lane", lane.Left).Debug("METRICS: straight lane, infinite radius")
	}
	right, err := CurvatureRadius(in.RightMetric, yEval)
	if err != nil {
		a.logger.WithField("lane", lane.Right).Debug("METRICS: straight lane, infinite radius")
	}

	return lane.Metrics{
		LeftCurvatureRadiusMeters:  left,
		RightCurvatureRadiusMeters: right,
		LateralOffsetMeters:        LateralOffset(in.LeftPixel, in.RightPixel, in.Width, in.Height, a.scale),
	}
}

// FormatRadius renders a radius for logs and reports; +Inf becomes "inf".
func FormatRadius(r float64) string {
	if math.IsInf(r, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", r)
}
