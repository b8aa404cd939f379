// Lane domain types shared by every stage of the frame pipeline
package lane

import (
	"image"
	"math"
)

// Side identifies one of the two lane lines.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Sides lists both lane lines in processing order.
var Sides = [2]Side{Left, Right}

// Fit is a quadratic x = A*y^2 + B*y + C.
type Fit struct {
	A, B, C float64
}

// At evaluates the polynomial at y.
func (f Fit) At(y float64) float64 {
	return f.A*y*y + f.B*y + f.C
}

// Slope returns dx/dy at y.
func (f Fit) Slope(y float64) float64 {
	return 2*f.A*y + f.B
}

// IsStraight reports whether the fit has no curvature term.
func IsStraight(f Fit) bool {
	return f.A == 0
}

// PointF is a sub-pixel coordinate.
type PointF struct {
	X, Y float64
}

// PixelSet holds the candidate pixels of one lane line for one frame.
type PixelSet struct {
	Points []image.Point
}

// Len returns the number of pixels.
func (p PixelSet) Len() int {
	return len(p.Points)
}

// XY splits the set into parallel x and y slices as float64.
func (p PixelSet) XY() (xs, ys []float64) {
	xs = make([]float64, len(p.Points))
	ys = make([]float64, len(p.Points))
	for i, pt := range p.Points {
		xs[i] = float64(pt.X)
		ys[i] = float64(pt.Y)
	}
	return xs, ys
}

// Scale converts pixel distances in the top-down view to metres.
type Scale struct {
	MetersPerPixelY float64
	MetersPerPixelX float64
}

// DefaultScale is 30 m over 720 rows and 3.7 m over 700 columns.
func DefaultScale() Scale {
	return Scale{
		MetersPerPixelY: 30.0 / 720.0,
		MetersPerPixelX: 3.7 / 700.0,
	}
}

// Metrics is the per-frame geometry report.
type Metrics struct {
	LeftCurvatureRadiusMeters  float64
	RightCurvatureRadiusMeters float64
	// LateralOffsetMeters is positive when the vehicle is right of lane center.
	LateralOffsetMeters float64
}

// Straight reports whether either radius is infinite.
func (m Metrics) Straight() bool {
	return math.IsInf(m.LeftCurvatureRadiusMeters, 1) || math.IsInf(m.RightCurvatureRadiusMeters, 1)
}
