// Least-squares quadratic fitting of lane lines
package polyfit

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"advanced-lane-finding/internal/lane"
)

// MinDistinctRows is the number of distinct y values a quadratic needs.
const MinDistinctRows = 3

// Fit solves the ordinary least-squares problem x = a*y^2 + b*y + c over the
// given samples. It fails with lane.ErrFitUnavailable when fewer than three
// distinct y values are present or the system is singular.
func Fit(xs, ys []float64) (lane.Fit, error) {
	if len(xs) != len(ys) {
		return lane.Fit{}, fmt.Errorf("sample length mismatch: %d xs, %d ys", len(xs), len(ys))
	}

	if n := distinct(ys, MinDistinctRows); n < MinDistinctRows {
		return lane.Fit{}, fmt.Errorf("%w: %d distinct rows in %d samples", lane.ErrFitUnavailable, n, len(ys))
	}

	// Design matrix columns: y^2, y, 1
	n := len(ys)
	design := mat.NewDense(n, 3, nil)
	for i, y := range ys {
		design.Set(i, 0, y*y)
		design.Set(i, 1, y)
		design.Set(i, 2, 1)
	}
	target := mat.NewVecDense(n, xs)

	// Tall systems are solved through QR, which gives the same minimiser as
	// the normal equations without squaring the condition number.
	var coef mat.VecDense
	if err := coef.SolveVec(design, target); err != nil {
		return lane.Fit{}, fmt.Errorf("%w: %v", lane.ErrFitUnavailable, err)
	}

	return lane.Fit{A: coef.AtVec(0), B: coef.AtVec(1), C: coef.AtVec(2)}, nil
}

// FitPixels fits a lane's candidate pixels in pixel space.
func FitPixels(side lane.Side, pixels lane.PixelSet) (lane.Fit, error) {
	xs, ys := pixels.XY()
	fit, err := Fit(xs, ys)
	if err != nil {
		return lane.Fit{}, lane.FitUnavailable("polyfit.pixels", side, err)
	}
	return fit, nil
}

// FitMetric refits a pixel-space curve in metres. The pixel fit is sampled at
// every row 0..height-1 and the samples are converted before fitting, so the
// result is the least-squares optimum in metric units rather than a rescaling
// of the pixel coefficients.
func FitMetric(side lane.Side, pixelFit lane.Fit, height int, scale lane.Scale) (lane.Fit, error) {
	if height < MinDistinctRows {
		return lane.Fit{}, lane.FitUnavailable("polyfit.metric", side,
			fmt.Errorf("%w: frame height %d", lane.ErrFitUnavailable, height))
	}

	ys := make([]float64, height)
	floats.Span(ys, 0, float64(height-1))

	xs := make([]float64, height)
	for i, y := range ys {
		xs[i] = pixelFit.At(y)
	}

	floats.Scale(scale.MetersPerPixelY, ys)
	floats.Scale(scale.MetersPerPixelX, xs)

	fit, err := Fit(xs, ys)
	if err != nil {
		return lane.Fit{}, lane.FitUnavailable("polyfit.metric", side, err)
	}
	return fit, nil
}

// distinct counts distinct values, stopping once limit is reached.
func distinct(vs []float64, limit int) int {
	seen := make(map[float64]struct{}, limit)
	for _, v := range vs {
		seen[v] = struct{}{}
		if len(seen) >= limit {
			break
		}
	}
	return len(seen)
}
