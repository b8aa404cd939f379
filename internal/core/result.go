package core

import (
	"iter"

	"github.com/google/uuid"

	"advanced-lane-finding/internal/lane"
	"advanced-lane-finding/internal/perspective"
	"advanced-lane-finding/internal/search"
)

// Result is everything an external renderer needs to draw one frame.
type Result struct {
	SessionID uuid.UUID
	Frame     int
	Strategy  search.Strategy
	Search    search.Result

	Left        lane.Fit // pixel space, top-down view
	Right       lane.Fit
	LeftMetric  lane.Fit
	RightMetric lane.Fit

	Metrics lane.Metrics
	Inverse perspective.Homography

	Width  int
	Height int
}

// Fit returns the pixel fit of one side.
func (r *Result) Fit(side lane.Side) lane.Fit {
	if side == lane.Right {
		return r.Right
	}
	return r.Left
}

// LeftCurve yields the left line at every row, top to bottom.
func (r *Result) LeftCurve() iter.Seq[lane.PointF] {
	return curve(r.Left, r.Height, false)
}

// RightCurve yields the right line at every row, top to bottom.
func (r *Result) RightCurve() iter.Seq[lane.PointF] {
	return curve(r.Right, r.Height, false)
}

// LanePolygon walks the left line down and the right line back up, closing
// the area between them.
func (r *Result) LanePolygon() iter.Seq[lane.PointF] {
	return func(yield func(lane.PointF) bool) {
		for p := range curve(r.Left, r.Height, false) {
			if !yield(p) {
				return
			}
		}
		for p := range curve(r.Right, r.Height, true) {
			if !yield(p) {
				return
			}
		}
	}
}

// UnwarpedPolygon projects LanePolygon back onto the camera frame.
func (r *Result) UnwarpedPolygon() iter.Seq[lane.PointF] {
	return func(yield func(lane.PointF) bool) {
		for p := range r.LanePolygon() {
			if !yield(r.Inverse.Apply(p)) {
				return
			}
		}
	}
}

func curve(fit lane.Fit, height int, upward bool) iter.Seq[lane.PointF] {
	return func(yield func(lane.PointF) bool) {
		for i := 0; i < height; i++ {
			y := float64(i)
			if upward {
				y = float64(height - 1 - i)
			}
			if !yield(lane.PointF{X: fit.At(y), Y: y}) {
				return
			}
		}
	}
}
