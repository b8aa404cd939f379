package core

import (
	"gocv.io/x/gocv"

	"advanced-lane-finding/internal/cvmat"
	"advanced-lane-finding/internal/lane"
)

// validateFrame checks that frame is a colour image of exactly w by h.
func validateFrame(frame gocv.Mat, w, h int) error {
	if frame.Empty() {
		return cvmat.ValidateColor(frame)
	}
	if frame.Cols() != w || frame.Rows() != h {
		return lane.InvalidDimensions("pipeline.frame", frame.Cols(), frame.Rows(), w, h)
	}
	return cvmat.ValidateColor(frame)
}
