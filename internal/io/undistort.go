package io

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Undistorter removes lens distortion from frames of one camera. Close
// releases its matrices.
type Undistorter struct {
	cameraMatrix gocv.Mat
	distCoeffs   gocv.Mat
}

func NewUndistorter(c Calibration) (*Undistorter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cm := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for r, row := range c.CameraMatrix {
		for col, v := range row {
			cm.SetDoubleAt(r, col, v)
		}
	}

	dc := gocv.NewMatWithSize(1, len(c.DistCoeffs), gocv.MatTypeCV64F)
	for i, v := range c.DistCoeffs {
		dc.SetDoubleAt(0, i, v)
	}

	return &Undistorter{cameraMatrix: cm, distCoeffs: dc}, nil
}

// Undistort returns a corrected copy of frame, keeping the camera matrix as
// the new one. The caller owns the result.
func (u *Undistorter) Undistort(frame gocv.Mat) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}

	out := gocv.NewMat()
	gocv.Undistort(frame, &out, u.cameraMatrix, u.distCoeffs, u.cameraMatrix)
	if out.Empty() {
		out.Close()
		return gocv.NewMat(), fmt.Errorf("undistortion produced an empty image")
	}
	return out, nil
}

func (u *Undistorter) Close() {
	u.cameraMatrix.Close()
	u.distCoeffs.Close()
}
