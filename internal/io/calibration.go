package io

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Calibration is a camera's intrinsic matrix and distortion coefficients as
// produced by a chessboard calibration.
type Calibration struct {
	CameraMatrix [][]float64 `yaml:"camera_matrix"`
	DistCoeffs   []float64   `yaml:"dist_coeffs"`
}

// Validate checks the matrix is 3x3 and the coefficient count is one OpenCV
// accepts.
func (c Calibration) Validate() error {
	if len(c.CameraMatrix) != 3 {
		return fmt.Errorf("camera_matrix must have 3 rows, got %d", len(c.CameraMatrix))
	}
	for i, row := range c.CameraMatrix {
		if len(row) != 3 {
			return fmt.Errorf("camera_matrix row %d must have 3 values, got %d", i, len(row))
		}
	}
	switch len(c.DistCoeffs) {
	case 4, 5, 8, 12, 14:
	default:
		return fmt.Errorf("dist_coeffs must have 4, 5, 8, 12 or 14 values, got %d", len(c.DistCoeffs))
	}
	return nil
}

// LoadCalibration reads a calibration YAML file.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Calibration{}, fmt.Errorf("failed to read calibration %s: %w", path, err)
	}

	var c Calibration
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Calibration{}, fmt.Errorf("failed to parse calibration %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Calibration{}, fmt.Errorf("calibration %s: %w", path, err)
	}
	return c, nil
}
