// Frame and calibration collaborators around the pipeline
package io

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// FrameLoader reads and writes still frames with OpenCV. Decoded frames are
// BGR.
type FrameLoader struct {
	logger logrus.FieldLogger
}

func NewFrameLoader(logger logrus.FieldLogger) *FrameLoader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FrameLoader{
		logger: logger,
	}
}

// LoadFrame decodes a colour frame. The caller owns the result.
func (fl *FrameLoader) LoadFrame(path string) (gocv.Mat, error) {
	fl.logger.WithField("filepath", path).Debug("Loading frame")

	if !IsSupportedImageFormat(path) {
		return gocv.NewMat(), fmt.Errorf("unsupported image format: %s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("failed to load image: %s", path)
	}

	fl.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Debug("Frame loaded")

	return mat, nil
}

// SaveFrame encodes mat by the extension of path.
func (fl *FrameLoader) SaveFrame(mat gocv.Mat, path string) error {
	if mat.Empty() {
		return fmt.Errorf("cannot save empty image")
	}
	if !IsSupportedImageFormat(path) {
		return fmt.Errorf("unsupported image format: %s", path)
	}

	if ok := gocv.IMWrite(path, mat); !ok {
		return fmt.Errorf("failed to save image: %s", path)
	}

	fl.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
	}).Debug("Frame saved")
	return nil
}

// ListFrames expands files and directories into an ordered frame list.
// Directories contribute their supported images sorted by name; explicit
// files keep their argument order.
func (fl *FrameLoader) ListFrames(paths ...string) ([]string, error) {
	var frames []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("frame source %s: %w", p, err)
		}

		if !info.IsDir() {
			if !IsSupportedImageFormat(p) {
				return nil, fmt.Errorf("unsupported image format: %s", p)
			}
			frames = append(frames, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() || !IsSupportedImageFormat(e.Name()) {
				continue
			}
			names = append(names, e.Name())
		}
		slices.Sort(names)
		for _, n := range names {
			frames = append(frames, filepath.Join(p, n))
		}
	}

	fl.logger.WithField("frames", len(frames)).Debug("Frame list built")
	return frames, nil
}

// IsSupportedImageFormat reports whether OpenCV can read path by extension.
func IsSupportedImageFormat(path string) bool {
	return slices.Contains(supportedFormats, strings.ToLower(filepath.Ext(path)))
}
