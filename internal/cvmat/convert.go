// Conversions between gocv matrices and pipeline frames
package cvmat

import (
	"fmt"

	"gocv.io/x/gocv"

	"advanced-lane-finding/internal/mask"
)

// MaxDimension bounds accepted frame sizes.
const MaxDimension = 16384

// ValidateColor checks that mat is a non-empty 8-bit 3-channel frame.
func ValidateColor(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("input image is empty")
	}
	if mat.Cols() <= 0 || mat.Rows() <= 0 || mat.Cols() > MaxDimension || mat.Rows() > MaxDimension {
		return fmt.Errorf("invalid image dimensions: %dx%d (max: %d)", mat.Cols(), mat.Rows(), MaxDimension)
	}
	if mat.Channels() != 3 {
		return fmt.Errorf("unsupported number of channels: %d", mat.Channels())
	}
	if mat.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("unsupported image type: %v", mat.Type())
	}
	return nil
}

// FromMask copies a binary mask into a new single-channel 8-bit Mat holding
// 0/1 values. The caller owns the result.
func FromMask(m *mask.Mask) (gocv.Mat, error) {
	if m == nil || m.Width <= 0 || m.Height <= 0 {
		return gocv.NewMat(), fmt.Errorf("cannot convert empty mask")
	}

	view, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8UC1, m.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to create mat from mask: %w", err)
	}
	defer view.Close()

	// Detach from the Go slice backing the view
	return view.Clone(), nil
}

// ToMask reads a single-channel 8-bit Mat into a new binary mask; any nonzero
// value becomes 1.
func ToMask(mat gocv.Mat) (*mask.Mask, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("input image is empty")
	}
	if mat.Channels() != 1 || mat.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("expected single-channel 8-bit image, got type %v", mat.Type())
	}

	data := mat.ToBytes()
	return mask.FromBytes(mat.Cols(), mat.Rows(), data)
}
