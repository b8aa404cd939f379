package threshold

import (
	"image"

	"gocv.io/x/gocv"

	"advanced-lane-finding/internal/cvmat"
	"advanced-lane-finding/internal/mask"
)

// blur applies a Gaussian blur with sigma derived from the kernel size.
func blur(input gocv.Mat, kernelSize int) gocv.Mat {
	output := gocv.NewMat()
	gocv.GaussianBlur(input, &output, image.Pt(kernelSize, kernelSize), 0, 0, gocv.BorderDefault)
	return output
}

// closeMask fills small gaps with a rectangular morphological closing.
func closeMask(m *mask.Mask, kernelSize int) (*mask.Mask, error) {
	input, err := cvmat.FromMask(m)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(kernelSize, kernelSize))
	defer kernel.Close()

	output := gocv.NewMat()
	defer output.Close()
	gocv.MorphologyEx(input, &output, gocv.MorphClose, kernel)

	return cvmat.ToMask(output)
}
