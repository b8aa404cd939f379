package threshold

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Features holds the per-pixel inputs every criterion reads. Slices are
// row-major and owned by Go, so criteria can run concurrently without
// touching OpenCV memory.
type Features struct {
	Width      int
	Height     int
	SobelX     []float64
	SobelY     []float64
	Hue        []uint8
	Saturation []uint8
}

// Len returns the pixel count.
func (f *Features) Len() int {
	return f.Width * f.Height
}

func conversionCodes(order ColorOrder) (gray, hls gocv.ColorConversionCode) {
	if order == RGB {
		return gocv.ColorRGBToGray, gocv.ColorRGBToHLS
	}
	return gocv.ColorBGRToGray, gocv.ColorBGRToHLS
}

// extractFeatures computes the gradients and HLS channels of an 8-bit
// 3-channel frame.
func extractFeatures(frame gocv.Mat, opts Options) (*Features, error) {
	grayCode, hlsCode := conversionCodes(opts.ColorOrder)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, grayCode)

	sobelX, err := sobel(gray, 1, 0, opts.SobelKernel)
	if err != nil {
		return nil, fmt.Errorf("sobel x: %w", err)
	}
	sobelY, err := sobel(gray, 0, 1, opts.SobelKernel)
	if err != nil {
		return nil, fmt.Errorf("sobel y: %w", err)
	}

	hls := gocv.NewMat()
	defer hls.Close()
	gocv.CvtColor(frame, &hls, hlsCode)

	packed := hls.ToBytes()
	n := frame.Rows() * frame.Cols()
	if len(packed) != n*3 {
		return nil, fmt.Errorf("unexpected HLS buffer size %d for %d pixels", len(packed), n)
	}

	f := &Features{
		Width:      frame.Cols(),
		Height:     frame.Rows(),
		SobelX:     sobelX,
		SobelY:     sobelY,
		Hue:        make([]uint8, n),
		Saturation: make([]uint8, n),
	}
	for i := 0; i < n; i++ {
		f.Hue[i] = packed[i*3]
		f.Saturation[i] = packed[i*3+2]
	}
	return f, nil
}

func sobel(gray gocv.Mat, dx, dy, ksize int) ([]float64, error) {
	out := gocv.NewMat()
	defer out.Close()
	gocv.Sobel(gray, &out, gocv.MatTypeCV64F, dx, dy, ksize, 1, 0, gocv.BorderDefault)

	data, err := out.DataPtrFloat64()
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), data...), nil
}
