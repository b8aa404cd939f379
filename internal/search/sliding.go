package search

import (
	"image"

	"gonum.org/v1/gonum/floats"

	"advanced-lane-finding/internal/lane"
	"advanced-lane-finding/internal/mask"
)

// SlidingWindow re-detects both lines from scratch.
type SlidingWindow struct {
	params Params
}

// NewSlidingWindow creates an exhaustive sliding-window searcher.
func NewSlidingWindow(params Params) *SlidingWindow {
	return &SlidingWindow{params: params}
}

func (s *SlidingWindow) Strategy() Strategy {
	return StrategySlidingWindow
}

// Search takes the column histogram of the bottom half, starts each line at
// the peak of its half and walks the windows upward, recentering a window
// on the mean x of its pixels when it holds more than MinPixels.
func (s *SlidingWindow) Search(m *mask.Mask) Result {
	hist := m.ColumnSums(m.Height / 2)
	midpoint := m.Width / 2

	leftBase := argmax(hist[:midpoint])
	rightBase := argmax(hist[midpoint:]) + midpoint

	result := Result{
		Strategy:  StrategySlidingWindow,
		LeftBase:  leftBase,
		RightBase: rightBase,
	}

	windowHeight := m.Height / s.params.Windows
	margin := s.params.Margin
	leftCurrent, rightCurrent := leftBase, rightBase

	var left, right []image.Point
	for w := 0; w < s.params.Windows; w++ {
		yLow := m.Height - (w+1)*windowHeight
		yHigh := m.Height - w*windowHeight

		leftWin := image.Rect(leftCurrent-margin, yLow, leftCurrent+margin, yHigh)
		rightWin := image.Rect(rightCurrent-margin, yLow, rightCurrent+margin, yHigh)
		result.LeftWindows = append(result.LeftWindows, leftWin)
		result.RightWindows = append(result.RightWindows, rightWin)

		n := len(left)
		left = collect(left, m, leftWin)
		if found := left[n:]; len(found) > s.params.MinPixels {
			leftCurrent = meanX(found)
		}

		n = len(right)
		right = collect(right, m, rightWin)
		if found := right[n:]; len(found) > s.params.MinPixels {
			rightCurrent = meanX(found)
		}
	}

	result.Left = lane.PixelSet{Points: left}
	result.Right = lane.PixelSet{Points: right}
	return result
}

// argmax returns the lowest index of the maximum, or 0 for an empty histogram.
func argmax(hist []int) int {
	if len(hist) == 0 {
		return 0
	}
	vals := make([]float64, len(hist))
	for i, v := range hist {
		vals[i] = float64(v)
	}
	return floats.MaxIdx(vals)
}

// meanX truncates the mean column of pts.
func meanX(pts []image.Point) int {
	sum := 0
	for _, p := range pts {
		sum += p.X
	}
	return sum / len(pts)
}
