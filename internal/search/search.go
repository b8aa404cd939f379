// Lane pixel search strategies over a top-down binary mask
package search

import (
	"fmt"
	"image"

	"advanced-lane-finding/internal/lane"
	"advanced-lane-finding/internal/mask"
)

// Strategy names the search that produced a frame's pixels.
type Strategy string

const (
	StrategySlidingWindow Strategy = "sliding_window"
	StrategyPriorGuided   Strategy = "prior_guided"
)

// Params holds the search hyperparameters.
type Params struct {
	Windows     int     // sliding windows stacked bottom to top
	Margin      int     // half width of a sliding window, px
	MinPixels   int     // pixels a window needs (strictly more than) to recenter
	PriorMargin float64 // half width of the band around a previous fit, px
}

// DefaultParams returns 9 windows, a 100 px margin, 50 px recenter threshold
// and a 100 px prior band.
func DefaultParams() Params {
	return Params{
		Windows:     9,
		Margin:      100,
		MinPixels:   50,
		PriorMargin: 100,
	}
}

// Validate checks that the parameters describe a usable search.
func (p Params) Validate() error {
	if p.Windows < 1 {
		return fmt.Errorf("windows must be at least 1, got %d", p.Windows)
	}
	if p.Margin <= 0 {
		return fmt.Errorf("margin must be positive, got %d", p.Margin)
	}
	if p.MinPixels < 0 {
		return fmt.Errorf("min_pixels must not be negative, got %d", p.MinPixels)
	}
	if p.PriorMargin <= 0 {
		return fmt.Errorf("prior_margin must be positive, got %f", p.PriorMargin)
	}
	return nil
}

// Result is the output contract shared by both strategies.
type Result struct {
	Strategy Strategy
	Left     lane.PixelSet
	Right    lane.PixelSet

	// Sliding-window diagnostics, empty for prior-guided search.
	LeftBase     int
	RightBase    int
	LeftWindows  []image.Rectangle
	RightWindows []image.Rectangle
}

// Pixels returns the pixel set of one side.
func (r Result) Pixels(side lane.Side) lane.PixelSet {
	if side == lane.Right {
		return r.Right
	}
	return r.Left
}

// Searcher locates candidate pixels of both lane lines.
type Searcher interface {
	Strategy() Strategy
	Search(m *mask.Mask) Result
}

// collect appends the set pixels inside r (clipped to the mask) in row-major
// order.
func collect(dst []image.Point, m *mask.Mask, r image.Rectangle) []image.Point {
	r = r.Intersect(m.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			if row[x] != 0 {
				dst = append(dst, image.Pt(x, y))
			}
		}
	}
	return dst
}
