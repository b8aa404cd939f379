package search

import (
	"image"

	"advanced-lane-finding/internal/lane"
	"advanced-lane-finding/internal/mask"
)

// PriorGuided searches a band around the previous frame's fits.
type PriorGuided struct {
	params      Params
	left, right lane.Fit
}

// NewPriorGuided creates a searcher around trusted previous fits.
func NewPriorGuided(params Params, left, right lane.Fit) *PriorGuided {
	return &PriorGuided{params: params, left: left, right: right}
}

func (p *PriorGuided) Strategy() Strategy {
	return StrategyPriorGuided
}

// Search keeps every set pixel whose x lies strictly within PriorMargin of the
// previous fit evaluated at the pixel's row.
func (p *PriorGuided) Search(m *mask.Mask) Result {
	margin := p.params.PriorMargin

	var left, right []image.Point
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		fy := float64(y)
		leftX := p.left.At(fy)
		rightX := p.right.At(fy)

		for x, v := range row {
			if v == 0 {
				continue
			}
			fx := float64(x)
			if fx > leftX-margin && fx < leftX+margin {
				left = append(left, image.Pt(x, y))
			}
			if fx > rightX-margin && fx < rightX+margin {
				right = append(right, image.Pt(x, y))
			}
		}
	}

	return Result{
		Strategy: StrategyPriorGuided,
		Left:     lane.PixelSet{Points: left},
		Right:    lane.PixelSet{Points: right},
	}
}
