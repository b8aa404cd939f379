// PNG charts of a recorded run
package report

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"advanced-lane-finding/internal/store"
)

// File names written by Write.
const (
	OffsetFile = "offset.png"
	RadiusFile = "radius.png"
)

var (
	leftColor   = color.RGBA{R: 220, G: 50, B: 47, A: 255}
	rightColor  = color.RGBA{R: 38, G: 139, B: 210, A: 255}
	offsetColor = color.RGBA{R: 133, G: 153, B: 0, A: 255}
)

// Series holds the plottable points of a run. Failed frames and infinite
// radii are left out.
type Series struct {
	Offset      plotter.XYs
	LeftRadius  plotter.XYs
	RightRadius plotter.XYs
}

// Collect extracts the series from stored frames.
func Collect(frames []store.Frame) Series {
	var s Series
	for _, f := range frames {
		if f.Failed() {
			continue
		}
		x := float64(f.Index)
		s.Offset = append(s.Offset, plotter.XY{X: x, Y: f.Offset})
		if !math.IsInf(f.LeftRadius, 0) {
			s.LeftRadius = append(s.LeftRadius, plotter.XY{X: x, Y: f.LeftRadius})
		}
		if !math.IsInf(f.RightRadius, 0) {
			s.RightRadius = append(s.RightRadius, plotter.XY{X: x, Y: f.RightRadius})
		}
	}
	return s
}

// Write renders the offset and radius charts into dir and returns their paths.
func Write(frames []store.Frame, dir, title string) ([]string, error) {
	s := Collect(frames)

	pOffset := newPlot(fmt.Sprintf("%s - Lateral Offset", title), "Offset (m)")
	if err := addLine(pOffset, "offset", s.Offset, offsetColor); err != nil {
		return nil, err
	}

	pRadius := newPlot(fmt.Sprintf("%s - Curvature Radius", title), "Radius (m)")
	if err := addLine(pRadius, "left", s.LeftRadius, leftColor); err != nil {
		return nil, err
	}
	if err := addLine(pRadius, "right", s.RightRadius, rightColor); err != nil {
		return nil, err
	}

	if len(s.Offset) == 0 {
		// Nothing was detected; give the charts a unit range to render.
		for _, p := range []*plot.Plot{pOffset, pRadius} {
			p.X.Min, p.X.Max = 0, 1
			p.Y.Min, p.Y.Max = 0, 1
		}
	} else if len(s.LeftRadius)+len(s.RightRadius) == 0 {
		pRadius.X.Min, pRadius.X.Max = pOffset.X.Min, pOffset.X.Max
		pRadius.Y.Min, pRadius.Y.Max = 0, 1
	}

	var paths []string
	for _, out := range []struct {
		p    *plot.Plot
		name string
	}{
		{pOffset, OffsetFile},
		{pRadius, RadiusFile},
	} {
		path := filepath.Join(dir, out.name)
		if err := out.p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func newPlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func addLine(p *plot.Plot, label string, pts plotter.XYs, c color.Color) error {
	if len(pts) == 0 {
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("%s line: %w", label, err)
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}
