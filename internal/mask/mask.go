// Binary single-channel frames
package mask

import (
	"fmt"
	"image"
)

// Mask is a row-major binary image. Every value is 0 or 1.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates an all-zero mask.
func New(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// FromBytes builds a mask from raw 8-bit data, mapping every nonzero byte to 1.
// The input is copied.
func FromBytes(width, height int, data []uint8) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid mask dimensions: %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("mask data length %d does not match %dx%d", len(data), width, height)
	}

	m := New(width, height)
	for i, v := range data {
		if v != 0 {
			m.Pix[i] = 1
		}
	}
	return m, nil
}

// Bounds returns the image rectangle of the mask.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// At returns the value at (x, y), or 0 outside the mask.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Set writes v (normalised to 0/1) at (x, y). Out of range writes are ignored.
func (m *Mask) Set(x, y int, v uint8) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return
	}
	if v != 0 {
		v = 1
	}
	m.Pix[y*m.Width+x] = v
}

// FillRect sets every pixel of r (clipped to the mask) to 1.
func (m *Mask) FillRect(r image.Rectangle) {
	r = r.Intersect(m.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = 1
		}
	}
}

// Clone returns an independent copy.
func (m *Mask) Clone() *Mask {
	c := New(m.Width, m.Height)
	copy(c.Pix, m.Pix)
	return c
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		n += int(v)
	}
	return n
}

// NonZero returns every set pixel in row-major order (y ascending, then x).
func (m *Mask) NonZero() []image.Point {
	pts := make([]image.Point, 0, m.Count())
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if v != 0 {
				pts = append(pts, image.Pt(x, y))
			}
		}
	}
	return pts
}

// ColumnSums returns, for every column, the number of set pixels in rows
// [fromRow, Height).
func (m *Mask) ColumnSums(fromRow int) []int {
	if fromRow < 0 {
		fromRow = 0
	}
	sums := make([]int, m.Width)
	for y := fromRow; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			sums[x] += int(v)
		}
	}
	return sums
}

// And returns the pixelwise conjunction of masks of equal size.
func And(masks ...*Mask) (*Mask, error) {
	return combine(masks, func(a, b uint8) uint8 { return a & b })
}

// Or returns the pixelwise disjunction of masks of equal size.
func Or(masks ...*Mask) (*Mask, error) {
	return combine(masks, func(a, b uint8) uint8 { return a | b })
}

func combine(masks []*Mask, op func(a, b uint8) uint8) (*Mask, error) {
	if len(masks) == 0 {
		return nil, fmt.Errorf("no masks to combine")
	}
	first := masks[0]
	out := first.Clone()
	for _, m := range masks[1:] {
		if m.Width != first.Width || m.Height != first.Height {
			return nil, fmt.Errorf("mask size mismatch: %dx%d vs %dx%d", m.Width, m.Height, first.Width, first.Height)
		}
		for i, v := range m.Pix {
			out.Pix[i] = op(out.Pix[i], v)
		}
	}
	return out, nil
}
