// Bird's-eye perspective mapping
package perspective

import (
	"fmt"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"advanced-lane-finding/internal/cvmat"
	"advanced-lane-finding/internal/lane"
	"advanced-lane-finding/internal/mask"
)

// Anchor is a quad corner expressed relative to the frame size:
// x = XFrac*W + XOffset, y = YFrac*H + YOffset.
type Anchor struct {
	XFrac   float64
	XOffset float64
	YFrac   float64
	YOffset float64
}

// Resolve returns the anchor's position in a w by h frame.
func (a Anchor) Resolve(w, h int) lane.PointF {
	return lane.PointF{
		X: a.XFrac*float64(w) + a.XOffset,
		Y: a.YFrac*float64(h) + a.YOffset,
	}
}

// Quad is four corners in the order top-left, bottom-left, bottom-right,
// top-right.
type Quad [4]Anchor

// Resolve places every corner in a w by h frame.
func (q Quad) Resolve(w, h int) [4]lane.PointF {
	var pts [4]lane.PointF
	for i, a := range q {
		pts[i] = a.Resolve(w, h)
	}
	return pts
}

// Config pairs the source quad on the camera frame with its destination in
// the top-down view.
type Config struct {
	Source      Quad
	Destination Quad
}

// DefaultConfig returns the road trapezoid and rectangle used for a
// forward-facing camera.
func DefaultConfig() Config {
	return Config{
		Source: Quad{
			{XFrac: 0.5, XOffset: -55, YFrac: 0.5, YOffset: 100},
			{XFrac: 1.0 / 6, XOffset: -10, YFrac: 1},
			{XFrac: 5.0 / 6, XOffset: 60, YFrac: 1},
			{XFrac: 0.5, XOffset: 55, YFrac: 0.5, YOffset: 100},
		},
		Destination: Quad{
			{XFrac: 0.25},
			{XFrac: 0.25, YFrac: 1},
			{XFrac: 0.75, YFrac: 1},
			{XFrac: 0.75},
		},
	}
}

// Homography is a row-major 3x3 projective transform.
type Homography [9]float64

// Apply projects a point through the transform.
func (h Homography) Apply(p lane.PointF) lane.PointF {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	return lane.PointF{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

func (h Homography) mat() gocv.Mat {
	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for i, v := range h {
		m.SetDoubleAt(i/3, i%3, v)
	}
	return m
}

// Mapper warps frames of one fixed size to the top-down view. The transforms
// are computed once at construction; the mapper is read-only afterwards.
type Mapper struct {
	width   int
	height  int
	forward Homography
	inverse Homography
	logger  logrus.FieldLogger
}

// New computes the forward and inverse transforms for w by h frames.
func New(width, height int, cfg Config, logger logrus.FieldLogger) (*Mapper, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions: %dx%d", width, height)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	src := cfg.Source.Resolve(width, height)
	dst := cfg.Destination.Resolve(width, height)

	forward, err := transform(src, dst)
	if err != nil {
		return nil, fmt.Errorf("forward transform: %w", err)
	}
	inverse, err := transform(dst, src)
	if err != nil {
		return nil, fmt.Errorf("inverse transform: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"width":  width,
		"height": height,
		"source": src,
	}).Debug("PERSPECTIVE: transforms computed")

	return &Mapper{
		width:   width,
		height:  height,
		forward: forward,
		inverse: inverse,
		logger:  logger,
	}, nil
}

// Size returns the frame size the mapper was built for.
func (m *Mapper) Size() (width, height int) {
	return m.width, m.height
}

// Forward returns the camera-to-top-down transform.
func (m *Mapper) Forward() Homography {
	return m.forward
}

// Inverse returns the top-down-to-camera transform.
func (m *Mapper) Inverse() Homography {
	return m.inverse
}

// Warp resamples a binary mask into the top-down view with linear
// interpolation and returns the inverse transform alongside it. Masks of any
// other size are rejected rather than cropped or stretched.
func (m *Mapper) Warp(in *mask.Mask) (*mask.Mask, Homography, error) {
	if in == nil {
		return nil, Homography{}, lane.InvalidDimensions("perspective.warp", 0, 0, m.width, m.height)
	}
	if in.Width != m.width || in.Height != m.height {
		return nil, Homography{}, lane.InvalidDimensions("perspective.warp", in.Width, in.Height, m.width, m.height)
	}

	src, err := cvmat.FromMask(in)
	if err != nil {
		return nil, Homography{}, err
	}
	defer src.Close()

	warped := gocv.NewMat()
	defer warped.Close()
	if err := m.warpMat(src, &warped); err != nil {
		return nil, Homography{}, err
	}

	out, err := cvmat.ToMask(warped)
	if err != nil {
		return nil, Homography{}, fmt.Errorf("warped mask: %w", err)
	}
	return out, m.inverse, nil
}

// WarpFrame warps a colour frame into the top-down view. The caller owns the
// result.
func (m *Mapper) WarpFrame(frame gocv.Mat) (gocv.Mat, error) {
	if frame.Cols() != m.width || frame.Rows() != m.height {
		return gocv.NewMat(), lane.InvalidDimensions("perspective.warp_frame", frame.Cols(), frame.Rows(), m.width, m.height)
	}
	out := gocv.NewMat()
	if err := m.warpMat(frame, &out); err != nil {
		out.Close()
		return gocv.NewMat(), err
	}
	return out, nil
}

func (m *Mapper) warpMat(src gocv.Mat, dst *gocv.Mat) error {
	h := m.forward.mat()
	defer h.Close()

	gocv.WarpPerspectiveWithParams(src, dst, h, image.Pt(m.width, m.height),
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{})
	if dst.Empty() {
		return fmt.Errorf("perspective warp produced an empty image")
	}
	return nil
}

func transform(from, to [4]lane.PointF) (Homography, error) {
	src := gocv.NewPoint2fVectorFromPoints(toPoint2f(from))
	defer src.Close()
	dst := gocv.NewPoint2fVectorFromPoints(toPoint2f(to))
	defer dst.Close()

	m := gocv.GetPerspectiveTransform2f(src, dst)
	defer m.Close()
	if m.Empty() || m.Rows() != 3 || m.Cols() != 3 {
		return Homography{}, fmt.Errorf("degenerate quadrilateral")
	}

	var h Homography
	for i := range h {
		h[i] = m.GetDoubleAt(i/3, i%3)
	}
	return h, nil
}

func toPoint2f(pts [4]lane.PointF) []gocv.Point2f {
	out := make([]gocv.Point2f, len(pts))
	for i, p := range pts {
		out[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	return out
}
