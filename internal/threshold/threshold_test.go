package threshold

import (
	"image"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"advanced-lane-finding/internal/mask"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func solidFrame(w, h int, b, g, r float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), h, w, gocv.MatTypeCV8UC3)
}

func filled(w, h int, v uint8) *mask.Mask {
	m := mask.New(w, h)
	for i := range m.Pix {
		m.Pix[i] = v
	}
	return m
}

func TestRangeContains(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		v    float64
		want bool
	}{
		{"inclusive lower", Inclusive(20, 100), 20, true},
		{"inclusive upper", Inclusive(20, 100), 100, true},
		{"below", Inclusive(20, 100), 19, false},
		{"exclusive lower", LowerExclusive(10, 35), 10, false},
		{"exclusive inside", LowerExclusive(10, 35), 11, true},
		{"exclusive upper", LowerExclusive(10, 35), 35, true},
		{"above", LowerExclusive(10, 35), 36, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Contains(tt.v))
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())

	assert.Equal(t, Inclusive(20, 100), opts.AbsX)
	assert.Equal(t, Inclusive(20, 100), opts.AbsY)
	assert.Equal(t, Inclusive(30, 100), opts.Magnitude)
	assert.Equal(t, Inclusive(0.7, 1.4), opts.Direction)
	assert.Equal(t, LowerExclusive(10, 35), opts.Hue)
	assert.Equal(t, LowerExclusive(120, 255), opts.Saturation)
	assert.Zero(t, opts.BlurKernel)
	assert.Zero(t, opts.CloseKernel)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *Options)
	}{
		{"reversed range", func(o *Options) { o.Magnitude = Inclusive(100, 30) }},
		{"negative range", func(o *Options) { o.Hue = LowerExclusive(-1, 35) }},
		{"even sobel kernel", func(o *Options) { o.SobelKernel = 4 }},
		{"unknown colour order", func(o *Options) { o.ColorOrder = "yuv" }},
		{"even blur kernel", func(o *Options) { o.BlurKernel = 4 }},
		{"huge close kernel", func(o *Options) { o.CloseKernel = 31 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			assert.Error(t, opts.Validate())
		})
	}
}

func TestCombineColourOnly(t *testing.T) {
	const w, h = 16, 8
	colour := mask.New(w, h)
	colour.FillRect(image.Rect(3, 2, 9, 6))

	got, err := Combine(Masks{
		AbsX:       mask.New(w, h),
		AbsY:       mask.New(w, h),
		Magnitude:  mask.New(w, h),
		Direction:  mask.New(w, h),
		Hue:        colour,
		Saturation: filled(w, h, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, colour.Pix, got.Pix)
}

func TestCombineNeedsEveryGradientCriterion(t *testing.T) {
	const w, h = 4, 4
	one, zero := filled(w, h, 1), mask.New(w, h)

	got, err := Combine(Masks{AbsX: one, AbsY: one, Magnitude: one, Direction: zero, Hue: one, Saturation: zero})
	require.NoError(t, err)
	assert.Zero(t, got.Count())

	got, err = Combine(Masks{AbsX: one, AbsY: one, Magnitude: one, Direction: one, Hue: zero, Saturation: zero})
	require.NoError(t, err)
	assert.Equal(t, w*h, got.Count())
}

func TestCombineRejectsSizeMismatch(t *testing.T) {
	m := mask.New(4, 4)
	_, err := Combine(Masks{AbsX: m, AbsY: m, Magnitude: m, Direction: mask.New(5, 4), Hue: m, Saturation: m})
	assert.Error(t, err)
}

func TestAbsSobelRescalesByMaximum(t *testing.T) {
	f := &Features{Width: 4, Height: 1, SobelX: []float64{-10, 0, 40, 100}, SobelY: make([]float64, 4)}

	got := AbsSobel{Axis: "x", Range: Inclusive(20, 100)}.Evaluate(f)

	// Scaled values are 25, 0, 102 and 255.
	assert.Equal(t, []uint8{1, 0, 0, 0}, got.Pix)
}

func TestMagnitudeRescale(t *testing.T) {
	f := &Features{Width: 4, Height: 1, SobelX: []float64{0, 30, 60, 0}, SobelY: []float64{0, 40, 80, 255}}

	got := Magnitude{Range: Inclusive(30, 100)}.Evaluate(f)

	// Magnitudes 0, 50, 100, 255 against a peak of 255.
	assert.Equal(t, []uint8{0, 1, 1, 0}, got.Pix)
}

func TestUniformGradientsNeverDivideByZero(t *testing.T) {
	f := &Features{Width: 3, Height: 1, SobelX: make([]float64, 3), SobelY: make([]float64, 3)}

	assert.Equal(t, []uint8{1, 1, 1}, AbsSobel{Axis: "y", Range: Inclusive(0, 10)}.Evaluate(f).Pix)
	assert.Equal(t, []uint8{1, 1, 1}, Magnitude{Range: Inclusive(0, 10)}.Evaluate(f).Pix)
	assert.Zero(t, Direction{Range: Inclusive(0.7, 1.4)}.Evaluate(f).Count())
}

func TestDirection(t *testing.T) {
	f := &Features{Width: 3, Height: 1, SobelX: []float64{10, 10, 0}, SobelY: []float64{0, -10, 10}}

	got := Direction{Range: Inclusive(0.7, 1.4)}.Evaluate(f)

	// Angles 0, pi/4 and pi/2.
	assert.Equal(t, []uint8{0, 1, 0}, got.Pix)
}

func TestChannelCriteria(t *testing.T) {
	f := &Features{Width: 3, Height: 1, Hue: []uint8{10, 30, 36}, Saturation: []uint8{120, 121, 255}}

	assert.Equal(t, []uint8{0, 1, 0}, HueChannel(LowerExclusive(10, 35)).Evaluate(f).Pix)
	assert.Equal(t, []uint8{0, 1, 1}, SaturationChannel(LowerExclusive(120, 255)).Evaluate(f).Pix)
}

func TestEngineUniformGrayFrameIsEmpty(t *testing.T) {
	e, err := New(DefaultOptions(), quietLogger())
	require.NoError(t, err)

	frame := solidFrame(64, 32, 128, 128, 128)
	defer frame.Close()

	got, err := e.Apply(frame)
	require.NoError(t, err)
	assert.Equal(t, 64, got.Width)
	assert.Equal(t, 32, got.Height)
	assert.Zero(t, got.Count())
}

func TestEngineYellowFrameIsColourConsistent(t *testing.T) {
	e, err := New(DefaultOptions(), quietLogger())
	require.NoError(t, err)

	// Pure yellow in BGR order: hue 30, saturation 255.
	frame := solidFrame(32, 16, 0, 255, 255)
	defer frame.Close()

	got, err := e.Apply(frame)
	require.NoError(t, err)
	assert.Equal(t, 32*16, got.Count())
}

func TestEvaluateLogsCriterionCounts(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	e, err := New(DefaultOptions(), logger)
	require.NoError(t, err)

	frame := solidFrame(32, 16, 0, 255, 255)
	defer frame.Close()

	_, err = e.Evaluate(frame)
	require.NoError(t, err)

	var entry *logrus.Entry
	for _, en := range hook.AllEntries() {
		if en.Message == "THRESHOLD: criteria evaluated" {
			entry = en
		}
	}
	require.NotNil(t, entry)
	assert.Equal(t, 32*16, entry.Data[NameHue])
	assert.Equal(t, 32*16, entry.Data[NameSaturation])
	for _, name := range []string{NameAbsX, NameAbsY, NameMagnitude, NameDirection} {
		assert.Equal(t, 0, entry.Data[name], name)
	}
}

func TestEngineColourOrder(t *testing.T) {
	opts := DefaultOptions()
	opts.ColorOrder = RGB
	e, err := New(opts, quietLogger())
	require.NoError(t, err)

	// The same bytes read as RGB are cyan, outside the hue range.
	frame := solidFrame(32, 16, 0, 255, 255)
	defer frame.Close()

	got, err := e.Apply(frame)
	require.NoError(t, err)
	assert.Zero(t, got.Count())
}

func TestEngineWithBlurKeepsUniformFrame(t *testing.T) {
	opts := DefaultOptions()
	opts.BlurKernel = 5
	e, err := New(opts, quietLogger())
	require.NoError(t, err)

	frame := solidFrame(32, 16, 0, 255, 255)
	defer frame.Close()

	got, err := e.Apply(frame)
	require.NoError(t, err)
	assert.Equal(t, 32*16, got.Count())
}

func TestEngineRejectsGrayFrame(t *testing.T) {
	e, err := New(DefaultOptions(), quietLogger())
	require.NoError(t, err)

	gray := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC1)
	defer gray.Close()

	_, err = e.Apply(gray)
	assert.Error(t, err)
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.SobelKernel = 2
	_, err := New(opts, quietLogger())
	assert.Error(t, err)
}

func TestCloseMaskFillsGap(t *testing.T) {
	m := mask.New(20, 20)
	m.FillRect(image.Rect(2, 5, 18, 10))
	for y := 5; y < 10; y++ {
		m.Set(10, y, 0)
	}

	got, err := closeMask(m, 3)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), got.At(10, 7))
	assert.Equal(t, uint8(0), got.At(10, 15))
}
