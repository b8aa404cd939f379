package metrics

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advanced-lane-finding/internal/lane"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestCurvatureRadiusStraightIsInfinite(t *testing.T) {
	r, err := CurvatureRadius(lane.Fit{A: 0, B: 0.3, C: 2}, 29.96)
	assert.True(t, errors.Is(err, lane.ErrDegenerateCurvature))
	assert.True(t, math.IsInf(r, 1))
	assert.False(t, math.IsNaN(r))
}

func TestCurvatureRadiusCircle(t *testing.T) {
	// At the vertex of x = a*y^2 the radius is 1/(2|a|).
	r, err := CurvatureRadius(lane.Fit{A: 0.001}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 500.0, r, 1e-9)

	r, err = CurvatureRadius(lane.Fit{A: -0.001}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 500.0, r, 1e-9)
}

func TestCurvatureRadiusMatchesFormula(t *testing.T) {
	fit := lane.Fit{A: 3e-4, B: 0.02, C: 1.5}
	y := 29.958
	want := math.Pow(1+math.Pow(2*fit.A*y+fit.B, 2), 1.5) / math.Abs(2*fit.A)

	got, err := CurvatureRadius(fit, y)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)
}

func TestLateralOffset(t *testing.T) {
	scale := lane.DefaultScale()

	tests := []struct {
		name        string
		left, right lane.Fit
		want        float64
	}{
		{"symmetric about 640", lane.Fit{C: 290}, lane.Fit{C: 990}, 0},
		{"center right of camera", lane.Fit{C: 350}, lane.Fit{C: 950}, -0.05},
		{"center left of camera", lane.Fit{C: 290}, lane.Fit{C: 970}, 0.05},
		{"evaluated at bottom row", lane.Fit{A: 1e-4, C: 200}, lane.Fit{A: 1e-4, C: 900}, 0.2},
		// Intercepts are taken at y = 720, not the last pixel row 719 (-1.20).
		{"evaluated at frame height", lane.Fit{A: 1e-3}, lane.Fit{A: 1e-3, C: 700}, -1.21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LateralOffset(tt.left, tt.right, 1280, 720, scale)
			assert.Equal(t, tt.want, got)
			assert.False(t, math.Signbit(got) && got == 0, "negative zero")
		})
	}
}

func TestAnalyzeStraightLanes(t *testing.T) {
	a := NewAnalyzer(lane.DefaultScale(), quietLogger())

	m := a.Analyze(Input{
		LeftPixel:   lane.Fit{C: 349.5},
		RightPixel:  lane.Fit{C: 949.5},
		LeftMetric:  lane.Fit{C: 1.85},
		RightMetric: lane.Fit{C: 5.02},
		Width:       1280,
		Height:      720,
	})

	assert.True(t, math.IsInf(m.LeftCurvatureRadiusMeters, 1))
	assert.True(t, math.IsInf(m.RightCurvatureRadiusMeters, 1))
	assert.True(t, m.Straight())
	assert.Equal(t, -0.05, m.LateralOffsetMeters)
}

func TestAnalyzeCurvedLane(t *testing.T) {
	scale := lane.DefaultScale()
	a := NewAnalyzer(scale, quietLogger())
	metric := lane.Fit{A: 1e-3, B: 0, C: 2}

	m := a.Analyze(Input{LeftMetric: metric, RightMetric: metric, Width: 1280, Height: 720})

	want, _ := CurvatureRadius(metric, 719*scale.MetersPerPixelY)
	assert.InDelta(t, want, m.LeftCurvatureRadiusMeters, 1e-9)
	assert.False(t, m.Straight())
}

func TestFormatRadius(t *testing.T) {
	assert.Equal(t, "inf", FormatRadius(math.Inf(1)))
	assert.Equal(t, "1234.57", FormatRadius(1234.567))
}
