package lane

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameErrorMatchesSentinel(t *testing.T) {
	err := FitUnavailable("polyfit.fit", Right, errors.New("2 distinct rows"))

	assert.True(t, errors.Is(err, ErrFitUnavailable))
	assert.False(t, errors.Is(err, ErrInvalidFrameDimensions))
	assert.Equal(t, "polyfit.fit: fit_unavailable (lane=right): 2 distinct rows", err.Error())
}

func TestIsKindThroughWrapping(t *testing.T) {
	inner := InvalidDimensions("perspective.warp", 640, 480, 1280, 720)
	wrapped := fmt.Errorf("frame 7: %w", inner)

	assert.True(t, IsKind(wrapped, KindInvalidFrameDimensions))
	assert.False(t, IsKind(wrapped, KindFitUnavailable))
	assert.True(t, IsKind(fmt.Errorf("x: %w", ErrFitUnavailable), KindFitUnavailable))
	assert.False(t, IsKind(nil, KindFitUnavailable))
}

func TestNilFrameError(t *testing.T) {
	var fe *FrameError
	assert.Equal(t, "<nil>", fe.Error())
	assert.Nil(t, fe.Unwrap())
}

func TestFitHelpers(t *testing.T) {
	f := Fit{A: 0.001, B: -0.2, C: 300}

	assert.InDelta(t, 300.0, f.At(0), 1e-12)
	assert.InDelta(t, 0.001*100*100-0.2*100+300, f.At(100), 1e-12)
	assert.InDelta(t, 2*0.001*100-0.2, f.Slope(100), 1e-12)
	assert.False(t, IsStraight(f))
	assert.True(t, IsStraight(Fit{B: 1, C: 2}))
}

func TestPixelSetXY(t *testing.T) {
	var ps PixelSet
	xs, ys := ps.XY()
	assert.Empty(t, xs)
	assert.Empty(t, ys)
}
