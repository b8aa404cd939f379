package lane

import (
	"errors"
	"fmt"
)

// Sentinel errors for the per-frame failure kinds.
var (
	ErrFitUnavailable         = errors.New("fit unavailable")
	ErrInvalidFrameDimensions = errors.New("invalid frame dimensions")
	ErrDegenerateCurvature    = errors.New("degenerate curvature")
)

// ErrorKind is a coarse classification of frame failures.
type ErrorKind string

const (
	KindFitUnavailable         ErrorKind = "fit_unavailable"
	KindInvalidFrameDimensions ErrorKind = "invalid_frame_dimensions"
	KindDegenerateCurvature    ErrorKind = "degenerate_curvature"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindFitUnavailable:
		return ErrFitUnavailable
	case KindInvalidFrameDimensions:
		return ErrInvalidFrameDimensions
	case KindDegenerateCurvature:
		return ErrDegenerateCurvature
	}
	return nil
}

// FrameError wraps a failure with the operation and, when relevant, the lane.
type FrameError struct {
	Op   string
	Kind ErrorKind
	Side Side // empty when the failure is not lane specific
	Err  error
}

func (e *FrameError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Side != "" {
		base += fmt.Sprintf(" (lane=%s)", e.Side)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *FrameError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel of the error's kind, so errors.Is works even when
// Err carries a more specific cause.
func (e *FrameError) Is(target error) bool {
	if e == nil {
		return false
	}
	s := e.Kind.sentinel()
	return s != nil && s == target
}

// IsKind helps callers classify errors without string matching.
func IsKind(err error, kind ErrorKind) bool {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	if s := kind.sentinel(); s != nil {
		return errors.Is(err, s)
	}
	return false
}

// FitUnavailable builds a lane specific fit failure.
func FitUnavailable(op string, side Side, cause error) *FrameError {
	return &FrameError{Op: op, Kind: KindFitUnavailable, Side: side, Err: cause}
}

// InvalidDimensions builds a frame size mismatch failure.
func InvalidDimensions(op string, gotW, gotH, wantW, wantH int) *FrameError {
	return &FrameError{
		Op:   op,
		Kind: KindInvalidFrameDimensions,
		Err:  fmt.Errorf("got %dx%d, want %dx%d", gotW, gotH, wantW, wantH),
	}
}
