// Per-frame lane finding
package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"advanced-lane-finding/internal/lane"
	"advanced-lane-finding/internal/mask"
	"advanced-lane-finding/internal/metrics"
	"advanced-lane-finding/internal/perspective"
	"advanced-lane-finding/internal/polyfit"
	"advanced-lane-finding/internal/search"
	"advanced-lane-finding/internal/threshold"
)

// slowFrame is the per-frame duration above which Process warns.
const slowFrame = 5 * time.Second

// Pipeline runs threshold, warp, search, fit and analysis for one frame at a
// time. It holds no lane state, so one pipeline can serve many sessions.
type Pipeline struct {
	engine   *threshold.Engine
	mapper   *perspective.Mapper
	analyzer *metrics.Analyzer
	logger   logrus.FieldLogger
}

// NewPipeline wires the per-frame stages.
func NewPipeline(engine *threshold.Engine, mapper *perspective.Mapper, analyzer *metrics.Analyzer, logger logrus.FieldLogger) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{
		engine:   engine,
		mapper:   mapper,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Size returns the frame size the pipeline accepts.
func (p *Pipeline) Size() (width, height int) {
	return p.mapper.Size()
}

// Mapper returns the perspective mapper frames are warped with.
func (p *Pipeline) Mapper() *perspective.Mapper {
	return p.mapper
}

// Process finds the lane in an undistorted colour frame and advances the
// session. Frames of the wrong size fail without touching lane state.
func (p *Pipeline) Process(s *Session, frame gocv.Mat) (*Result, error) {
	start := time.Now()
	defer func() {
		if elapsed := time.Since(start); elapsed > slowFrame {
			s.logger.WithField("duration", elapsed).Warn("PIPELINE: slow frame")
		}
	}()

	w, h := p.mapper.Size()
	if err := validateFrame(frame, w, h); err != nil {
		return nil, p.fail(s, "", err)
	}

	binary, err := p.engine.Apply(frame)
	if err != nil {
		return nil, p.fail(s, "", fmt.Errorf("threshold: %w", err))
	}

	warped, inverse, err := p.mapper.Warp(binary)
	if err != nil {
		return nil, p.fail(s, "", err)
	}

	return p.ProcessWarped(s, warped, inverse)
}

// ProcessWarped runs the stages after the perspective warp on a top-down
// binary mask.
func (p *Pipeline) ProcessWarped(s *Session, warped *mask.Mask, inverse perspective.Homography) (*Result, error) {
	w, h := p.mapper.Size()
	if warped == nil {
		return nil, p.fail(s, "", lane.InvalidDimensions("pipeline.warped", 0, 0, w, h))
	}
	if warped.Width != w || warped.Height != h {
		return nil, p.fail(s, "", lane.InvalidDimensions("pipeline.warped", warped.Width, warped.Height, w, h))
	}

	frame := s.NextFrame()
	d := s.tracker.Detect(warped)
	if err := d.Err(); err != nil {
		s.tracker.Commit(d)
		return nil, p.fail(s, d.Strategy, err)
	}

	scale := p.analyzer.Scale()
	leftMetric, leftErr := polyfit.FitMetric(lane.Left, d.Left, h, scale)
	rightMetric, rightErr := polyfit.FitMetric(lane.Right, d.Right, h, scale)
	s.tracker.Commit(d)
	if leftErr != nil || rightErr != nil {
		return nil, p.fail(s, d.Strategy, fmt.Errorf("metric fit: %w", errors.Join(leftErr, rightErr)))
	}

	m := p.analyzer.Analyze(metrics.Input{
		LeftPixel:   d.Left,
		RightPixel:  d.Right,
		LeftMetric:  leftMetric,
		RightMetric: rightMetric,
		Width:       w,
		Height:      h,
	})
	s.countFrame(d.Strategy, false)

	s.logger.WithFields(logrus.Fields{
		"frame":        frame,
		"strategy":     d.Strategy,
		"left_radius":  metrics.FormatRadius(m.LeftCurvatureRadiusMeters),
		"right_radius": metrics.FormatRadius(m.RightCurvatureRadiusMeters),
		"offset":       m.LateralOffsetMeters,
	}).Debug("PIPELINE: frame processed")

	return &Result{
		SessionID:   s.ID,
		Frame:       frame,
		Strategy:    d.Strategy,
		Search:      d.Search,
		Left:        d.Left,
		Right:       d.Right,
		LeftMetric:  leftMetric,
		RightMetric: rightMetric,
		Metrics:     m,
		Inverse:     inverse,
		Width:       w,
		Height:      h,
	}, nil
}

func (p *Pipeline) fail(s *Session, strategy search.Strategy, err error) error {
	s.logger.WithFields(logrus.Fields{
		"frame":    s.NextFrame(),
		"strategy": strategy,
	}).WithError(err).Warn("PIPELINE: frame failed")

	s.countFrame(strategy, true)
	return err
}
