package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"advanced-lane-finding/internal/search"
	"advanced-lane-finding/internal/tracker"
)

// Stats counts the frames a session has seen.
type Stats struct {
	Processed int
	Failed    int
	Fallbacks int
}

// Total returns the number of frames fed to the session.
func (s Stats) Total() int {
	return s.Processed + s.Failed
}

// Session owns the lane state of one video. Frames must be fed in order
// from a single goroutine; independent sessions share nothing.
type Session struct {
	ID        uuid.UUID
	StartedAt time.Time

	tracker *tracker.Tracker
	stats   Stats
	logger  logrus.FieldLogger
}

// NewSession starts a session with both lanes NotFound.
func NewSession(params search.Params, logger logrus.FieldLogger) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	id := uuid.New()
	logger = logger.WithField("session_id", id.String())

	s := &Session{
		ID:        id,
		StartedAt: time.Now(),
		tracker:   tracker.New(params, logger),
		logger:    logger,
	}
	logger.Info("SESSION: started")
	return s
}

// Tracker exposes the session's lane state.
func (s *Session) Tracker() *tracker.Tracker {
	return s.tracker
}

// Stats returns a snapshot of the frame counters.
func (s *Session) Stats() Stats {
	return s.stats
}

// NextFrame returns the index the next frame will get.
func (s *Session) NextFrame() int {
	return s.stats.Total()
}

// Close logs the final counters. The session must not be used afterwards.
func (s *Session) Close() {
	s.logger.WithFields(logrus.Fields{
		"processed": s.stats.Processed,
		"failed":    s.stats.Failed,
		"fallbacks": s.stats.Fallbacks,
		"duration":  time.Since(s.StartedAt).String(),
	}).Info("SESSION: finished")
}

// Skip counts a frame that failed before reaching the pipeline, such as one
// that could not be decoded, and returns the index it took. Lane state is
// left as it was.
func (s *Session) Skip(err error) int {
	frame := s.NextFrame()
	s.logger.WithField("frame", frame).WithError(err).Warn("SESSION: frame skipped")
	s.countFrame("", true)
	return frame
}

func (s *Session) countFrame(strategy search.Strategy, failed bool) {
	if failed {
		s.stats.Failed++
	} else {
		s.stats.Processed++
	}
	if strategy == tracker.StrategyFallback {
		s.stats.Fallbacks++
	}
}
