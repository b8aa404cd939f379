// Frame-to-frame lane tracking state
package tracker

import (
	"errors"

	"github.com/sirupsen/logrus"

	"advanced-lane-finding/internal/lane"
	"advanced-lane-finding/internal/mask"
	"advanced-lane-finding/internal/polyfit"
	"advanced-lane-finding/internal/search"
)

// State is the lifecycle state of one lane line.
type State string

const (
	NotFound State = "not_found" // no trusted fit, re-detect with sliding windows
	Found    State = "found"     // last frame produced a fit for this line
)

// StrategyFallback marks a frame where prior-guided search failed and both
// lines were re-detected with sliding windows.
const StrategyFallback search.Strategy = "sliding_window_fallback"

// LaneState is one line's state. Fit is set exactly when State is Found.
type LaneState struct {
	State State
	Fit   *lane.Fit
}

func notFound() LaneState {
	return LaneState{State: NotFound}
}

func found(fit lane.Fit) LaneState {
	return LaneState{State: Found, Fit: &fit}
}

// Detection is the outcome of locating and fitting both lines in one frame.
// It does not change the tracker until passed to Commit.
type Detection struct {
	Strategy search.Strategy
	Search   search.Result
	Left     lane.Fit
	Right    lane.Fit
	LeftErr  error
	RightErr error
}

// Err joins the per-lane failures, or returns nil when both lines fit.
func (d Detection) Err() error {
	return errors.Join(d.LeftErr, d.RightErr)
}

// Fit returns the pixel fit of one side.
func (d Detection) Fit(side lane.Side) lane.Fit {
	if side == lane.Right {
		return d.Right
	}
	return d.Left
}

// Tracker owns the state of both lines for one session. It is not safe for
// concurrent use; frames must be fed in video order.
type Tracker struct {
	params search.Params
	left   LaneState
	right  LaneState
	logger logrus.FieldLogger
}

// New creates a tracker with both lines NotFound.
func New(params search.Params, logger logrus.FieldLogger) *Tracker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Tracker{
		params: params,
		left:   notFound(),
		right:  notFound(),
		logger: logger,
	}
}

// Lane returns a copy of one line's state.
func (t *Tracker) Lane(side lane.Side) LaneState {
	s := t.left
	if side == lane.Right {
		s = t.right
	}
	if s.Fit != nil {
		fit := *s.Fit
		s.Fit = &fit
	}
	return s
}

// UsesPrior reports whether the next frame will use prior-guided search,
// which requires both lines to be Found.
func (t *Tracker) UsesPrior() bool {
	return t.left.State == Found && t.right.State == Found
}

// Searcher returns the strategy the tracker selects for the next frame.
func (t *Tracker) Searcher() search.Searcher {
	if t.UsesPrior() {
		return search.NewPriorGuided(t.params, *t.left.Fit, *t.right.Fit)
	}
	return search.NewSlidingWindow(t.params)
}

// Detect runs the selected search on a top-down mask and fits both lines.
// When prior-guided search cannot fit either line, both lines are
// re-detected with sliding windows in the same frame so no stale fit is mixed
// into the result.
func (t *Tracker) Detect(m *mask.Mask) Detection {
	searcher := t.Searcher()
	d := fitBoth(searcher.Strategy(), searcher.Search(m))
	if d.Err() == nil || searcher.Strategy() != search.StrategyPriorGuided {
		return d
	}

	t.logger.WithError(d.Err()).Warn("TRACKER: prior-guided fit failed, falling back to sliding windows")
	d = fitBoth(StrategyFallback, search.NewSlidingWindow(t.params).Search(m))
	return d
}

// Commit applies a frame's outcome: each line that fitted becomes Found with
// its new fit, each line that did not becomes NotFound.
func (t *Tracker) Commit(d Detection) {
	t.left = outcome(d.Left, d.LeftErr)
	t.right = outcome(d.Right, d.RightErr)

	t.logger.WithFields(logrus.Fields{
		"strategy": d.Strategy,
		"left":     t.left.State,
		"right":    t.right.State,
	}).Debug("TRACKER: state updated")
}

func outcome(fit lane.Fit, err error) LaneState {
	if err != nil {
		return notFound()
	}
	return found(fit)
}

func fitBoth(strategy search.Strategy, res search.Result) Detection {
	res.Strategy = strategy
	d := Detection{Strategy: strategy, Search: res}
	d.Left, d.LeftErr = polyfit.FitPixels(lane.Left, res.Left)
	d.Right, d.RightErr = polyfit.FitPixels(lane.Right, res.Right)
	return d
}
