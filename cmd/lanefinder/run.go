package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"advanced-lane-finding/internal/config"
	"advanced-lane-finding/internal/core"
	frameio "advanced-lane-finding/internal/io"
	"advanced-lane-finding/internal/metrics"
	"advanced-lane-finding/internal/perspective"
	"advanced-lane-finding/internal/report"
	"advanced-lane-finding/internal/store"
	"advanced-lane-finding/internal/threshold"
)

type runOptions struct {
	configPath      string
	calibrationPath string
	dbPath          string
	reportDir       string
	warpedDir       string
}

func runCmd(a *app) *cobra.Command {
	var opts runOptions

	c := &cobra.Command{
		Use:   "run [frames or directories...]",
		Short: "Process an ordered frame sequence as one session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runFrames(cmd.Context(), cmd.OutOrStdout(), opts, args, a.logger)
			return err
		},
	}

	c.Flags().StringVar(&opts.configPath, "config", "", "tuning YAML file (defaults apply when empty)")
	c.Flags().StringVar(&opts.calibrationPath, "calibration", "", "camera calibration YAML; frames are undistorted when set")
	c.Flags().StringVar(&opts.dbPath, "db", "", "SQLite file to record the run into")
	c.Flags().StringVar(&opts.reportDir, "report-dir", "", "directory for offset and radius charts")
	c.Flags().StringVar(&opts.warpedDir, "warped-dir", "", "directory to dump each frame's top-down view into")
	return c
}

// runFrames feeds every frame through one session and returns its counters.
// Frames that yield no lane are reported and recorded, not fatal.
func runFrames(ctx context.Context, out io.Writer, opts runOptions, sources []string, logger *logrus.Logger) (core.Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	tuning := config.Default()
	if opts.configPath != "" {
		t, err := config.Load(opts.configPath)
		if err != nil {
			return core.Stats{}, err
		}
		tuning = t
	}

	loader := frameio.NewFrameLoader(logger)
	paths, err := loader.ListFrames(sources...)
	if err != nil {
		return core.Stats{}, err
	}
	if len(paths) == 0 {
		return core.Stats{}, fmt.Errorf("no frames found in %v", sources)
	}

	var undistorter *frameio.Undistorter
	if opts.calibrationPath != "" {
		cal, err := frameio.LoadCalibration(opts.calibrationPath)
		if err != nil {
			return core.Stats{}, err
		}
		undistorter, err = frameio.NewUndistorter(cal)
		if err != nil {
			return core.Stats{}, err
		}
		defer undistorter.Close()
	}

	pipeline, err := buildPipeline(tuning, loader, paths[0], logger)
	if err != nil {
		return core.Stats{}, err
	}

	if opts.warpedDir != "" {
		if err := os.MkdirAll(opts.warpedDir, 0o755); err != nil {
			return core.Stats{}, fmt.Errorf("failed to create warped dir: %w", err)
		}
	}

	var recorder *store.Store
	if opts.dbPath != "" {
		recorder, err = store.Open(opts.dbPath, logger)
		if err != nil {
			return core.Stats{}, err
		}
		defer recorder.Close()
	}

	session := core.NewSession(tuning.SearchParams(), logger)
	if recorder != nil {
		if err := recorder.CreateSession(ctx, session.ID, fmt.Sprint(sources), session.StartedAt); err != nil {
			return core.Stats{}, err
		}
	}

	var frames []store.Frame
	failed := func(index int, path string, err error) error {
		fmt.Fprintf(out, "frame %4d  %s  no lane: %v\n", index, path, err)
		frames = append(frames, store.Frame{SessionID: session.ID, Index: index, Source: path, Err: err.Error()})
		if recorder != nil {
			return recorder.RecordFailure(ctx, session.ID, index, path, "", err)
		}
		return nil
	}

	for _, path := range paths {
		input, err := loadInput(loader, undistorter, path)
		if err != nil {
			if rerr := failed(session.Skip(err), path, err); rerr != nil {
				return session.Stats(), rerr
			}
			continue
		}

		index := session.NextFrame()
		if opts.warpedDir != "" {
			dumpWarped(pipeline.Mapper(), loader, input, filepath.Join(opts.warpedDir, fmt.Sprintf("warped_%04d.png", index)), logger)
		}

		res, err := pipeline.Process(session, input)
		input.Close()
		if err != nil {
			if rerr := failed(index, path, err); rerr != nil {
				return session.Stats(), rerr
			}
			continue
		}

		fmt.Fprintf(out, "frame %4d  %s  %-24s left=%s m  right=%s m  offset=%.2f m\n",
			res.Frame, path, res.Strategy,
			metrics.FormatRadius(res.Metrics.LeftCurvatureRadiusMeters),
			metrics.FormatRadius(res.Metrics.RightCurvatureRadiusMeters),
			res.Metrics.LateralOffsetMeters)
		frames = append(frames, store.FrameFromResult(res, path))
		if recorder != nil {
			if err := recorder.RecordFrame(ctx, res, path); err != nil {
				return session.Stats(), err
			}
		}
	}

	session.Close()
	stats := session.Stats()
	if recorder != nil {
		if err := recorder.FinishSession(ctx, session.ID, stats, time.Now()); err != nil {
			return stats, err
		}
	}

	if opts.reportDir != "" {
		written, err := report.Write(frames, opts.reportDir, session.ID.String())
		if err != nil {
			return stats, err
		}
		logger.WithField("files", written).Info("Report written")
	}

	fmt.Fprintf(out, "session %s: %d processed, %d failed, %d fallbacks\n",
		session.ID, stats.Processed, stats.Failed, stats.Fallbacks)
	return stats, nil
}

// buildPipeline sizes the perspective mapper from the first frame.
func buildPipeline(tuning *config.Tuning, loader *frameio.FrameLoader, first string, logger *logrus.Logger) (*core.Pipeline, error) {
	frame, err := loader.LoadFrame(first)
	if err != nil {
		return nil, err
	}
	width, height := frame.Cols(), frame.Rows()
	frame.Close()

	opts, err := tuning.ThresholdOptions()
	if err != nil {
		return nil, err
	}
	engine, err := threshold.New(opts, logger)
	if err != nil {
		return nil, err
	}

	pcfg, err := tuning.PerspectiveConfig()
	if err != nil {
		return nil, err
	}
	mapper, err := perspective.New(width, height, pcfg, logger)
	if err != nil {
		return nil, err
	}

	return core.NewPipeline(engine, mapper, metrics.NewAnalyzer(tuning.Scale(), logger), logger), nil
}

// loadInput decodes path and undistorts it when a calibration is set. The
// caller owns the returned Mat.
func loadInput(loader *frameio.FrameLoader, u *frameio.Undistorter, path string) (gocv.Mat, error) {
	frame, err := loader.LoadFrame(path)
	if err != nil {
		return gocv.NewMat(), err
	}
	if u == nil {
		return frame, nil
	}
	defer frame.Close()

	undistorted, err := u.Undistort(frame)
	if err != nil {
		return gocv.NewMat(), err
	}
	return undistorted, nil
}

// dumpWarped writes the top-down view of frame. Failures are logged and do
// not affect lane finding.
func dumpWarped(m *perspective.Mapper, loader *frameio.FrameLoader, frame gocv.Mat, path string, logger logrus.FieldLogger) {
	warped, err := m.WarpFrame(frame)
	if err != nil {
		logger.WithError(err).WithField("filepath", path).Warn("Warped frame not written")
		return
	}
	defer warped.Close()

	if err := loader.SaveFrame(warped, path); err != nil {
		logger.WithError(err).WithField("filepath", path).Warn("Warped frame not written")
	}
}
