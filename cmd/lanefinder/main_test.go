package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"advanced-lane-finding/internal/report"
	"advanced-lane-finding/internal/store"
)

// roadFrame draws yellow lines along the edges of the default source
// trapezoid, which the warp maps to vertical lines at W/4 and 3W/4.
func roadFrame(t *testing.T, path string) {
	t.Helper()
	const w, h = 1280, 720
	frame := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	defer frame.Close()

	yellow := color.RGBA{R: 255, G: 255, B: 0, A: 0}
	gocv.Line(&frame, image.Pt(w/2-55, h/2+100), image.Pt(w/6-10, h), yellow, 12)
	gocv.Line(&frame, image.Pt(w/2+55, h/2+100), image.Pt(5*w/6+60, h), yellow, 12)
	require.True(t, gocv.IMWrite(path, frame))
}

func blankFrame(t *testing.T, path string) {
	t.Helper()
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 90, 90, 0), 720, 1280, gocv.MatTypeCV8UC3)
	defer frame.Close()
	require.True(t, gocv.IMWrite(path, frame))
}

func TestRunFramesFindsLane(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	roadFrame(t, filepath.Join(dir, "frame_000.png"))
	roadFrame(t, filepath.Join(dir, "frame_001.png"))

	var out bytes.Buffer
	stats, err := runFrames(context.Background(), &out, runOptions{}, []string{dir}, logger)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Processed)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.Fallbacks)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "sliding_window")
	assert.Contains(t, lines[1], "prior_guided")
	assert.Contains(t, lines[2], "2 processed, 0 failed")
}

func TestRunFramesRecordsFailures(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	blankFrame(t, filepath.Join(dir, "a.png"))
	roadFrame(t, filepath.Join(dir, "b.png"))

	dbPath := filepath.Join(t.TempDir(), "runs.db")
	reportDir := t.TempDir()

	var out bytes.Buffer
	stats, err := runFrames(context.Background(), &out, runOptions{dbPath: dbPath, reportDir: reportDir}, []string{dir}, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.Contains(t, out.String(), "no lane")

	// The session id is printed on the summary line.
	summary := out.String()[strings.LastIndex(out.String(), "session ")+len("session "):]
	id, err := uuid.Parse(summary[:36])
	require.NoError(t, err)

	s, err := store.Open(dbPath, logger)
	require.NoError(t, err)
	defer s.Close()

	frames, err := s.FramesForSession(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.True(t, frames[0].Failed())
	assert.False(t, frames[1].Failed())

	sess, err := s.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, stats, sess.Stats)

	for _, name := range []string{report.OffsetFile, report.RadiusFile} {
		_, err := os.Stat(filepath.Join(reportDir, name))
		assert.NoError(t, err)
	}
}

func TestRunFramesUnreadableFrame(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	roadFrame(t, filepath.Join(dir, "a.png"))
	roadFrame(t, filepath.Join(dir, "c.png"))

	good, err := os.ReadFile(filepath.Join(dir, "a.png"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), good[:16], 0o644))

	dbPath := filepath.Join(t.TempDir(), "runs.db")
	var out bytes.Buffer
	stats, err := runFrames(context.Background(), &out, runOptions{dbPath: dbPath}, []string{dir}, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Failed)

	id, err := uuid.Parse(out.String()[strings.LastIndex(out.String(), "session ")+len("session "):][:36])
	require.NoError(t, err)

	s, err := store.Open(dbPath, logger)
	require.NoError(t, err)
	defer s.Close()

	frames, err := s.FramesForSession(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, i, f.Index)
	}
	assert.False(t, frames[0].Failed())
	assert.True(t, frames[1].Failed())
	assert.Equal(t, filepath.Join(dir, "b.png"), frames[1].Source)
	assert.False(t, frames[2].Failed())
	assert.Equal(t, "prior_guided", frames[2].Strategy)

	sess, err := s.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, stats, sess.Stats)
}

func TestRunFramesDumpsWarpedFrames(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	roadFrame(t, filepath.Join(dir, "a.png"))
	roadFrame(t, filepath.Join(dir, "b.png"))

	warpedDir := filepath.Join(t.TempDir(), "warped")
	_, err := runFrames(context.Background(), &bytes.Buffer{}, runOptions{warpedDir: warpedDir}, []string{dir}, logger)
	require.NoError(t, err)

	for _, name := range []string{"warped_0000.png", "warped_0001.png"} {
		warped := gocv.IMRead(filepath.Join(warpedDir, name), gocv.IMReadColor)
		require.False(t, warped.Empty(), name)
		assert.Equal(t, 1280, warped.Cols())
		assert.Equal(t, 720, warped.Rows())
		warped.Close()
	}
}

func TestRunFramesNoFrames(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := runFrames(context.Background(), &bytes.Buffer{}, runOptions{}, []string{t.TempDir()}, logger)
	assert.Error(t, err)
}

func TestRunFramesBadConfig(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	blankFrame(t, filepath.Join(dir, "a.png"))

	cfg := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("search:\n  windows: 0\n"), 0o644))

	_, err := runFrames(context.Background(), &bytes.Buffer{}, runOptions{configPath: cfg}, []string{dir}, logger)
	assert.Error(t, err)
}

func TestRootCommandRun(t *testing.T) {
	dir := t.TempDir()
	roadFrame(t, filepath.Join(dir, "f.png"))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "1 processed")
}

func TestReportCommandRequiresSession(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"report", "--db", filepath.Join(t.TempDir(), "x.db")})
	assert.Error(t, cmd.Execute())
}
