// SQLite recorder for lane-finding runs
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"advanced-lane-finding/internal/core"
	"advanced-lane-finding/internal/lane"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store records sessions and per-frame outcomes.
type Store struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

// Open opens (or creates) the database at path and applies pending
// migrations. Use "file::memory:" for a throwaway database.
func Open(path string, logger logrus.FieldLogger) (*Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps in-memory databases shared and serialises writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}

	logger.WithField("path", path).Debug("STORE: database ready")
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// m is not closed: that would close the shared connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// CreateSession registers a new session.
func (s *Store) CreateSession(ctx context.Context, id uuid.UUID, source string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, source, started_at) VALUES (?, ?, ?)`,
		id.String(), source, startedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create session %s: %w", id, err)
	}
	return nil
}

// FinishSession stores the final counters of a session.
func (s *Store) FinishSession(ctx context.Context, id uuid.UUID, stats core.Stats, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET finished_at = ?, processed = ?, failed = ?, fallbacks = ? WHERE session_id = ?`,
		finishedAt.UTC(), stats.Processed, stats.Failed, stats.Fallbacks, id.String())
	if err != nil {
		return fmt.Errorf("failed to finish session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// Session is a stored session row.
type Session struct {
	ID         uuid.UUID
	Source     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Stats      core.Stats
}

// GetSession loads one session.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	var (
		out      Session
		rawID    string
		finished sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, source, started_at, finished_at, processed, failed, fallbacks
		   FROM sessions WHERE session_id = ?`, id.String()).
		Scan(&rawID, &out.Source, &out.StartedAt, &finished, &out.Stats.Processed, &out.Stats.Failed, &out.Stats.Fallbacks)
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	out.ID, err = uuid.Parse(rawID)
	if err != nil {
		return Session{}, fmt.Errorf("corrupt session id %q: %w", rawID, err)
	}
	if finished.Valid {
		t := finished.Time
		out.FinishedAt = &t
	}
	return out, nil
}

// Frame is a stored per-frame outcome. Failed frames carry Err and no fits.
type Frame struct {
	SessionID   uuid.UUID
	Index       int
	Source      string
	Strategy    string
	Left        lane.Fit
	Right       lane.Fit
	LeftRadius  float64 // +Inf for a straight line
	RightRadius float64
	Offset      float64
	Err         string
}

// Failed reports whether the frame produced no lane.
func (f Frame) Failed() bool {
	return f.Err != ""
}

// FrameFromResult converts a pipeline result into its stored form.
func FrameFromResult(r *core.Result, source string) Frame {
	return Frame{
		SessionID:   r.SessionID,
		Index:       r.Frame,
		Source:      source,
		Strategy:    string(r.Strategy),
		Left:        r.Left,
		Right:       r.Right,
		LeftRadius:  r.Metrics.LeftCurvatureRadiusMeters,
		RightRadius: r.Metrics.RightCurvatureRadiusMeters,
		Offset:      r.Metrics.LateralOffsetMeters,
	}
}

// RecordFrame stores a successful frame.
func (s *Store) RecordFrame(ctx context.Context, r *core.Result, source string) error {
	f := FrameFromResult(r, source)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO frames (session_id, frame_index, source, strategy,
		                     left_a, left_b, left_c, right_a, right_b, right_c,
		                     left_radius, right_radius, offset_m)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.SessionID.String(), f.Index, f.Source, f.Strategy,
		f.Left.A, f.Left.B, f.Left.C, f.Right.A, f.Right.B, f.Right.C,
		finite(f.LeftRadius), finite(f.RightRadius), f.Offset)
	if err != nil {
		return fmt.Errorf("failed to record frame %d: %w", r.Frame, err)
	}
	return nil
}

// RecordFailure stores a frame that produced no lane.
func (s *Store) RecordFailure(ctx context.Context, sessionID uuid.UUID, frame int, source, strategy string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO frames (session_id, frame_index, source, strategy, error) VALUES (?, ?, ?, ?, ?)`,
		sessionID.String(), frame, source, strategy, msg)
	if err != nil {
		return fmt.Errorf("failed to record failed frame %d: %w", frame, err)
	}
	return nil
}

// FramesForSession returns a session's frames in index order.
func (s *Store) FramesForSession(ctx context.Context, sessionID uuid.UUID) ([]Frame, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT frame_index, source, strategy,
		        left_a, left_b, left_c, right_a, right_b, right_c,
		        left_radius, right_radius, offset_m, error
		   FROM frames WHERE session_id = ? ORDER BY frame_index`, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var (
			f                            Frame
			la, lb, lc, ra, rb, rc       sql.NullFloat64
			leftRadius, rightRadius, off sql.NullFloat64
			errText                      sql.NullString
		)
		if err := rows.Scan(&f.Index, &f.Source, &f.Strategy,
			&la, &lb, &lc, &ra, &rb, &rc,
			&leftRadius, &rightRadius, &off, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}

		f.SessionID = sessionID
		f.Left = lane.Fit{A: la.Float64, B: lb.Float64, C: lc.Float64}
		f.Right = lane.Fit{A: ra.Float64, B: rb.Float64, C: rc.Float64}
		f.Offset = off.Float64
		f.Err = errText.String
		if !f.Failed() {
			f.LeftRadius = radius(leftRadius)
			f.RightRadius = radius(rightRadius)
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read frames: %w", err)
	}
	return frames, nil
}

// finite maps an infinite radius to NULL.
func finite(v float64) sql.NullFloat64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func radius(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.Inf(1)
	}
	return v.Float64
}
