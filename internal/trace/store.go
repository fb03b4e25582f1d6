package trace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"brewin/internal/evaluator"
	"brewin/internal/object"

	_ "github.com/mattn/go-sqlite3"
)

const (
	EnterEvent = "enter"
	ExitEvent  = "exit"

	StatusRunning = "running"
	StatusOK      = "ok"
	StatusError   = "error"
)

var ErrNoRun = errors.New("no run in progress")

type Event struct {
	RunID      int64
	Seq        int
	Depth      int
	Kind       string
	Function   string
	Detail     string
	RecordedAt time.Time
}

type Run struct {
	ID           int64
	ScopeRule    string
	Status       string
	ErrorKind    string
	ErrorMessage string
}

// Store records program runs and their calls. It implements evaluator.Tracer;
// write failures are logged and remembered, never returned to the evaluator.
type Store struct {
	db      *sql.DB
	dialect dialect

	tx    *sql.Tx
	runID int64
	seq   int
	err   error
}

var _ evaluator.Tracer = (*Store)(nil)

// Open connects to the trace database and creates the schema if missing.
func Open(ctx context.Context, dsn string) (*Store, error) {
	d, source, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s trace store: %w", d.driver, err)
	}
	if d.driver == sqliteDriver {
		// in-memory databases live per connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s trace store: %w", d.driver, err)
	}

	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create trace schema: %w", err)
		}
	}

	slog.Debug("trace store opened", slog.String("driver", d.driver))
	return &Store{db: db, dialect: d}, nil
}

// RunID is the id of the most recent run, or 0.
func (s *Store) RunID() int64 { return s.runID }

// Err returns the first recording failure, if any.
func (s *Store) Err() error { return s.err }

func (s *Store) fail(op string, err error) {
	slog.Warn("trace store write failed",
		slog.String("op", op),
		slog.Any("error", err.Error()))
	if s.err == nil {
		s.err = fmt.Errorf("trace %s: %w", op, err)
	}
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *Store) BeginRun(ctx context.Context, rule object.ScopeRule) {
	if s.tx != nil {
		s.fail("begin", errors.New("run already in progress"))
		return
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.fail("begin", err)
		return
	}
	s.tx = tx
	s.seq = 0

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (scope_rule, started_at, status) VALUES (?, ?, ?)`,
		rule.String(), now(), StatusRunning)
	if err != nil {
		s.fail("begin", err)
		return
	}
	s.runID, err = result.LastInsertId()
	if err != nil {
		s.fail("begin", err)
	}
}

func (s *Store) record(ctx context.Context, kind, name string, depth int, detail string) {
	if s.tx == nil {
		return
	}
	s.seq++
	_, err := s.tx.ExecContext(ctx,
		`INSERT INTO events (run_id, seq, depth, kind, fn_name, detail, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.runID, s.seq, depth, kind, name, detail, now())
	if err != nil {
		s.fail(kind, err)
	}
}

func (s *Store) CallEntered(ctx context.Context, name string, depth int, args []object.Object) {
	rendered := make([]string, len(args))
	for i, arg := range args {
		rendered[i] = render(arg)
	}
	s.record(ctx, EnterEvent, name, depth, strings.Join(rendered, ", "))
}

func (s *Store) CallReturned(ctx context.Context, name string, depth int, result object.Object) {
	s.record(ctx, ExitEvent, name, depth, render(result))
}

func (s *Store) EndRun(ctx context.Context, runErr error) {
	if s.tx == nil {
		if s.err == nil {
			s.fail("end", ErrNoRun)
		}
		return
	}

	status, kind, message := StatusOK, "", ""
	if runErr != nil {
		status = StatusError
		message = runErr.Error()
		if k := evaluator.KindOf(runErr); k != 0 {
			kind = k.String()
		}
	}

	_, err := s.tx.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, error_kind = ?, error_message = ? WHERE id = ?`,
		now(), status, kind, message, s.runID)
	if err != nil {
		s.fail("end", err)
		return
	}
	if err := s.tx.Commit(); err != nil {
		s.tx = nil
		s.fail("commit", err)
		return
	}
	s.tx = nil

	slog.Debug("trace recorded",
		slog.Int64("run", s.runID),
		slog.Int("events", s.seq),
		slog.String("status", status))
}

func render(obj object.Object) string {
	switch o := obj.(type) {
	case nil:
		return "<none>"
	case *object.String:
		return strconv.Quote(o.Value)
	}
	return obj.Inspect()
}

// Run loads a recorded run.
func (s *Store) Run(ctx context.Context, id int64) (Run, error) {
	var run Run
	var kind, message sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, scope_rule, status, error_kind, error_message FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.ScopeRule, &run.Status, &kind, &message)
	if err != nil {
		return Run{}, fmt.Errorf("failed to load run %d: %w", id, err)
	}
	run.ErrorKind = kind.String
	run.ErrorMessage = message.String
	return run, nil
}

// Events returns the events of a run in recording order.
func (s *Store) Events(ctx context.Context, runID int64) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, depth, kind, fn_name, detail, recorded_at FROM events WHERE run_id = ? ORDER BY seq`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var at string
		if err := rows.Scan(&ev.RunID, &ev.Seq, &ev.Depth, &ev.Kind, &ev.Function, &ev.Detail, &at); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.RecordedAt, _ = time.Parse(time.RFC3339Nano, at)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) Close() error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	return s.db.Close()
}
