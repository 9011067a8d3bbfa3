package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"rlog/internal/application/port"
	"rlog/internal/domain"
)

// Sink archives record entries into an embedded sqlite database. One row
// per text message, one row per metric value. Unlike the snapshot blob
// this store is queryable per stream and field.
type Sink struct {
	db *sql.DB
}

func New(path string) (*Sink, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Sink{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) Close() error { return s.db.Close() }

func (s *Sink) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  stream TEXT NOT NULL,
  field TEXT NOT NULL,
  step INTEGER,
  value REAL,
  text TEXT,
  ts_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_stream ON entries(stream, field);
CREATE INDEX IF NOT EXISTS idx_entries_ts ON entries(ts_ms);
`)
	return err
}

func (s *Sink) Receive(ctx context.Context, rec domain.Record) error {
	ts := rec.Created.UnixMilli()

	switch msg := rec.Message.(type) {
	case string:
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO entries(stream, field, text, ts_ms)
			VALUES(?, 'text', ?, ?)
		`, rec.Name, msg, ts)
		return err
	default:
		m, ok := domain.AsScalars(msg)
		if !ok {
			return fmt.Errorf("sqlite sink: %w", domain.ErrMessageType)
		}
		step, values, err := domain.SplitScalars(m)
		if err != nil {
			return fmt.Errorf("sqlite sink: %w", err)
		}
		for k, v := range values {
			if _, err := s.db.ExecContext(ctx, `
				INSERT INTO entries(stream, field, step, value, ts_ms)
				VALUES(?, ?, ?, ?, ?)
			`, rec.Name, k, step, v, ts); err != nil {
				return err
			}
		}
		return nil
	}
}

// TextHistory returns the text lines recorded for a stream, oldest first.
func (s *Sink) TextHistory(ctx context.Context, stream string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text FROM entries WHERE stream=? AND field='text' ORDER BY id`, stream)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Point is one metric value as read back from the archive.
type Point struct {
	Step  int64
	Value float64
	TsMs  int64
}

// Series returns the points recorded for one metric of a stream, oldest first.
func (s *Sink) Series(ctx context.Context, stream, field string) ([]Point, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, value, ts_ms FROM entries WHERE stream=? AND field=? ORDER BY id`, stream, field)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Step, &p.Value, &p.TsMs); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

var _ port.RecordSink = (*Sink)(nil)
