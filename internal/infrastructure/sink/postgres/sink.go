package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"rlog/internal/application/port"
	"rlog/internal/domain"
)

// Sink archives record entries into a server-side postgres database, same
// contract as the sqlite sink.
type Sink struct {
	db *sql.DB
}

func New(dsn string) (*Sink, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

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
  id BIGSERIAL PRIMARY KEY,
  stream TEXT NOT NULL,
  field TEXT NOT NULL,
  step BIGINT,
  value DOUBLE PRECISION,
  text TEXT,
  ts_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_stream ON entries(stream, field);
`)
	return err
}

func (s *Sink) Receive(ctx context.Context, rec domain.Record) error {
	ts := rec.Created.UnixMilli()

	switch msg := rec.Message.(type) {
	case string:
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO entries(stream, field, text, ts_ms)
			VALUES($1, 'text', $2, $3)
		`, rec.Name, msg, ts)
		return err
	default:
		m, ok := domain.AsScalars(msg)
		if !ok {
			return fmt.Errorf("postgres sink: %w", domain.ErrMessageType)
		}
		step, values, err := domain.SplitScalars(m)
		if err != nil {
			return fmt.Errorf("postgres sink: %w", err)
		}
		for k, v := range values {
			if _, err := s.db.ExecContext(ctx, `
				INSERT INTO entries(stream, field, step, value, ts_ms)
				VALUES($1, $2, $3, $4, $5)
			`, rec.Name, k, step, v, ts); err != nil {
				return err
			}
		}
		return nil
	}
}

var _ port.RecordSink = (*Sink)(nil)
