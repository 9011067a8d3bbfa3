package snapshot

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"rlog/internal/application/port"
	"rlog/internal/domain"
)

// Entry is one recorded metric point.
type Entry struct {
	Step  int64
	Value float64
	Time  time.Time
}

// Snapshot accumulates everything ever recorded for one stream: the raw
// text lines plus one ordered series per metric name. The reserved "step"
// key never appears in Fields.
type Snapshot struct {
	Text   []string
	Fields map[string][]Entry
}

// Sink persists one gob blob per stream under dir, named after the stream
// with dots replaced by underscores ("train.loss" -> "train_loss.blob").
// The whole blob is rewritten on every record. No locking: concurrent
// writers to the same stream lose updates.
type Sink struct {
	dir string
}

func New(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Sink{dir: dir}, nil
}

func (s *Sink) Receive(ctx context.Context, rec domain.Record) error {
	snap, err := s.Load(rec.Name)
	if err != nil {
		return err
	}

	switch msg := rec.Message.(type) {
	case string:
		snap.Text = append(snap.Text, msg)
	default:
		m, ok := domain.AsScalars(msg)
		if !ok {
			return fmt.Errorf("snapshot sink: %w", domain.ErrMessageType)
		}
		step, values, err := domain.SplitScalars(m)
		if err != nil {
			return fmt.Errorf("snapshot sink: %w", err)
		}
		for k, v := range values {
			snap.Fields[k] = append(snap.Fields[k], Entry{Step: step, Value: v, Time: rec.Created})
		}
	}

	return s.save(rec.Name, snap)
}

func (s *Sink) Close() error { return nil }

// Load reads the persisted snapshot for a stream. A stream with no blob
// yet yields an empty snapshot, never an error. The returned value is
// owned by the caller.
func (s *Sink) Load(name string) (*Snapshot, error) {
	snap := &Snapshot{Fields: make(map[string][]Entry)}

	f, err := os.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", s.path(name), err)
	}
	if snap.Fields == nil {
		snap.Fields = make(map[string][]Entry)
	}
	return snap, nil
}

func (s *Sink) path(name string) string {
	return filepath.Join(s.dir, domain.FileStem(name)+".blob")
}

// save rewrites the blob through a temp file + rename so a crash mid-write
// cannot leave a truncated snapshot behind.
func (s *Sink) save(name string, snap *Snapshot) error {
	tmp, err := os.CreateTemp(s.dir, domain.FileStem(name)+".tmp-*")
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(name))
}

var _ port.RecordSink = (*Sink)(nil)
