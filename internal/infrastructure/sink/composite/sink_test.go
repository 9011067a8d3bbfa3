package composite

import (
	"context"
	"errors"
	"testing"
	"time"

	"rlog/internal/domain"
)

type fakeSink struct {
	received []domain.Record
	closed   int
	err      error
}

func (f *fakeSink) Receive(ctx context.Context, rec domain.Record) error {
	f.received = append(f.received, rec)
	return f.err
}

func (f *fakeSink) Close() error {
	f.closed++
	return f.err
}

func rec(name string) domain.Record {
	return domain.Record{Name: name, Message: "m", Created: time.Now()}
}

func TestFanOut(t *testing.T) {
	a, b := &fakeSink{}, &fakeSink{}
	s := New(a, nil, b)

	if err := s.Receive(context.Background(), rec("train")); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if len(a.received) != 1 || len(b.received) != 1 {
		t.Errorf("expected both children to see the record, got %d/%d", len(a.received), len(b.received))
	}
}

func TestFirstErrorWins(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	a := &fakeSink{err: errA}
	b := &fakeSink{err: errB}
	s := New(a, b)

	err := s.Receive(context.Background(), rec("train"))
	if !errors.Is(err, errA) {
		t.Errorf("expected first error, got %v", err)
	}
	if len(b.received) != 1 {
		t.Error("a failing child must not stop fan-out")
	}
}

func TestCloseAllChildren(t *testing.T) {
	a, b := &fakeSink{}, &fakeSink{err: errors.New("close failed")}
	s := New(a, b)

	if err := s.Close(); err == nil {
		t.Error("expected close error to surface")
	}
	if a.closed != 1 || b.closed != 1 {
		t.Errorf("expected every child closed once, got %d/%d", a.closed, b.closed)
	}
}
