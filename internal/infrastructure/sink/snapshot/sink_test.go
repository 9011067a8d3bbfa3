package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rlog/internal/domain"
)

func textRecord(name, msg string) domain.Record {
	return domain.Record{Name: name, Message: msg, Created: time.Now()}
}

func TestTextOrderPreserved(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	lines := []string{"started", "epoch 1 done", "finished"}
	for _, m := range lines {
		if err := s.Receive(ctx, textRecord("train", m)); err != nil {
			t.Fatalf("Receive failed: %v", err)
		}
	}

	snap, err := s.Load("train")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snap.Text) != len(lines) {
		t.Fatalf("expected %d text lines, got %d", len(lines), len(snap.Text))
	}
	for i, m := range lines {
		if snap.Text[i] != m {
			t.Errorf("text[%d]: expected %q, got %q", i, m, snap.Text[i])
		}
	}
}

func TestScalarEntryShape(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}
	defer s.Close()

	created := time.Now()
	rec := domain.Record{
		Name:    "x",
		Message: map[string]float64{"step": 5, "a": 1.25},
		Created: created,
	}
	if err := s.Receive(context.Background(), rec); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	snap, err := s.Load("x")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	series := snap.Fields["a"]
	if len(series) != 1 {
		t.Fatalf("expected 1 entry for field a, got %d", len(series))
	}
	e := series[0]
	if e.Step != 5 || e.Value != 1.25 {
		t.Errorf("expected {step:5 value:1.25}, got %+v", e)
	}
	if !e.Time.Equal(created) {
		t.Errorf("expected time %v, got %v", created, e.Time)
	}
	if _, ok := snap.Fields["step"]; ok {
		t.Error(`snapshot must not contain a field named "step"`)
	}
}

func TestRoundTripThroughFreshSink(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := New(dir)
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}
	if err := a.Receive(ctx, textRecord("train.loss", "hello")); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if err := a.Receive(ctx, domain.Record{
		Name:    "train.loss",
		Message: map[string]float64{"step": 1, "loss": 0.5},
		Created: time.Now(),
	}); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	a.Close()

	b, err := New(dir)
	if err != nil {
		t.Fatalf("failed to create fresh sink: %v", err)
	}
	defer b.Close()

	snap, err := b.Load("train.loss")
	if err != nil {
		t.Fatalf("Load via fresh sink failed: %v", err)
	}
	if len(snap.Text) != 1 || snap.Text[0] != "hello" {
		t.Errorf("unexpected text: %v", snap.Text)
	}
	if len(snap.Fields["loss"]) != 1 || snap.Fields["loss"][0].Value != 0.5 {
		t.Errorf("unexpected loss series: %v", snap.Fields["loss"])
	}
}

func TestLoadMissingBlobIsEmpty(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}
	defer s.Close()

	snap, err := s.Load("never.logged")
	if err != nil {
		t.Fatalf("Load of missing blob must not fail: %v", err)
	}
	if len(snap.Text) != 0 || len(snap.Fields) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestMissingStepLeavesBlobUnchanged(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Receive(ctx, textRecord("train", "before")); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	err = s.Receive(ctx, domain.Record{
		Name:    "train",
		Message: map[string]float64{"loss": 0.5},
		Created: time.Now(),
	})
	if !errors.Is(err, domain.ErrMissingStep) {
		t.Fatalf("expected ErrMissingStep, got %v", err)
	}

	snap, err := s.Load("train")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snap.Text) != 1 || snap.Text[0] != "before" || len(snap.Fields) != 0 {
		t.Errorf("blob changed after rejected record: %+v", snap)
	}
}

func TestBadMessageTypeWritesNothing(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}
	defer s.Close()

	err = s.Receive(context.Background(), domain.Record{
		Name: "train", Message: 42, Created: time.Now(),
	})
	if !errors.Is(err, domain.ErrMessageType) {
		t.Fatalf("expected ErrMessageType, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "train.blob")); !errors.Is(err, os.ErrNotExist) {
		t.Error("rejected record must not create a blob")
	}
}

func TestBlobFileName(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}
	defer s.Close()

	if err := s.Receive(context.Background(), textRecord("train.loss", "x")); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "train_loss.blob")); err != nil {
		t.Errorf("expected train_loss.blob on disk: %v", err)
	}
}
