package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"rlog/internal/domain"
)

type fakeSink struct {
	received []domain.Record
	failOn   string
}

func (f *fakeSink) Receive(ctx context.Context, rec domain.Record) error {
	if rec.Name == f.failOn {
		return errors.New("sink rejected record")
	}
	f.received = append(f.received, rec)
	return nil
}

func (f *fakeSink) Close() error { return nil }

func TestRunForwardsUntilChannelCloses(t *testing.T) {
	sink := &fakeSink{}
	records := make(chan domain.Record, 3)
	for _, name := range []string{"a", "b", "c"} {
		records <- domain.Record{Name: name, Message: "m", Created: time.Now()}
	}
	close(records)

	stats, err := NewService(sink).Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Received != 3 || stats.Failed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if len(sink.received) != 3 {
		t.Errorf("expected 3 forwarded records, got %d", len(sink.received))
	}
}

func TestRunCountsFailuresAndKeepsGoing(t *testing.T) {
	sink := &fakeSink{failOn: "bad"}
	records := make(chan domain.Record, 3)
	for _, name := range []string{"ok", "bad", "ok2"} {
		records <- domain.Record{Name: name, Message: "m", Created: time.Now()}
	}
	close(records)

	stats, err := NewService(sink).Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Received != 3 || stats.Failed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if len(sink.received) != 2 {
		t.Errorf("expected 2 forwarded records, got %d", len(sink.received))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := make(chan domain.Record)
	_, err := NewService(&fakeSink{}).Run(ctx, records)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
