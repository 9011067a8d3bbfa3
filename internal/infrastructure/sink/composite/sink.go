package composite

import (
	"context"

	"rlog/internal/application/port"
	"rlog/internal/domain"
)

// Sink fans every record out to a set of child sinks. All children see the
// record even when an earlier one fails; the first error is returned.
type Sink struct {
	sinks []port.RecordSink
}

func New(sinks ...port.RecordSink) *Sink {
	// nil sinks are allowed; filter in constructor for safety
	out := make([]port.RecordSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Sink{sinks: out}
}

func (s *Sink) Receive(ctx context.Context, rec domain.Record) error {
	var firstErr error
	for _, child := range s.sinks {
		if err := child.Receive(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Sink) Close() error {
	var firstErr error
	for _, child := range s.sinks {
		if err := child.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ port.RecordSink = (*Sink)(nil)
