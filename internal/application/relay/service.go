package relay

import (
	"context"

	"github.com/rs/zerolog/log"

	"rlog/internal/application/port"
	"rlog/internal/domain"
)

// Stats counts what a relay run did.
type Stats struct {
	Received int
	Failed   int
}

// Service pumps records from a channel into a sink. It does not own the
// sink: the caller closes it after Run returns.
type Service struct {
	sink port.RecordSink
}

func NewService(sink port.RecordSink) *Service {
	return &Service{sink: sink}
}

// Run forwards records until the channel is closed or ctx is cancelled.
// Per-record failures are logged and counted, not fatal: one malformed
// record must not stop a run.
func (s *Service) Run(ctx context.Context, records <-chan domain.Record) (Stats, error) {
	var st Stats
	for {
		select {
		case <-ctx.Done():
			return st, ctx.Err()

		case rec, ok := <-records:
			if !ok {
				return st, nil
			}
			st.Received++
			if err := s.sink.Receive(ctx, rec); err != nil {
				st.Failed++
				log.Error().Err(err).Str("stream", rec.Name).Msg("record rejected")
			}
		}
	}
}
