package port

import (
	"context"

	"rlog/internal/domain"
)

// RecordSink consumes records and performs one side effect per record
// (persistence or live forwarding). Implementations validate the message
// shape before writing anything: a failed Receive leaves no partial state.
type RecordSink interface {
	// Receive consumes a single record. Fails with domain.ErrMessageType
	// or domain.ErrMissingStep on malformed input.
	Receive(ctx context.Context, rec domain.Record) error

	// Close releases the sink's resources. Called exactly once.
	Close() error
}
