package board

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"rlog/internal/application/port"
	"rlog/internal/domain"
)

// Frame is the wire shape pushed to the live board backend. Kind is
// "text" or "scalar"; Tag is the stream path with dots replaced by
// slashes, plus "/{metric}" for scalars.
type Frame struct {
	Kind  string  `json:"kind"`
	Tag   string  `json:"tag"`
	Text  string  `json:"text,omitempty"`
	Value float64 `json:"value,omitempty"`
	Step  int64   `json:"step,omitempty"`
	TsMs  int64   `json:"ts_ms"`
}

// Sink forwards records live to a board session over a websocket. Nothing
// is buffered locally; a failed forward surfaces to the caller.
type Sink struct {
	conn *websocket.Conn
}

// Dial opens the board session. A backend that cannot be reached fails
// construction with domain.ErrUnavailable; no sink is returned.
func Dial(ctx context.Context, wsURL string, timeout time.Duration) (*Sink, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(cctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrUnavailable, wsURL, err)
	}
	return &Sink{conn: conn}, nil
}

func (s *Sink) Receive(ctx context.Context, rec domain.Record) error {
	switch msg := rec.Message.(type) {
	case string:
		return s.conn.WriteJSON(Frame{
			Kind: "text",
			Tag:  domain.BoardPath(rec.Name),
			Text: msg,
			TsMs: rec.Created.UnixMilli(),
		})
	default:
		m, ok := domain.AsScalars(msg)
		if !ok {
			return fmt.Errorf("board sink: %w", domain.ErrMessageType)
		}
		step, values, err := domain.SplitScalars(m)
		if err != nil {
			return fmt.Errorf("board sink: %w", err)
		}
		tag := domain.BoardPath(rec.Name)
		for k, v := range values {
			if err := s.conn.WriteJSON(Frame{
				Kind:  "scalar",
				Tag:   tag + "/" + k,
				Value: v,
				Step:  step,
				TsMs:  rec.Created.UnixMilli(),
			}); err != nil {
				return err
			}
		}
		return nil
	}
}

// Close flushes the session with a close frame and releases the
// connection. Call exactly once at shutdown.
func (s *Sink) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(5*time.Second))
	return s.conn.Close()
}

var _ port.RecordSink = (*Sink)(nil)
