package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"rlog/internal/application/port"
	"rlog/internal/domain"
)

// Sink fans record entries out to Redis for live consumers: one stream per
// logical log stream (XADD "{prefix}:{stream}") plus a pub/sub channel
// carrying every entry as JSON.
type Sink struct {
	rdb      *redis.Client
	prefix   string
	liveChan string
}

type liveEntry struct {
	Stream string  `json:"stream"`
	Field  string  `json:"field"`
	Text   string  `json:"text,omitempty"`
	Step   int64   `json:"step,omitempty"`
	Value  float64 `json:"value,omitempty"`
	TsMs   int64   `json:"ts_ms"`
}

func New(rdb *redis.Client, prefix string) *Sink {
	if strings.TrimSpace(prefix) == "" {
		prefix = "rlog"
	}
	return &Sink{
		rdb:      rdb,
		prefix:   prefix,
		liveChan: prefix + ":live",
	}
}

func (s *Sink) Receive(ctx context.Context, rec domain.Record) error {
	ts := rec.Created.UnixMilli()

	switch msg := rec.Message.(type) {
	case string:
		return s.publish(ctx, rec.Name, liveEntry{
			Stream: rec.Name, Field: "text", Text: msg, TsMs: ts,
		})
	default:
		m, ok := domain.AsScalars(msg)
		if !ok {
			return fmt.Errorf("redis sink: %w", domain.ErrMessageType)
		}
		step, values, err := domain.SplitScalars(m)
		if err != nil {
			return fmt.Errorf("redis sink: %w", err)
		}
		for k, v := range values {
			e := liveEntry{Stream: rec.Name, Field: k, Step: step, Value: v, TsMs: ts}
			if err := s.publish(ctx, rec.Name, e); err != nil {
				return err
			}
		}
		return nil
	}
}

func (s *Sink) publish(ctx context.Context, stream string, e liveEntry) error {
	// 1) Stream: XADD <prefix>:<stream> * field ... ts_ms ...
	values := map[string]any{
		"field": e.Field,
		"ts_ms": e.TsMs,
	}
	if e.Field == "text" {
		values["text"] = e.Text
	} else {
		values["step"] = e.Step
		values["value"] = e.Value
	}
	if err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.prefix + ":" + domain.FileStem(stream),
		Values: values,
	}).Err(); err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json
	b, _ := json.Marshal(e)
	return s.rdb.Publish(ctx, s.liveChan, string(b)).Err()
}

func (s *Sink) Close() error { return s.rdb.Close() }

var _ port.RecordSink = (*Sink)(nil)
