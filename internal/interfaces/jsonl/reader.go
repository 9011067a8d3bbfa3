package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"rlog/internal/domain"
)

// wire is the JSON-lines shape accepted on the ingest edge. Message keeps
// its decoded JSON form (string or object); the sinks classify it.
type wire struct {
	Name      string `json:"name"`
	Message   any    `json:"message"`
	CreatedMs int64  `json:"created_ms"`
}

// Read decodes one record per line and sends it on the returned channel.
// The channel closes when the input ends; a malformed line or a cancelled
// ctx stops reading early.
func Read(ctx context.Context, r io.Reader) (<-chan domain.Record, <-chan error) {
	out := make(chan domain.Record, 64)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

		lineNo := 0
		for sc.Scan() {
			lineNo++
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}

			var w wire
			if err := json.Unmarshal([]byte(line), &w); err != nil {
				errc <- fmt.Errorf("line %d: %w", lineNo, err)
				return
			}
			if w.Name == "" {
				errc <- fmt.Errorf("line %d: missing record name", lineNo)
				return
			}

			created := time.Now()
			if w.CreatedMs > 0 {
				created = time.UnixMilli(w.CreatedMs)
			}

			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			case out <- domain.Record{Name: w.Name, Message: w.Message, Created: created}:
			}
		}
		if err := sc.Err(); err != nil {
			errc <- err
		}
	}()

	return out, errc
}
