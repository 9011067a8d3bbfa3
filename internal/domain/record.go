package domain

import (
	"errors"
	"strings"
	"time"
)

// StepField is the reserved key carrying the logical time index of a
// scalar message. It is never stored as a metric itself.
const StepField = "step"

var (
	// ErrMessageType reports a record whose message is neither free text
	// nor a scalar mapping. Caller bug, never retried.
	ErrMessageType = errors.New("record message must be a string or a scalar map")

	// ErrMissingStep reports a scalar message without the reserved "step" key.
	ErrMissingStep = errors.New(`scalar message missing "step" key`)

	// ErrUnavailable reports a live board backend that cannot be reached.
	ErrUnavailable = errors.New("board backend unavailable")
)

// Record is a single structured log event. Name is a dotted path
// identifying the logical stream (e.g. "train.loss"). Message is either a
// string or a scalar mapping (map[string]float64, or map[string]any with
// numeric values as produced by JSON decoding).
type Record struct {
	Name    string
	Message any
	Created time.Time
}

// FileStem returns the storage key for a stream name: "train.loss" -> "train_loss".
func FileStem(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// BoardPath returns the hierarchical board tag for a stream name:
// "train.loss" -> "train/loss".
func BoardPath(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// AsScalars normalizes a record message into a scalar mapping. It accepts
// map[string]float64 directly and map[string]any whose values are all
// numeric (ints and floats). The second return is false when the message
// is not a scalar mapping at all.
func AsScalars(msg any) (map[string]float64, bool) {
	switch m := msg.(type) {
	case map[string]float64:
		return m, true
	case map[string]any:
		out := make(map[string]float64, len(m))
		for k, v := range m {
			n, ok := asNumber(v)
			if !ok {
				return nil, false
			}
			out[k] = n
		}
		return out, true
	default:
		return nil, false
	}
}

// SplitScalars extracts the step index from a scalar mapping and returns
// the remaining metric values. The input is not modified. Returns
// ErrMissingStep when the reserved key is absent.
func SplitScalars(m map[string]float64) (step int64, values map[string]float64, err error) {
	s, ok := m[StepField]
	if !ok {
		return 0, nil, ErrMissingStep
	}
	values = make(map[string]float64, len(m)-1)
	for k, v := range m {
		if k != StepField {
			values[k] = v
		}
	}
	return int64(s), values, nil
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
