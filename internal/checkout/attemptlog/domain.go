// Package attemptlog is the audit trail of checkout attempts.
//
// Every state transition of an attempt appends one entry. The latest entry
// for an attempt id tells where that attempt is or ended, and its trace_id
// links it to the distributed trace of the same attempt.
package attemptlog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"
)

var ErrNotFound = errors.New("attemptlog: attempt not found")

// Entry is a single row of the attempt log.
type Entry struct {
	AttemptID string `json:"attemptId"`

	// State is the checkout state entered by this transition.
	State string `json:"state"`

	// PaymentMethod is "cash" or "online".
	PaymentMethod string `json:"paymentMethod"`

	// Payload is a JSON snapshot of the order. Only written when the attempt
	// starts.
	Payload string `json:"payload,omitempty"`

	// ErrorMessages is a JSON array of failure details.
	ErrorMessages string `json:"errorMessages"`

	TraceID   string    `json:"traceId,omitempty"`
	SpanID    string    `json:"spanId,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository persists entries. The log is append-only.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
	GetLatest(ctx context.Context, attemptID string) (*Entry, error)
}

// NewEntry builds an entry with the trace ids of the span active in ctx.
func NewEntry(ctx context.Context, attemptID, state, method, payload string, errs []string) *Entry {
	sc := trace.SpanFromContext(ctx).SpanContext()

	errJSON := "[]"
	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			errJSON = string(b)
		}
	}

	entry := &Entry{
		AttemptID:     attemptID,
		State:         state,
		PaymentMethod: method,
		Payload:       payload,
		ErrorMessages: errJSON,
		UpdatedAt:     time.Now().UTC(),
	}
	if sc.IsValid() {
		entry.TraceID = sc.TraceID().String()
		entry.SpanID = sc.SpanID().String()
	}
	return entry
}
