// Package sagalog is the append-only audit trail of order status-change
// sagas. Every transition of a saga becomes one row, tagged with the trace
// that produced it, so a status history can be read back per order and
// joined to the distributed trace.
package sagalog

import "time"

type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusStepSkipped  Status = "STEP_SKIPPED"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// SagaLog is one saga transition.
type SagaLog struct {
	// SagaID identifies a single saga run.
	SagaID string
	// OrderID is the order the saga acted on; one order has many sagas.
	OrderID     string
	Status      Status
	CurrentStep string
	// Payload is the JSON input of the saga, written on STARTED only.
	Payload string
	// ErrorMessages is a JSON array of failure details.
	ErrorMessages string
	TraceID       string
	SpanID        string
	UpdatedAt     time.Time
}
