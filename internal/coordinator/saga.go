// Package coordinator runs order status changes as sagas: a list of steps
// executed in order, where a failed required step compensates the steps
// that already succeeded, newest first.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jcmexdev/food-delivery/internal/coordinator/sagalog"
	"github.com/jcmexdev/food-delivery/internal/pkg/telemetry"
)

type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// BestEffort is implemented by steps whose failure is recorded but does not
// abort the saga.
type BestEffort interface {
	BestEffort() bool
}

func isBestEffort(s Step) bool {
	be, ok := s.(BestEffort)
	return ok && be.BestEffort()
}

// Result summarises a finished saga.
type Result struct {
	SagaID string
	// Skipped holds one message per best-effort step that failed.
	Skipped []string
}

type Orchestrator struct {
	sagaID  string
	orderID string
	steps   []Step
	log     sagalog.Repository
}

// NewOrchestrator prepares a saga over orderID. log may be nil, in which
// case transitions are not persisted.
func NewOrchestrator(orderID string, steps []Step, log sagalog.Repository) *Orchestrator {
	return &Orchestrator{
		sagaID:  uuid.NewString(),
		orderID: orderID,
		steps:   steps,
		log:     log,
	}
}

func (o *Orchestrator) SagaID() string { return o.sagaID }

// Start runs the saga. payload is stored with the STARTED entry.
func (o *Orchestrator) Start(ctx context.Context, payload string) (res Result, err error) {
	ctx, span := telemetry.StartSpan(ctx, "saga.order_status")
	defer func() { telemetry.EndSpan(span, err) }()

	res.SagaID = o.sagaID
	o.record(ctx, sagalog.StatusStarted, "", payload, nil)

	var done []Step
	for _, step := range o.steps {
		slog.DebugContext(ctx, "executing saga step", "saga_id", o.sagaID, "step", step.Name())

		if err := step.Execute(ctx); err != nil {
			msg := fmt.Sprintf("step %s failed: %v", step.Name(), err)
			if isBestEffort(step) {
				slog.WarnContext(ctx, "best-effort saga step failed", "saga_id", o.sagaID, "order_id", o.orderID, "step", step.Name(), "error", err)
				res.Skipped = append(res.Skipped, msg)
				o.record(ctx, sagalog.StatusStepSkipped, step.Name(), "", []string{msg})
				continue
			}

			slog.ErrorContext(ctx, "saga step failed, compensating", "saga_id", o.sagaID, "order_id", o.orderID, "step", step.Name(), "error", err)
			errs := append([]string{msg}, o.rollback(ctx, done)...)
			o.record(ctx, sagalog.StatusFailed, step.Name(), "", errs)
			return res, fmt.Errorf("saga %s: %w", step.Name(), err)
		}

		done = append(done, step)
		o.record(ctx, sagalog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, sagalog.StatusCompleted, "", "", res.Skipped)
	return res, nil
}

// rollback compensates steps LIFO and returns the compensation failures.
func (o *Orchestrator) rollback(ctx context.Context, steps []Step) []string {
	var errs []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		o.record(ctx, sagalog.StatusCompensating, step.Name(), "", nil)
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to compensate saga step", "saga_id", o.sagaID, "order_id", o.orderID, "step", step.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("compensation of %s failed: %v", step.Name(), err))
		}
	}
	return errs
}

func (o *Orchestrator) record(ctx context.Context, status sagalog.Status, step, payload string, errs []string) {
	if o.log == nil {
		return
	}
	entry := sagalog.NewEntry(ctx, o.sagaID, o.orderID, status, step, payload, errs)
	if err := o.log.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "failed to persist saga log", "saga_id", o.sagaID, "status", status, "error", err)
	}
}
