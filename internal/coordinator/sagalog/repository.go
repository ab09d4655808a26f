package sagalog

import "context"

type Repository interface {
	// Save appends entry. Rows are never updated.
	Save(ctx context.Context, entry *SagaLog) error
	// ListByOrder returns every entry for orderID, oldest first.
	ListByOrder(ctx context.Context, orderID string) ([]SagaLog, error)
}
