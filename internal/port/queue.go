package port

import (
	"context"

	"github.com/olyamironova/order-execution-engine/internal/domain"
)

// DurableQueue is the external, persistent job backend. Enqueue keyed by order
// ID must be idempotent: a second enqueue with the same ID overwrites the
// payload instead of producing a duplicate job.
type DurableQueue interface {
	Ping(ctx context.Context) error
	Enqueue(ctx context.Context, o *domain.Order) error
}
