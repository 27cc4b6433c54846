package port

import (
	"context"

	"github.com/olyamironova/order-execution-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// Router is the routing capability consumed by the worker: pick the more
// favorable quote across venues, then produce a settlement reference for the
// chosen venue.
type Router interface {
	BestQuote(ctx context.Context, inputToken, outputToken string, amount decimal.Decimal) (domain.Quote, error)
	ExecuteSwap(ctx context.Context, dex string, o *domain.Order) (domain.Swap, error)
}
