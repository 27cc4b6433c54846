package worker

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/olyamironova/order-execution-engine/internal/domain"
	"github.com/olyamironova/order-execution-engine/internal/metrics"
	"github.com/olyamironova/order-execution-engine/internal/notify"
	"github.com/olyamironova/order-execution-engine/internal/port"
)

// Pool runs order pipelines with bounded concurrency. Each order moves
// through processing -> routing -> building -> confirmed, or drops to failed
// at the step that errored; the pipeline for a single order is strictly
// sequential and runs exactly once per job.
type Pool struct {
	router   port.Router
	registry *notify.Registry
	log      *zap.Logger
	sem      chan struct{}
}

func NewPool(router port.Router, registry *notify.Registry, concurrency int, log *zap.Logger) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{
		router:   router,
		registry: registry,
		log:      log,
		sem:      make(chan struct{}, concurrency),
	}
}

// Do acquires a pool slot, runs the pipeline to a terminal status and returns
// the pipeline error, if any, to the calling queue backend. The pool performs
// no retries of its own.
func (p *Pool) Do(o *domain.Order) error {
	p.sem <- struct{}{}
	defer func() { <-p.sem }()

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	return p.process(context.Background(), o)
}

func (p *Pool) process(ctx context.Context, o *domain.Order) error {
	log := p.log.With(zap.String("order_id", o.ID))
	log.Info("processing order")

	p.emit(o.ID, domain.StatusEvent{
		OrderID: o.ID,
		Status:  domain.StatusProcessing,
		Message: "Order picked up by worker",
	})

	p.emit(o.ID, domain.StatusEvent{
		OrderID: o.ID,
		Status:  domain.StatusRouting,
		Message: "Fetching quotes...",
	})
	quote, err := p.router.BestQuote(ctx, o.InputToken, o.OutputToken, o.Amount)
	if err != nil {
		return p.fail(log, o.ID, err)
	}

	log.Info("route selected",
		zap.String("dex", quote.Dex),
		zap.String("price", quote.Price.String()))
	p.emit(o.ID, domain.StatusEvent{
		OrderID: o.ID,
		Status:  domain.StatusRouting,
		Message: "Best Route: " + quote.Dex,
		Price:   priceRef(quote.Price),
		Dex:     quote.Dex,
	})

	p.emit(o.ID, domain.StatusEvent{
		OrderID: o.ID,
		Status:  domain.StatusBuilding,
		Message: "Creating transaction...",
	})
	swap, err := p.router.ExecuteSwap(ctx, quote.Dex, o)
	if err != nil {
		return p.fail(log, o.ID, err)
	}

	log.Info("order confirmed", zap.String("tx_hash", swap.TxHash))
	p.emit(o.ID, domain.StatusEvent{
		OrderID: o.ID,
		Status:  domain.StatusConfirmed,
		TxHash:  swap.TxHash,
		Price:   priceRef(quote.Price),
		Dex:     quote.Dex,
	})
	metrics.OrdersFinished.WithLabelValues(string(domain.StatusConfirmed)).Inc()
	return nil
}

func (p *Pool) fail(log *zap.Logger, orderID string, err error) error {
	log.Error("order failed", zap.Error(err))
	p.emit(orderID, domain.StatusEvent{
		OrderID: orderID,
		Status:  domain.StatusFailed,
		Error:   err.Error(),
	})
	metrics.OrdersFinished.WithLabelValues(string(domain.StatusFailed)).Inc()
	return err
}

func (p *Pool) emit(orderID string, ev domain.StatusEvent) {
	p.registry.Send(orderID, ev)
}

func priceRef(d decimal.Decimal) *decimal.Decimal {
	return &d
}
