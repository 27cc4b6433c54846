package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/olyamironova/order-execution-engine/internal/domain"
	"github.com/olyamironova/order-execution-engine/internal/metrics"
	"github.com/olyamironova/order-execution-engine/internal/port"
)

const (
	modeDurable int32 = iota
	modeFallback
)

// Fallback is the local queue the dispatcher degrades to. Local enqueue
// always succeeds.
type Fallback interface {
	Enqueue(o *domain.Order)
}

// Dispatcher routes submissions to the durable backend, degrading to the
// in-process queue when the backend is unreachable.
//
// Mode is a two-state machine with a one-way transition: a failed startup
// probe or a connection-refusal error at enqueue time flips the dispatcher to
// fallback for the remainder of the process; it never probes its way back
// within a session. A durable-backend outage alone is never surfaced to the
// caller.
type Dispatcher struct {
	durable  port.DurableQueue
	fallback Fallback
	log      *zap.Logger
	mode     atomic.Int32
}

// New probes the durable backend within probeTimeout and starts in durable or
// fallback mode accordingly.
func New(durable port.DurableQueue, fallback Fallback, probeTimeout time.Duration, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		durable:  durable,
		fallback: fallback,
		log:      log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := durable.Ping(ctx); err != nil {
		log.Warn("durable backend unreachable, switching to in-memory queue", zap.Error(err))
		d.mode.Store(modeFallback)
	} else {
		log.Info("durable backend reachable")
	}
	return d
}

// Enqueue submits the order for processing. It fails only if the durable path
// fails with an error that is not a connectivity problem; connectivity
// problems flip the dispatcher to fallback and the same submission is retried
// there exactly once.
func (d *Dispatcher) Enqueue(ctx context.Context, o *domain.Order) error {
	if d.FallbackMode() {
		metrics.FallbackEnqueues.Inc()
		d.fallback.Enqueue(o)
		return nil
	}

	if err := d.durable.Enqueue(ctx, o); err != nil {
		if !isConnFailure(err) {
			return fmt.Errorf("enqueue order %s: %w", o.ID, err)
		}
		d.log.Warn("durable enqueue failed, switching to in-memory queue", zap.Error(err))
		d.mode.Store(modeFallback)
		metrics.FallbackEnqueues.Inc()
		d.fallback.Enqueue(o)
	}
	return nil
}

// FallbackMode reports whether the dispatcher has degraded to the local queue.
func (d *Dispatcher) FallbackMode() bool {
	return d.mode.Load() == modeFallback
}

// isConnFailure classifies connection-refusal style errors: dial failures,
// refused connections and timeouts, as opposed to application-level errors
// the backend returned while reachable.
func isConnFailure(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
