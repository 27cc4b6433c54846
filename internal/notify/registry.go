package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/olyamironova/order-execution-engine/internal/domain"
	"github.com/olyamironova/order-execution-engine/internal/metrics"
	"github.com/olyamironova/order-execution-engine/internal/port"
)

const (
	// pendingBufferSize caps how many events are held for an order whose
	// client has not attached yet. Events beyond the cap are dropped.
	pendingBufferSize = 16
	// pendingTTL bounds how long pre-attach events are retained.
	pendingTTL = 30 * time.Second
)

// Registry maps order IDs to live client connections. It is the process-wide
// bridge between worker pipelines and status streams and is safe for
// concurrent use.
//
// Events sent before a client attaches are buffered per order (bounded size,
// bounded lifetime) and flushed on attach, so delivery does not depend on the
// client winning the race against the first pipeline step.
type Registry struct {
	log *zap.Logger

	mu      sync.Mutex
	conns   map[string]port.ClientConn
	pending map[string]*pendingEvents

	bufferSize int
	ttl        time.Duration
}

type pendingEvents struct {
	events []domain.StatusEvent
	expire *time.Timer
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		log:        log,
		conns:      make(map[string]port.ClientConn),
		pending:    make(map[string]*pendingEvents),
		bufferSize: pendingBufferSize,
		ttl:        pendingTTL,
	}
}

// Attach registers a connection for the order, overwriting any prior entry
// (reconnect support), and flushes events buffered while no client was
// attached. Flushing happens under the registry lock so that a concurrent
// worker Send cannot interleave with the replay.
func (r *Registry) Attach(orderID string, conn port.ClientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[orderID] = conn

	p, ok := r.pending[orderID]
	if !ok {
		return
	}
	p.expire.Stop()
	delete(r.pending, orderID)

	for _, ev := range p.events {
		if err := conn.Send(ev); err != nil {
			r.log.Warn("replay failed", zap.String("order_id", orderID), zap.Error(err))
			delete(r.conns, orderID)
			return
		}
	}
}

// Send delivers the event to the attached client. A present-but-closed
// connection is removed and the send treated as a no-op. With no client
// attached the event is buffered until one attaches or the buffer expires.
func (r *Registry) Send(orderID string, ev domain.StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[orderID]
	if ok {
		if !conn.Open() {
			delete(r.conns, orderID)
			r.log.Debug("removed closed connection", zap.String("order_id", orderID))
			return
		}
		if err := conn.Send(ev); err != nil {
			delete(r.conns, orderID)
			r.log.Warn("send failed", zap.String("order_id", orderID), zap.Error(err))
		}
		return
	}

	r.buffer(orderID, ev)
}

// Detach removes the order's connection entry. Invoked when the client
// channel closes or errors. Pending buffers are left alone so a reconnect
// can still pick up events.
func (r *Registry) Detach(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, orderID)
}

// Attached reports whether a live connection is registered for the order.
func (r *Registry) Attached(orderID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[orderID]
	return ok && conn.Open()
}

// buffer holds an event for a not-yet-attached client. Caller must hold r.mu.
func (r *Registry) buffer(orderID string, ev domain.StatusEvent) {
	p, ok := r.pending[orderID]
	if !ok {
		p = &pendingEvents{
			expire: time.AfterFunc(r.ttl, func() { r.expire(orderID) }),
		}
		r.pending[orderID] = p
	}
	if len(p.events) >= r.bufferSize {
		metrics.EventsDropped.Inc()
		r.log.Debug("pending buffer full, event dropped",
			zap.String("order_id", orderID), zap.String("status", string(ev.Status)))
		return
	}
	p.events = append(p.events, ev)
}

func (r *Registry) expire(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[orderID]
	if !ok {
		return
	}
	metrics.EventsDropped.Add(float64(len(p.events)))
	delete(r.pending, orderID)
	r.log.Debug("pending buffer expired", zap.String("order_id", orderID))
}
