package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/olyamironova/order-execution-engine/internal/domain"
)

// chanConn records delivered events and can simulate a closed channel.
type chanConn struct {
	mu     sync.Mutex
	events []domain.StatusEvent
	closed bool
}

func (c *chanConn) Send(ev domain.StatusEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *chanConn) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *chanConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *chanConn) Events() []domain.StatusEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.StatusEvent, len(c.events))
	copy(out, c.events)
	return out
}

func event(orderID string, status domain.OrderStatus) domain.StatusEvent {
	return domain.StatusEvent{OrderID: orderID, Status: status}
}

func TestSendDeliversToAttachedClient(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	conn := &chanConn{}

	r.Attach("order-1", conn)
	r.Send("order-1", event("order-1", domain.StatusProcessing))

	events := conn.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.StatusProcessing, events[0].Status)
}

func TestSendBuffersUntilAttach(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	r.Send("order-1", event("order-1", domain.StatusProcessing))
	r.Send("order-1", event("order-1", domain.StatusRouting))
	r.Send("order-1", event("order-1", domain.StatusBuilding))

	conn := &chanConn{}
	r.Attach("order-1", conn)

	events := conn.Events()
	require.Len(t, events, 3)
	assert.Equal(t, domain.StatusProcessing, events[0].Status)
	assert.Equal(t, domain.StatusRouting, events[1].Status)
	assert.Equal(t, domain.StatusBuilding, events[2].Status)
}

func TestDetachRemovesEntry(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	conn := &chanConn{}

	r.Attach("order-1", conn)
	r.Detach("order-1")

	assert.False(t, r.Attached("order-1"))

	// A subsequent event must not reach the detached connection.
	r.Send("order-1", event("order-1", domain.StatusConfirmed))
	assert.Empty(t, conn.Events())
}

func TestSendRemovesClosedConnection(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	conn := &chanConn{}

	r.Attach("order-1", conn)
	conn.Close()

	r.Send("order-1", event("order-1", domain.StatusProcessing))

	assert.False(t, r.Attached("order-1"))
	assert.Empty(t, conn.Events())
}

func TestAttachOverwritesForReconnect(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	first := &chanConn{}
	second := &chanConn{}

	r.Attach("order-1", first)
	r.Attach("order-1", second)
	r.Send("order-1", event("order-1", domain.StatusConfirmed))

	assert.Empty(t, first.Events())
	require.Len(t, second.Events(), 1)
}

func TestPendingBufferCapacity(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.bufferSize = 2

	r.Send("order-1", event("order-1", domain.StatusProcessing))
	r.Send("order-1", event("order-1", domain.StatusRouting))
	r.Send("order-1", event("order-1", domain.StatusBuilding)) // dropped

	conn := &chanConn{}
	r.Attach("order-1", conn)

	events := conn.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.StatusProcessing, events[0].Status)
	assert.Equal(t, domain.StatusRouting, events[1].Status)
}

func TestPendingBufferExpires(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.ttl = 20 * time.Millisecond

	r.Send("order-1", event("order-1", domain.StatusProcessing))
	time.Sleep(80 * time.Millisecond)

	conn := &chanConn{}
	r.Attach("order-1", conn)
	assert.Empty(t, conn.Events())
}

func TestCrossOrderIsolation(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	a := &chanConn{}
	b := &chanConn{}

	r.Attach("order-a", a)
	r.Attach("order-b", b)
	r.Send("order-a", event("order-a", domain.StatusConfirmed))

	require.Len(t, a.Events(), 1)
	assert.Empty(t, b.Events())
}

func TestConcurrentSendAndDetach(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	conn := &chanConn{}
	r.Attach("order-1", conn)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Send("order-1", event("order-1", domain.StatusRouting))
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Detach("order-1")
	}()
	wg.Wait()
}
