package http

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/olyamironova/order-execution-engine/internal/domain"
	"github.com/olyamironova/order-execution-engine/internal/port"
)

const writeTimeout = 10 * time.Second

// wsConn adapts a gorilla WebSocket connection to the registry's ClientConn
// capability. Writes are serialized: the registry may call Send from a worker
// goroutine while the handler sends the initial event.
type wsConn struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed atomic.Bool
}

var _ port.ClientConn = (*wsConn)(nil)

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (w *wsConn) Send(ev domain.StatusEvent) error {
	if w.closed.Load() {
		return net.ErrClosed
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteJSON(ev)
}

func (w *wsConn) Open() bool {
	return !w.closed.Load()
}

func (w *wsConn) close() {
	if w.closed.CompareAndSwap(false, true) {
		w.conn.Close()
	}
}
