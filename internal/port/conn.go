package port

import "github.com/olyamironova/order-execution-engine/internal/domain"

// ClientConn is the minimal capability the notification registry needs from a
// live client connection, independent of transport.
type ClientConn interface {
	Send(ev domain.StatusEvent) error
	Open() bool
}
