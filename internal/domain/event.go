package domain

import "github.com/shopspring/decimal"

// Clients consume prices and amounts as JSON numbers, not quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// StatusEvent is a single asynchronous progress notification for one order,
// pushed from the worker to the attached client. Field names follow the wire
// format clients already speak: the venue travels as "dex", the settlement
// reference as "txHash".
type StatusEvent struct {
	OrderID string           `json:"orderId"`
	Status  OrderStatus      `json:"status"`
	Message string           `json:"message,omitempty"`
	Price   *decimal.Decimal `json:"price,omitempty"`
	Dex     string           `json:"dex,omitempty"`
	TxHash  string           `json:"txHash,omitempty"`
	Error   string           `json:"error,omitempty"`
}
