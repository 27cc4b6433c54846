package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string
type OrderType string
type OrderStatus string

const (
	Buy  Side = "buy"
	Sell Side = "sell"

	Market OrderType = "MARKET"
	Limit  OrderType = "LIMIT"
	Sniper OrderType = "SNIPER"

	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusRouting    OrderStatus = "routing"
	StatusBuilding   OrderStatus = "building"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusFailed     OrderStatus = "failed"
)

// Order is a single client-submitted execution request. It is created once at
// submission and immutable afterwards; the pipeline produces derived results
// (Quote, Swap), never mutations.
type Order struct {
	ID          string          `json:"id"`
	Type        OrderType       `json:"type"`
	Side        Side            `json:"side"`
	InputToken  string          `json:"inputToken"`
	OutputToken string          `json:"outputToken"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Quote is a single venue's answer for an order.
type Quote struct {
	Dex   string          `json:"dex"`
	Price decimal.Decimal `json:"price"`
}

// Swap is the settlement artifact produced when an order executes on a venue.
type Swap struct {
	TxHash string          `json:"txHash"`
	Price  decimal.Decimal `json:"price"`
}

// Terminal reports whether the status ends the order lifecycle.
func (s OrderStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}
