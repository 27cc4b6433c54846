package dto

import (
	"github.com/shopspring/decimal"

	"github.com/olyamironova/order-execution-engine/internal/domain"
)

type CreateOrderRequest struct {
	Type        domain.OrderType `json:"type"`
	Side        domain.Side      `json:"side"`
	InputToken  string           `json:"inputToken" binding:"required"`
	OutputToken string           `json:"outputToken" binding:"required"`
	Amount      decimal.Decimal  `json:"amount"`
}

type CreateOrderResponse struct {
	Message string             `json:"message"`
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
	WsURL   string             `json:"wsUrl"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
