package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is published on the order topic once an order has committed.
type OrderPlacedEvent struct {
	OrderID        int64           `json:"order_id"`
	Reference      string          `json:"reference"`
	UserID         *int64          `json:"user_id,omitempty"`
	CustomerName   string          `json:"customer_name"`
	CustomerEmail  string          `json:"customer_email"`
	Items          []OrderItem     `json:"items"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	VoucherCode    *string         `json:"voucher_code,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:        o.ID,
		Reference:      o.Reference,
		UserID:         o.UserID,
		CustomerName:   o.CustomerName,
		CustomerEmail:  o.CustomerEmail,
		Items:          o.OrderItems,
		DiscountAmount: o.DiscountAmount,
		TotalAmount:    o.TotalAmount,
		VoucherCode:    o.VoucherCode,
		Timestamp:      o.OrderDate,
	}
}
