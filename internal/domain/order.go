package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusConfirmed  OrderStatus = "Confirmed"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipping   OrderStatus = "Shipping"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// orderStatuses is ordered by ordinal; the first five are also the fulfilment sequence.
var orderStatuses = []string{
	string(OrderStatusPending),
	string(OrderStatusConfirmed),
	string(OrderStatusProcessing),
	string(OrderStatusShipping),
	string(OrderStatusDelivered),
	string(OrderStatusCancelled),
}

func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	for i, s := range orderStatuses {
		out[i] = OrderStatus(s)
	}
	return out
}

func (s OrderStatus) Valid() bool {
	return s.rank() >= 0
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) rank() int {
	for i, n := range orderStatuses {
		if n == string(s) {
			return i
		}
	}
	return -1
}

// CanTransitionTo reports whether an order in status s may move to next. Orders move
// forward through the fulfilment sequence (skipping is allowed) or get cancelled while
// still open; Delivered and Cancelled are final.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return next.rank() > s.rank()
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, orderStatuses)
	if err != nil {
		return err
	}
	*s = OrderStatus(v)
	return nil
}

type OrderItem struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"orderId"`
	BeverageID   int64           `json:"beverageId"`
	BeverageName string          `json:"beverageName"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

// LineTotal is the snapshot price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              int64           `json:"id"`
	Reference       string          `json:"reference"`
	UserID          *int64          `json:"userId"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerPhone   string          `json:"customerPhone"`
	ShippingAddress string          `json:"shippingAddress"`
	Notes           *string         `json:"notes"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	VoucherCode     *string         `json:"voucherCode"`
	OrderDate       time.Time       `json:"orderDate"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   string          `json:"paymentMethod"`
	// IsPaid records that the caller confirmed payment at checkout. It is stored as
	// supplied; no payment provider is consulted.
	IsPaid     bool        `json:"isPaid"`
	PaidDate   *time.Time  `json:"paidDate"`
	OrderItems []OrderItem `json:"orderItems"`
}

// Subtotal sums the line totals of the order's items.
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.OrderItems {
		total = total.Add(item.LineTotal())
	}
	return total
}

// CartLine is one requested line of a checkout.
type CartLine struct {
	BeverageID int64 `json:"beverageId" validate:"required,gt=0"`
	Quantity   int   `json:"quantity" validate:"required,gte=1"`
}

type CustomerInfo struct {
	UserID          *int64
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	Notes           *string
	PaymentMethod   string
	IsPaid          bool
}

// MarshalJSON keeps orderItems an array even for orders loaded without items.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	if o.OrderItems == nil {
		o.OrderItems = []OrderItem{}
	}
	return json.Marshal(plain(o))
}
