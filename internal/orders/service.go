package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/beverageshop/internal/catalog"
	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/voucher"
)

var meter = otel.Meter("beverageshop/orders")

var placedCounter, _ = meter.Int64Counter("orders.placed",
	metric.WithDescription("Orders committed"))

var rejectedCounter, _ = meter.Int64Counter("orders.rejected",
	metric.WithDescription("Orders refused, by reason"))

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type BeverageStore interface {
	LockForOrder(ctx context.Context, ids []int64) (map[int64]*domain.Beverage, error)
	DecrementStock(ctx context.Context, id int64, quantity int) error
	Restock(ctx context.Context, id int64, quantity int) error
}

type VoucherStore interface {
	GetByCodeForUpdate(ctx context.Context, code string) (*domain.Voucher, error)
	IncrementUsage(ctx context.Context, id int64) error
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, userID *int64) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, order *domain.Order) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Service struct {
	tx        Transactor
	beverages BeverageStore
	vouchers  VoucherStore
	orders    OrderStore
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
}

// NewService wires the order workflow. publisher may be nil, in which case no events are
// emitted.
func NewService(tx Transactor, beverages BeverageStore, vouchers VoucherStore, orders OrderStore, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		tx:        tx,
		beverages: beverages,
		vouchers:  vouchers,
		orders:    orders,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
}

type PlaceOrderRequest struct {
	Items       []domain.CartLine
	VoucherCode string
	Customer    domain.CustomerInfo
}

// rejection tags a refused order with the metric reason it is counted under.
type rejection struct {
	reason string
	err    error
}

func (r *rejection) Error() string { return r.err.Error() }
func (r *rejection) Unwrap() error { return r.err }

func reject(reason string, err error) error {
	return &rejection{reason: reason, err: err}
}

// PlaceOrder validates the cart against current stock, prices it, applies the voucher and
// persists the order as one unit of work. Either every effect commits (stock decrements,
// voucher use, order rows) or none does.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	order, err := s.placeOrder(ctx, req)
	if err != nil {
		reason := "error"
		var rj *rejection
		if errors.As(err, &rj) {
			reason = rj.reason
			err = rj.err
		}
		rejectedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		if reason != "error" {
			s.logger.Info("order rejected", "reason", reason, "message", domain.Message(err))
		}
		return nil, err
	}

	placedCounter.Add(ctx, 1)
	s.logger.Info("order placed", "order_id", order.ID, "reference", order.Reference,
		"total_amount", order.TotalAmount.String(), "items", len(order.OrderItems))

	if s.publisher != nil {
		event := domain.NewOrderPlacedEvent(order)
		if err := s.publisher.Publish(ctx, order.Reference, event); err != nil {
			s.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	return order, nil
}

func (s *Service) placeOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, reject("invalid_line", err)
	}
	if len(lines) == 0 {
		return nil, reject("empty_cart", domain.Invalid("Giỏ hàng trống"))
	}

	now := s.now()
	c := req.Customer
	order := &domain.Order{
		Reference:       newReference(),
		UserID:          c.UserID,
		CustomerName:    c.CustomerName,
		CustomerEmail:   c.CustomerEmail,
		CustomerPhone:   c.CustomerPhone,
		ShippingAddress: c.ShippingAddress,
		Notes:           c.Notes,
		OrderDate:       now,
		Status:          domain.OrderStatusPending,
		PaymentMethod:   c.PaymentMethod,
		IsPaid:          c.IsPaid,
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = "COD"
	}
	if order.IsPaid {
		order.PaidDate = &now
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		ids := make([]int64, len(lines))
		for i, line := range lines {
			ids[i] = line.BeverageID
		}
		slices.Sort(ids)

		locked, err := s.beverages.LockForOrder(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock beverages: %w", err)
		}

		// Every line is checked before anything is written.
		for _, line := range lines {
			b := locked[line.BeverageID]
			if b == nil {
				return reject("not_found", domain.Invalid(fmt.Sprintf("Không tìm thấy đồ uống ID %d", line.BeverageID)))
			}
			if b.Stock < line.Quantity {
				return reject("insufficient_stock", domain.Invalid(fmt.Sprintf("Không đủ hàng cho %s", b.Name)))
			}
		}

		order.OrderItems = make([]domain.OrderItem, 0, len(lines))
		for _, line := range lines {
			b := locked[line.BeverageID]
			if err := s.beverages.DecrementStock(ctx, b.ID, line.Quantity); err != nil {
				if errors.Is(err, catalog.ErrInsufficientStock) {
					return reject("insufficient_stock", domain.Invalid(fmt.Sprintf("Không đủ hàng cho %s", b.Name)))
				}
				return fmt.Errorf("decrement stock of beverage %d: %w", b.ID, err)
			}
			b.Take(line.Quantity)

			order.OrderItems = append(order.OrderItems, domain.OrderItem{
				BeverageID:   b.ID,
				BeverageName: b.Name,
				Quantity:     line.Quantity,
				Price:        b.Price,
			})
		}

		subtotal := order.Subtotal()
		order.TotalAmount = subtotal

		if code := strings.TrimSpace(req.VoucherCode); code != "" {
			v, err := s.vouchers.GetByCodeForUpdate(ctx, code)
			if err != nil {
				return fmt.Errorf("load voucher: %w", err)
			}
			quote, err := voucher.Evaluate(v, subtotal, now)
			if err != nil {
				// An unknown code is a bad order, not a missing resource.
				return reject("voucher", domain.Invalid(domain.Message(err)))
			}
			if err := s.vouchers.IncrementUsage(ctx, v.ID); err != nil {
				var de *domain.Error
				if errors.As(err, &de) {
					return reject("voucher", err)
				}
				return fmt.Errorf("consume voucher: %w", err)
			}

			order.DiscountAmount = quote.Discount
			order.TotalAmount = quote.FinalAmount
			order.VoucherCode = &v.Code
		}

		return s.orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// maxLineQuantity matches the INTEGER quantity column of order_items.
const maxLineQuantity = math.MaxInt32

// mergeLines folds repeated beverages into one line, keeping first-seen order.
func mergeLines(items []domain.CartLine) ([]domain.CartLine, error) {
	merged := make([]domain.CartLine, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, item := range items {
		if item.BeverageID <= 0 {
			return nil, domain.Invalid(fmt.Sprintf("Không tìm thấy đồ uống ID %d", item.BeverageID))
		}
		if item.Quantity < 1 {
			return nil, domain.Invalid("Số lượng phải lớn hơn 0")
		}
		if item.Quantity > maxLineQuantity {
			return nil, domain.Invalid("Số lượng vượt quá giới hạn")
		}
		if i, ok := index[item.BeverageID]; ok {
			if merged[i].Quantity > maxLineQuantity-item.Quantity {
				return nil, domain.Invalid("Số lượng vượt quá giới hạn")
			}
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.BeverageID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func newReference() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ORD-" + strings.ToUpper(id[:8])
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.NotFound("Không tìm thấy đơn hàng")
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, userID *int64) ([]domain.Order, error) {
	return s.orders.List(ctx, userID)
}

// UpdateStatus moves an order along its lifecycle. Cancelling returns the items to stock;
// delivering an unpaid order records the payment.
func (s *Service) UpdateStatus(ctx context.Context, id int64, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, domain.Invalid("Trạng thái đơn hàng không hợp lệ")
	}

	var order *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.NotFound("Không tìm thấy đơn hàng")
		}

		if order.Status == next {
			return nil
		}
		if !order.Status.CanTransitionTo(next) {
			return domain.Invalid(fmt.Sprintf("Không thể chuyển đơn hàng từ %s sang %s", order.Status, next))
		}

		if next == domain.OrderStatusCancelled {
			for _, item := range order.OrderItems {
				if err := s.beverages.Restock(ctx, item.BeverageID, item.Quantity); err != nil {
					return fmt.Errorf("restock beverage %d: %w", item.BeverageID, err)
				}
			}
		}

		previous := order.Status
		order.Status = next
		if next == domain.OrderStatusDelivered && !order.IsPaid {
			now := s.now()
			order.IsPaid = true
			order.PaidDate = &now
		}

		if err := s.orders.UpdateStatus(ctx, order); err != nil {
			return err
		}
		s.logger.Info("order status updated", "order_id", order.ID, "from", previous, "to", next)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}
