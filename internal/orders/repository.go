package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/store"
)

const orderColumns = `
	id, reference, user_id, customer_name, customer_email, customer_phone, shipping_address, notes,
	total_amount, discount_amount, voucher_code, order_date, status, payment_method, is_paid, paid_date`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	o := &domain.Order{}
	var (
		userID   sql.NullInt64
		paidDate sql.NullTime
	)
	err := row.Scan(&o.ID, &o.Reference, &userID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.ShippingAddress, &o.Notes, &o.TotalAmount, &o.DiscountAmount, &o.VoucherCode, &o.OrderDate,
		&o.Status, &o.PaymentMethod, &o.IsPaid, &paidDate)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		o.UserID = &userID.Int64
	}
	if paidDate.Valid {
		o.PaidDate = &paidDate.Time
	}
	return o, nil
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	conn := store.Conn(ctx, r.db)

	err := conn.QueryRowContext(ctx, `
		INSERT INTO orders (reference, user_id, customer_name, customer_email, customer_phone, shipping_address,
			notes, total_amount, discount_amount, voucher_code, order_date, status, payment_method, is_paid, paid_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, order.Reference, order.UserID, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.ShippingAddress, order.Notes, order.TotalAmount, order.DiscountAmount, order.VoucherCode,
		order.OrderDate, order.Status, order.PaymentMethod, order.IsPaid, order.PaidDate,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.OrderItems {
		item := &order.OrderItems[i]
		item.OrderID = order.ID
		err = conn.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, beverage_id, beverage_name, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, item.OrderID, item.BeverageID, item.BeverageName, item.Quantity, item.Price).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetByIDForUpdate locks the order row until the surrounding transaction ends.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepository) get(ctx context.Context, query string, id int64) (*domain.Order, error) {
	conn := store.Conn(ctx, r.db)

	order, err := scanOrder(conn.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT id, order_id, beverage_id, beverage_name, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	order.OrderItems = []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.BeverageID, &item.BeverageName, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		order.OrderItems = append(order.OrderItems, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// List returns orders newest first, optionally only those of userID, with their items.
func (r *OrderRepository) List(ctx context.Context, userID *int64) ([]domain.Order, error) {
	if userID != nil {
		return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY order_date DESC, id DESC`, *userID)
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY order_date DESC, id DESC`)
}

func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY order_date DESC, id DESC LIMIT $1`, limit)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	conn := store.Conn(ctx, r.db)

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[int64]*domain.Order)
	var orderIDs []int64

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		order.OrderItems = []domain.OrderItem{}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := conn.QueryContext(ctx, `
		SELECT id, order_id, beverage_id, beverage_name, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.BeverageID, &item.BeverageName, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		order := orderMap[item.OrderID]
		order.OrderItems = append(order.OrderItems, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// UpdateStatus persists the status and payment fields of order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	result, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE orders SET status = $2, is_paid = $3, paid_date = $4
		WHERE id = $1
	`, order.ID, order.Status, order.IsPaid, order.PaidDate)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("update order %d: no rows affected", order.ID)
	}

	return nil
}
