package admin

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/store"
)

// OrderTotals summarises the orders table.
type OrderTotals struct {
	Total    int
	Revenue  decimal.Decimal
	Pending  int
	ByStatus map[string]int
}

type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// OrderTotals counts orders per status in one pass. Revenue only includes delivered orders.
func (r *StatsRepository) OrderTotals(ctx context.Context) (OrderTotals, error) {
	totals := OrderTotals{Revenue: decimal.Zero, ByStatus: map[string]int{}}

	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		GROUP BY status
	`)
	if err != nil {
		return totals, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			status string
			count  int
			sum    decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return totals, err
		}

		totals.Total += count
		totals.ByStatus[status] = count
		switch domain.OrderStatus(status) {
		case domain.OrderStatusDelivered:
			totals.Revenue = totals.Revenue.Add(sum)
		case domain.OrderStatusPending:
			totals.Pending = count
		}
	}

	return totals, rows.Err()
}
