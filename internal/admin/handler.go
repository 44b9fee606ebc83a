// Package admin serves the back-office views: the dashboard and the stock alerts.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/httpx"
)

const recentOrderCount = 10

type StatsStore interface {
	CountUsers(ctx context.Context) (int, error)
	OrderTotals(ctx context.Context) (OrderTotals, error)
}

type BeverageStats interface {
	Count(ctx context.Context) (int, error)
	CountLowStock(ctx context.Context, threshold int) (int, error)
	LowStock(ctx context.Context, threshold int) ([]domain.Beverage, error)
	OutOfStock(ctx context.Context) ([]domain.Beverage, error)
}

type RecentOrders interface {
	Recent(ctx context.Context, limit int) ([]domain.Order, error)
}

type Handler struct {
	stats     StatsStore
	beverages BeverageStats
	orders    RecentOrders
	threshold int
	logger    *slog.Logger
}

// NewHandler builds the admin handler. Beverages with 0 < stock <= threshold count as low
// on stock.
func NewHandler(stats StatsStore, beverages BeverageStats, orders RecentOrders, threshold int, logger *slog.Logger) *Handler {
	return &Handler{
		stats:     stats,
		beverages: beverages,
		orders:    orders,
		threshold: threshold,
		logger:    logger,
	}
}

type Dashboard struct {
	TotalUsers     int             `json:"totalUsers"`
	TotalOrders    int             `json:"totalOrders"`
	TotalBeverages int             `json:"totalBeverages"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	PendingOrders  int             `json:"pendingOrders"`
	LowStockItems  int             `json:"lowStockItems"`
	RecentOrders   []domain.Order  `json:"recentOrders"`
	OrdersByStatus map[string]int  `json:"ordersByStatus"`
}

func (h *Handler) dashboard(ctx context.Context) (*Dashboard, error) {
	users, err := h.stats.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	beverages, err := h.beverages.Count(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := h.beverages.CountLowStock(ctx, h.threshold)
	if err != nil {
		return nil, err
	}
	totals, err := h.stats.OrderTotals(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := h.orders.Recent(ctx, recentOrderCount)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalUsers:     users,
		TotalOrders:    totals.Total,
		TotalBeverages: beverages,
		TotalRevenue:   totals.Revenue,
		PendingOrders:  totals.Pending,
		LowStockItems:  lowStock,
		RecentOrders:   recent,
		OrdersByStatus: totals.ByStatus,
	}, nil
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard(r.Context())
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, d)
}

func (h *Handler) HandleLowStock(w http.ResponseWriter, r *http.Request) {
	beverages, err := h.beverages.LowStock(r.Context(), h.threshold)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, beverages)
}

func (h *Handler) HandleOutOfStock(w http.ResponseWriter, r *http.Request) {
	beverages, err := h.beverages.OutOfStock(r.Context())
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, beverages)
}
