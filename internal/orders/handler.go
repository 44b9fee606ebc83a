package orders

import (
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/beverageshop/internal/auth"
	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type createOrderRequest struct {
	UserID          *int64            `json:"userId"`
	CustomerName    string            `json:"customerName" validate:"required,max=200"`
	CustomerEmail   string            `json:"customerEmail" validate:"omitempty,email,max=200"`
	CustomerPhone   string            `json:"customerPhone" validate:"max=30"`
	ShippingAddress string            `json:"shippingAddress" validate:"max=500"`
	Notes           *string           `json:"notes"`
	PaymentMethod   string            `json:"paymentMethod" validate:"max=50"`
	VoucherCode     string            `json:"voucherCode" validate:"max=50"`
	IsPaid          bool              `json:"isPaid"`
	Items           []domain.CartLine `json:"items" validate:"dive"`
	OrderItems      []domain.CartLine `json:"orderItems" validate:"dive"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	// Storefront clients send orderItems; newer clients send items.
	lines := append(req.OrderItems, req.Items...)

	// Only an admin may place an order on behalf of another account.
	var userID *int64
	if p := auth.FromContext(r.Context()); p != nil {
		userID = &p.UserID
		if p.IsAdmin() && req.UserID != nil {
			userID = req.UserID
		}
	}

	order, err := h.service.PlaceOrder(r.Context(), PlaceOrderRequest{
		Items:       lines,
		VoucherCode: req.VoucherCode,
		Customer: domain.CustomerInfo{
			UserID:          userID,
			CustomerName:    req.CustomerName,
			CustomerEmail:   req.CustomerEmail,
			CustomerPhone:   req.CustomerPhone,
			ShippingAddress: req.ShippingAddress,
			Notes:           req.Notes,
			PaymentMethod:   req.PaymentMethod,
			IsPaid:          req.IsPaid,
		},
	})
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	httpx.WriteJSON(h.logger, w, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	p := auth.FromContext(r.Context())
	if err := auth.RequireUser(p); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	if !p.IsAdmin() && (order.UserID == nil || *order.UserID != p.UserID) {
		// Someone else's order is reported as missing rather than forbidden.
		httpx.WriteMessage(h.logger, w, http.StatusNotFound, "Không tìm thấy đơn hàng")
		return
	}

	httpx.WriteJSON(h.logger, w, http.StatusOK, order)
}

// HandleList returns every order to admins (optionally filtered by ?userId=) and only
// their own orders to customers.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.QueryID(r, "userId")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	p := auth.FromContext(r.Context())
	if err := auth.RequireUser(p); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if !p.IsAdmin() {
		if userID != nil && *userID != p.UserID {
			httpx.WriteError(h.logger, w, r, auth.RequireSelfOrAdmin(p, *userID))
			return
		}
		userID = &p.UserID
	}

	orders, err := h.service.List(r.Context(), userID)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	httpx.WriteJSON(h.logger, w, http.StatusOK, orders)
}

func (h *Handler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.PathID(r, "userId")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if err := auth.RequireSelfOrAdmin(auth.FromContext(r.Context()), userID); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	orders, err := h.service.List(r.Context(), &userID)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	var req updateStatusRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	httpx.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
		"message": "Cập nhật trạng thái thành công",
		"status":  order.Status,
		"isPaid":  order.IsPaid,
	})
}
