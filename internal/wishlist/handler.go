// Package wishlist keeps the beverages each customer has saved for later.
package wishlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/beverageshop/internal/auth"
	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/httpx"
)

var errItemNotFound = domain.NotFound("Item not found in wishlist")

type Store interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.WishlistItem, error)
	GetByID(ctx context.Context, id int64) (*domain.WishlistItem, error)
	Add(ctx context.Context, item *domain.WishlistItem) error
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteByPair(ctx context.Context, userID, beverageID int64) (bool, error)
	Contains(ctx context.Context, userID, beverageID int64) (bool, error)
}

type BeverageLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Beverage, error)
}

type Handler struct {
	items     Store
	beverages BeverageLookup
	logger    *slog.Logger
}

func NewHandler(items Store, beverages BeverageLookup, logger *slog.Logger) *Handler {
	return &Handler{
		items:     items,
		beverages: beverages,
		logger:    logger,
	}
}

// ownerFromPath reads the {userId} path value and checks the caller may act for that user.
func ownerFromPath(r *http.Request) (int64, error) {
	userID, err := httpx.PathID(r, "userId")
	if err != nil {
		return 0, err
	}
	if err := auth.RequireSelfOrAdmin(auth.FromContext(r.Context()), userID); err != nil {
		return 0, err
	}
	return userID, nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerFromPath(r)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	items, err := h.items.ListByUser(r.Context(), userID)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, items)
}

type addRequest struct {
	UserID     int64 `json:"userId" validate:"gt=0"`
	BeverageID int64 `json:"beverageId" validate:"gt=0"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if err := auth.RequireSelfOrAdmin(auth.FromContext(r.Context()), req.UserID); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	b, err := h.beverages.GetByID(r.Context(), req.BeverageID)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if b == nil {
		httpx.WriteMessage(h.logger, w, http.StatusNotFound, "Không tìm thấy đồ uống")
		return
	}

	item := &domain.WishlistItem{UserID: req.UserID, BeverageID: req.BeverageID}
	if err := h.items.Add(r.Context(), item); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	item.Beverage = b

	h.logger.Info("wishlist item added", "user_id", item.UserID, "beverage_id", item.BeverageID)
	httpx.WriteJSON(h.logger, w, http.StatusCreated, item)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	item, err := h.items.GetByID(r.Context(), id)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if item == nil {
		httpx.WriteError(h.logger, w, r, errItemNotFound)
		return
	}
	if err := auth.RequireSelfOrAdmin(auth.FromContext(r.Context()), item.UserID); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	if _, err := h.items.Delete(r.Context(), id); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDeleteByPair(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerFromPath(r)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	beverageID, err := httpx.PathID(r, "beverageId")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	removed, err := h.items.DeleteByPair(r.Context(), userID, beverageID)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if !removed {
		httpx.WriteError(h.logger, w, r, errItemNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerFromPath(r)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	beverageID, err := httpx.PathID(r, "beverageId")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	exists, err := h.items.Contains(r.Context(), userID, beverageID)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, exists)
}
