package reviews

import (
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/beverageshop/internal/auth"
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

func (h *Handler) HandleListByBeverage(w http.ResponseWriter, r *http.Request) {
	beverageID, err := httpx.PathID(r, "beverageId")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	reviews, err := h.service.ListByBeverage(r.Context(), beverageID)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, reviews)
}

type createReviewRequest struct {
	BeverageID int64    `json:"beverageId" validate:"gt=0"`
	Rating     int      `json:"rating"`
	Comment    string   `json:"comment" validate:"max=2000"`
	Images     []string `json:"images" validate:"max=10,dive,url"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	rv, err := h.service.Create(r.Context(), auth.FromContext(r.Context()), NewReview{
		BeverageID: req.BeverageID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		Images:     req.Images,
	})
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	httpx.WriteJSON(h.logger, w, http.StatusCreated, rv)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), auth.FromContext(r.Context()), id); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	beverageID, err := httpx.PathID(r, "beverageId")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	stats, err := h.service.Stats(r.Context(), beverageID)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, stats)
}
