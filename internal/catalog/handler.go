package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gosimple/slug"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/httpx"
)

const notFoundMessage = "Không tìm thấy đồ uống"

type Store interface {
	GetByID(ctx context.Context, id int64) (*domain.Beverage, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Beverage, error)
	List(ctx context.Context, f domain.BeverageFilter) ([]domain.Beverage, error)
	Create(ctx context.Context, b *domain.Beverage) error
	Update(ctx context.Context, b *domain.Beverage) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Brands(ctx context.Context) ([]string, error)
	BrandsWithCount(ctx context.Context) ([]domain.BrandSummary, error)
	RenameBrand(ctx context.Context, oldName, newName string) (int64, error)
	AssignBrand(ctx context.Context, ids []int64, brand string) (int64, error)
}

type Handler struct {
	repo   Store
	logger *slog.Logger
}

func NewHandler(repo Store, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

type beverageRequest struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name" validate:"required,max=200"`
	Type        string          `json:"type" validate:"max=100"`
	Category    string          `json:"category" validate:"max=100"`
	Brand       string          `json:"brand" validate:"max=100"`
	Price       decimal.Decimal `json:"price"`
	Size        string          `json:"size" validate:"max=10"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Images      []string        `json:"images" validate:"dive,max=500"`
	Stock       int             `json:"stock" validate:"gte=0,lte=2147483647"`
	Available   *bool           `json:"isAvailable"`
}

func (h *Handler) decodeBeverage(r *http.Request) (*domain.Beverage, error) {
	var req beverageRequest
	if err := httpx.Decode(r, &req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, domain.Invalid("invalid field price: must not be negative")
	}

	b := &domain.Beverage{}
	if err := copier.Copy(b, &req); err != nil {
		return nil, err
	}
	b.Name = strings.TrimSpace(b.Name)
	b.Slug = slug.Make(b.Name)
	b.IsAvailable = req.Available == nil || *req.Available
	if b.Images == nil {
		b.Images = []string{}
	}
	return b, nil
}

func filterFromQuery(r *http.Request) (domain.BeverageFilter, error) {
	q := r.URL.Query()
	f := domain.BeverageFilter{
		Category:   q.Get("category"),
		Type:       q.Get("type"),
		Brand:      q.Get("brand"),
		Size:       q.Get("size"),
		Keyword:    strings.TrimSpace(q.Get("keyword")),
		SortBy:     domain.BeverageSort(strings.ToLower(q.Get("sortBy"))),
		Descending: strings.EqualFold(q.Get("order"), "desc"),
	}

	var err error
	if f.MinPrice, err = httpx.QueryDecimal(r, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = httpx.QueryDecimal(r, "maxPrice"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	beverages, err := h.repo.List(r.Context(), f)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, beverages)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	f := domain.BeverageFilter{Keyword: strings.TrimSpace(r.URL.Query().Get("keyword"))}
	beverages, err := h.repo.List(r.Context(), f)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, beverages)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	b, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if b == nil {
		httpx.WriteMessage(h.logger, w, http.StatusNotFound, notFoundMessage)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, b)
}

func (h *Handler) HandleGetBySlug(w http.ResponseWriter, r *http.Request) {
	b, err := h.repo.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if b == nil {
		httpx.WriteMessage(h.logger, w, http.StatusNotFound, notFoundMessage)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, b)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	b, err := h.decodeBeverage(r)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	if err := h.repo.Create(r.Context(), b); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	h.logger.Info("beverage created", "beverage_id", b.ID, "slug", b.Slug)
	httpx.WriteJSON(h.logger, w, http.StatusCreated, b)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	b, err := h.decodeBeverage(r)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if b.ID != id {
		httpx.WriteMessage(h.logger, w, http.StatusBadRequest, "ID không khớp")
		return
	}

	found, err := h.repo.Update(r.Context(), b)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if !found {
		httpx.WriteMessage(h.logger, w, http.StatusNotFound, notFoundMessage)
		return
	}

	h.logger.Info("beverage updated", "beverage_id", b.ID, "stock", b.Stock, "is_available", b.IsAvailable)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	found, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if !found {
		httpx.WriteMessage(h.logger, w, http.StatusNotFound, notFoundMessage)
		return
	}

	h.logger.Info("beverage deleted", "beverage_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.Categories(r.Context())
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, categories)
}
