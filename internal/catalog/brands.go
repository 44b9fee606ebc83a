package catalog

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/joao-fontenele/beverageshop/internal/httpx"
)

const emptyBrandMessage = "Tên brand không được để trống"

func (h *Handler) HandleBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.repo.Brands(r.Context())
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, brands)
}

func (h *Handler) HandleBrandsWithCount(w http.ResponseWriter, r *http.Request) {
	brands, err := h.repo.BrandsWithCount(r.Context())
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, brands)
}

type renameBrandRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

func (h *Handler) HandleRenameBrand(w http.ResponseWriter, r *http.Request) {
	var req renameBrandRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	oldName, newName := strings.TrimSpace(req.OldName), strings.TrimSpace(req.NewName)
	if oldName == "" || newName == "" {
		httpx.WriteMessage(h.logger, w, http.StatusBadRequest, emptyBrandMessage)
		return
	}

	n, err := h.repo.RenameBrand(r.Context(), oldName, newName)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if n == 0 {
		httpx.WriteMessage(h.logger, w, http.StatusNotFound, fmt.Sprintf("Không tìm thấy brand '%s'", oldName))
		return
	}

	h.logger.Info("brand renamed", "from", oldName, "to", newName, "count", n)
	httpx.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Đã đổi tên brand từ '%s' sang '%s'", oldName, newName),
		"count":   n,
	})
}

func (h *Handler) HandleDeleteBrand(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		httpx.WriteMessage(h.logger, w, http.StatusBadRequest, emptyBrandMessage)
		return
	}

	n, err := h.repo.RenameBrand(r.Context(), name, "")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if n == 0 {
		httpx.WriteMessage(h.logger, w, http.StatusNotFound, fmt.Sprintf("Không tìm thấy brand '%s'", name))
		return
	}

	h.logger.Info("brand removed", "brand", name, "count", n)
	httpx.WriteMessage(h.logger, w, http.StatusOK, fmt.Sprintf("Đã xóa brand '%s' khỏi %d sản phẩm", name, n))
}

type assignBrandRequest struct {
	BeverageIDs []int64 `json:"beverageIds" validate:"dive,gt=0"`
	BrandName   string  `json:"brandName"`
}

func (h *Handler) HandleAssignBrand(w http.ResponseWriter, r *http.Request) {
	var req assignBrandRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if len(req.BeverageIDs) == 0 {
		httpx.WriteMessage(h.logger, w, http.StatusBadRequest, "Danh sách sản phẩm không được để trống")
		return
	}

	brand := strings.TrimSpace(req.BrandName)
	n, err := h.repo.AssignBrand(r.Context(), req.BeverageIDs, brand)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if n == 0 {
		httpx.WriteMessage(h.logger, w, http.StatusNotFound, "Không tìm thấy sản phẩm nào")
		return
	}

	h.logger.Info("brand assigned", "brand", brand, "count", n)
	httpx.WriteMessage(h.logger, w, http.StatusOK, fmt.Sprintf("Đã gán brand '%s' cho %d sản phẩm", brand, n))
}
