package voucher

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/httpx"
)

type Handler struct {
	service *Service
	repo    Store
	logger  *slog.Logger
}

func NewHandler(service *Service, repo Store, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		logger:  logger,
	}
}

type voucherRequest struct {
	ID                    int64               `json:"id"`
	Code                  string              `json:"code" validate:"required,max=50"`
	Name                  string              `json:"name" validate:"required,max=200"`
	Description           string              `json:"description" validate:"max=500"`
	Type                  domain.DiscountType `json:"type" validate:"required"`
	Value                 decimal.Decimal     `json:"value"`
	MaxDiscountAmount     decimal.Decimal     `json:"maxDiscountAmount"`
	MinimumOrderAmount    decimal.Decimal     `json:"minimumOrderAmount"`
	MaxUsageCount         int                 `json:"maxUsageCount" validate:"gte=0,lte=2147483647"`
	UsedCount             int                 `json:"usedCount" validate:"gte=0,lte=2147483647"`
	StartDate             time.Time           `json:"startDate" validate:"required"`
	EndDate               time.Time           `json:"endDate" validate:"required"`
	IsActive              bool                `json:"isActive"`
	ApplicableBeverageIDs *string             `json:"applicableBeverageIds"`
}

func (req *voucherRequest) check() error {
	if !req.Type.Valid() {
		return domain.Invalid("invalid field type")
	}
	if !req.Value.IsPositive() {
		return domain.Invalid("invalid field value: must be positive")
	}
	if req.Type == domain.DiscountPercentage && req.Value.GreaterThan(hundred) {
		return domain.Invalid("invalid field value: percentage above 100")
	}
	if req.MaxDiscountAmount.IsNegative() || req.MinimumOrderAmount.IsNegative() {
		return domain.Invalid("invalid amount: must not be negative")
	}
	if req.EndDate.Before(req.StartDate) {
		return domain.Invalid("invalid field endDate: before startDate")
	}
	if req.MaxUsageCount > 0 && req.UsedCount > req.MaxUsageCount {
		return domain.Invalid("invalid field maxUsageCount: below usedCount")
	}
	return nil
}

func (h *Handler) decodeVoucher(r *http.Request) (*domain.Voucher, error) {
	var req voucherRequest
	if err := httpx.Decode(r, &req); err != nil {
		return nil, err
	}
	if err := req.check(); err != nil {
		return nil, err
	}

	v := &domain.Voucher{}
	if err := copier.Copy(v, &req); err != nil {
		return nil, err
	}
	v.Code = strings.TrimSpace(v.Code)
	return v, nil
}

func (h *Handler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.repo.ListActive(r.Context())
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, vouchers)
}

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.repo.ListAll(r.Context())
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, vouchers)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	v, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if v == nil {
		httpx.WriteMessage(h.logger, w, http.StatusNotFound, "Không tìm thấy voucher")
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, v)
}

func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	amount, err := httpx.QueryDecimal(r, "orderAmount")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if amount == nil {
		amount = &decimal.Zero
	}

	quote, err := h.service.Validate(r.Context(), code, *amount)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, quote)
}

func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	code, err := decodeCode(r.Body)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	if _, err := h.service.Apply(r.Context(), code); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteMessage(h.logger, w, http.StatusOK, "Voucher applied successfully")
}

// decodeCode accepts either a bare JSON string or {"code": "..."}.
func decodeCode(body io.Reader) (string, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return "", domain.Invalid("invalid request body")
	}

	var code string
	if err := json.Unmarshal(raw, &code); err != nil {
		var obj struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", domain.Invalid("invalid request body")
		}
		code = obj.Code
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return "", domain.Invalid("Vui lòng nhập mã voucher")
	}
	return code, nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	v, err := h.decodeVoucher(r)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	if err := h.repo.Create(r.Context(), v); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	h.logger.Info("voucher created", "voucher_id", v.ID, "code", v.Code)
	httpx.WriteJSON(h.logger, w, http.StatusCreated, v)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	v, err := h.decodeVoucher(r)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if v.ID != id {
		httpx.WriteMessage(h.logger, w, http.StatusBadRequest, "ID không khớp")
		return
	}

	found, err := h.repo.Update(r.Context(), v)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	if !found {
		httpx.WriteMessage(h.logger, w, http.StatusNotFound, "Không tìm thấy voucher")
		return
	}

	h.logger.Info("voucher updated", "voucher_id", v.ID)
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
		httpx.WriteMessage(h.logger, w, http.StatusNotFound, "Không tìm thấy voucher")
		return
	}

	h.logger.Info("voucher deleted", "voucher_id", id)
	w.WriteHeader(http.StatusNoContent)
}
