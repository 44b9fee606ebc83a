package accounts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jinzhu/copier"

	"github.com/joao-fontenele/beverageshop/internal/auth"
	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/httpx"
)

// TokenRevoker invalidates the token a principal authenticated with.
type TokenRevoker interface {
	Revoke(ctx context.Context, p *auth.Principal) error
}

type Handler struct {
	service *Service
	revoker TokenRevoker
	logger  *slog.Logger
}

func NewHandler(service *Service, revoker TokenRevoker, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		revoker: revoker,
		logger:  logger,
	}
}

type authResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *domain.User `json:"user,omitempty"`
	Token   string       `json:"token,omitempty"`
}

// writeAuthError answers register and login failures in the same envelope as successes.
func (h *Handler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, httpx.StatusFor(err), authResponse{Message: de.Message})
}

type registerRequest struct {
	Username string `json:"username" validate:"max=100"`
	Password string `json:"password" validate:"max=200"`
	Email    string `json:"email" validate:"omitempty,email,max=200"`
	FullName string `json:"fullName" validate:"max=200"`
	Phone    string `json:"phone" validate:"max=30"`
	Address  string `json:"address"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.Decode(r, &req); err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	var reg Registration
	if err := copier.Copy(&reg, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	user, token, err := h.service.Register(r.Context(), reg)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	httpx.WriteJSON(h.logger, w, http.StatusOK, authResponse{
		Success: true,
		Message: "Đăng ký thành công",
		User:    user,
		Token:   token,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	httpx.WriteJSON(h.logger, w, http.StatusOK, authResponse{
		Success: true,
		Message: "Đăng nhập thành công",
		User:    user,
		Token:   token,
	})
}

// HandleLogout revokes the caller's token. Without a revocation store the token simply
// runs until it expires.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	p := auth.FromContext(r.Context())
	if err := auth.RequireUser(p); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	if h.revoker != nil {
		if err := h.revoker.Revoke(r.Context(), p); err != nil {
			httpx.WriteError(h.logger, w, r, err)
			return
		}
	}

	h.logger.Info("user logged out", "user_id", p.UserID)
	httpx.WriteJSON(h.logger, w, http.StatusOK, authResponse{Success: true, Message: "Đăng xuất thành công"})
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}
	httpx.WriteJSON(h.logger, w, http.StatusOK, users)
}

type updateRoleRequest struct {
	Role domain.Role `json:"role"`
}

func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	var req updateRoleRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	if _, err := h.service.UpdateRole(r.Context(), id, req.Role); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	httpx.WriteMessage(h.logger, w, http.StatusOK, "Cập nhật quyền thành công")
}

func (h *Handler) HandleToggleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	user, err := h.service.ToggleStatus(r.Context(), id)
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	httpx.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
		"message":  "Cập nhật trạng thái thành công",
		"isActive": user.IsActive,
	})
}

type updateUserRequest struct {
	Email    string      `json:"email" validate:"omitempty,email,max=200"`
	FullName string      `json:"fullName" validate:"max=200"`
	Phone    string      `json:"phone" validate:"max=30"`
	Address  string      `json:"address"`
	Role     domain.Role `json:"role"`
	IsActive bool        `json:"isActive"`
}

func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	var req updateUserRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	var profile Profile
	if err := copier.Copy(&profile, &req); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	if _, err := h.service.UpdateProfile(r.Context(), id, profile); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	httpx.WriteMessage(h.logger, w, http.StatusOK, "Cập nhật người dùng thành công")
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.WriteError(h.logger, w, r, err)
		return
	}

	httpx.WriteMessage(h.logger, w, http.StatusOK, "Xóa người dùng thành công")
}
