package auth

import (
	"context"
	"time"

	"github.com/joao-fontenele/beverageshop/internal/domain"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    int64
	Username  string
	Role      domain.Role
	TokenID   string
	ExpiresAt time.Time
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == domain.RoleAdmin
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the caller, or nil for anonymous requests.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

func RequireUser(p *Principal) error {
	if p == nil {
		return domain.Unauthorized("Vui lòng đăng nhập")
	}
	return nil
}

// RequireAdmin is the single authorization check for admin-only operations.
func RequireAdmin(p *Principal) error {
	if err := RequireUser(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return domain.Forbidden("Chỉ quản trị viên mới được thực hiện thao tác này")
	}
	return nil
}

// RequireSelfOrAdmin allows the owner of userID, or any admin.
func RequireSelfOrAdmin(p *Principal, userID int64) error {
	if err := RequireUser(p); err != nil {
		return err
	}
	if p.UserID != userID && !p.IsAdmin() {
		return domain.Forbidden("Không có quyền truy cập dữ liệu của người dùng khác")
	}
	return nil
}
