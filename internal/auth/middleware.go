package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/httpx"
)

// UserLookup loads the current state of an account; nil means it no longer exists.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type Authenticator struct {
	tokens  *TokenIssuer
	revoker Revoker
	users   UserLookup
	logger  *slog.Logger
}

// NewAuthenticator builds the request authenticator. revoker may be nil, in which case
// logout cannot invalidate tokens before they expire.
func NewAuthenticator(tokens *TokenIssuer, revoker Revoker, users UserLookup, logger *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, revoker: revoker, users: users, logger: logger}
}

// Optional attaches the caller to the request context when a valid token is presented and
// otherwise lets the request through anonymously.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bearer(r) == "" {
			next.ServeHTTP(w, r)
			return
		}
		p, err := a.Authenticate(r)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthorized) {
				a.logger.Error("failed to authenticate request", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireUser rejects anonymous requests with 401. A caller already resolved by Optional
// is not looked up again.
func (a *Authenticator) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) != nil {
			next(w, r)
			return
		}
		p, err := a.Authenticate(r)
		if err != nil {
			httpx.WriteError(a.logger, w, r, err)
			return
		}
		next(w, r.WithContext(WithPrincipal(r.Context(), p)))
	}
}

// RequireAdmin rejects anonymous callers with 401 and non-admins with 403.
func (a *Authenticator) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return a.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		if err := RequireAdmin(FromContext(r.Context())); err != nil {
			a.logger.Warn("admin operation refused", "path", r.URL.Path, "user_id", FromContext(r.Context()).UserID)
			httpx.WriteError(a.logger, w, r, err)
			return
		}
		next(w, r)
	})
}

// Authenticate resolves the caller of r. The role is re-read from the database so a
// demotion or deactivation takes effect immediately rather than at token expiry.
func (a *Authenticator) Authenticate(r *http.Request) (*Principal, error) {
	raw := bearer(r)
	if raw == "" {
		return nil, domain.Unauthorized("Missing token")
	}

	p, err := a.tokens.Parse(raw)
	if err != nil {
		return nil, domain.Unauthorized("Invalid token")
	}

	if a.revoker != nil {
		revoked, err := a.revoker.IsRevoked(r.Context(), p.TokenID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, domain.Unauthorized("Invalid token")
		}
	}

	user, err := a.users.GetByID(r.Context(), p.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, domain.Unauthorized("Tài khoản đã bị khóa")
	}
	p.Role = user.Role
	p.Username = user.Username
	return p, nil
}

// Revoke invalidates the token carried by p for the rest of its lifetime.
func (a *Authenticator) Revoke(ctx context.Context, p *Principal) error {
	if a.revoker == nil || p == nil || p.TokenID == "" {
		return nil
	}
	return a.revoker.Revoke(ctx, p.TokenID, time.Until(p.ExpiresAt))
}

func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie("access_token"); err == nil {
		return c.Value
	}
	return ""
}
