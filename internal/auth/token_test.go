package auth

import (
	"testing"
	"time"

	"github.com/joao-fontenele/beverageshop/internal/domain"
)

func TestTokenIssuer(t *testing.T) {
	user := &domain.User{ID: 42, Username: "lan", Role: domain.RoleCustomer}

	t.Run("round trip", func(t *testing.T) {
		issuer := NewTokenIssuer("secret", time.Hour)
		token, err := issuer.Issue(user)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}

		p, err := issuer.Parse(token)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if p.UserID != 42 || p.Username != "lan" || p.Role != domain.RoleCustomer {
			t.Errorf("principal = %+v", p)
		}
		if p.TokenID == "" {
			t.Error("expected token id")
		}
		if time.Until(p.ExpiresAt) <= 0 {
			t.Errorf("ExpiresAt = %v, want future", p.ExpiresAt)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenIssuer("secret", time.Hour).Issue(user)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		if _, err := NewTokenIssuer("other", time.Hour).Parse(token); err == nil {
			t.Error("expected error for token signed with another secret")
		}
	})

	t.Run("expired", func(t *testing.T) {
		issuer := NewTokenIssuer("secret", time.Minute)
		issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := issuer.Issue(user)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		if _, err := NewTokenIssuer("secret", time.Minute).Parse(token); err == nil {
			t.Error("expected error for expired token")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := NewTokenIssuer("secret", time.Hour).Parse("not-a-token"); err == nil {
			t.Error("expected error")
		}
	})
}
