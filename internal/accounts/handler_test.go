package accounts

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joao-fontenele/beverageshop/internal/auth"
	"github.com/joao-fontenele/beverageshop/internal/domain"
)

type recordingRevoker struct {
	revoked []string
}

func (r *recordingRevoker) Revoke(_ context.Context, p *auth.Principal) error {
	r.revoked = append(r.revoked, p.TokenID)
	return nil
}

func newTestMux(s *fakeStore, revoker TokenRevoker) *http.ServeMux {
	h := NewHandler(newTestService(s), revoker, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", h.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", h.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", h.HandleLogout)
	mux.HandleFunc("GET /api/admin/users", h.HandleListUsers)
	mux.HandleFunc("PUT /api/admin/users/{id}/role", h.HandleUpdateRole)
	mux.HandleFunc("PUT /api/admin/users/{id}/toggle-status", h.HandleToggleStatus)
	mux.HandleFunc("PUT /api/admin/users/{id}", h.HandleUpdateUser)
	mux.HandleFunc("DELETE /api/admin/users/{id}", h.HandleDeleteUser)
	return mux
}

func do(mux http.Handler, p *auth.Principal, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleRegisterAndLogin(t *testing.T) {
	mux := newTestMux(newFakeStore(seedUsers()...), nil)

	rec := do(mux, nil, http.MethodPost, "/api/auth/register",
		`{"username": "bob", "password": "secret", "email": "bob@example.com", "fullName": "Bob"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "passwordHash") || strings.Contains(rec.Body.String(), "$2a$") {
		t.Errorf("response leaks credentials: %s", rec.Body.String())
	}

	var resp struct {
		Success bool        `json:"success"`
		Message string      `json:"message"`
		User    domain.User `json:"user"`
		Token   string      `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Message != "Đăng ký thành công" || resp.User.Username != "bob" || resp.Token == "" {
		t.Errorf("unexpected response %+v", resp)
	}

	rec = do(mux, nil, http.MethodPost, "/api/auth/login", `{"username": "bob", "password": "secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(mux, nil, http.MethodPost, "/api/auth/login", `{"username": "bob", "password": "nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	resp.Success = true
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success || resp.Message != "Tên đăng nhập hoặc mật khẩu không đúng" {
		t.Errorf("unexpected failure envelope %+v", resp)
	}
}

func TestHandleLogout(t *testing.T) {
	revoker := &recordingRevoker{}
	mux := newTestMux(newFakeStore(seedUsers()...), revoker)

	rec := do(mux, nil, http.MethodPost, "/api/auth/logout", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for anonymous logout, got %d", rec.Code)
	}

	p := &auth.Principal{UserID: 3, Username: "alice", Role: domain.RoleCustomer, TokenID: "jti-1"}
	rec = do(mux, p, http.MethodPost, "/api/auth/logout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if len(revoker.revoked) != 1 || revoker.revoked[0] != "jti-1" {
		t.Errorf("expected token jti-1 to be revoked, got %v", revoker.revoked)
	}
}

func TestHandleAdminUsers(t *testing.T) {
	s := newFakeStore(seedUsers()...)
	mux := newTestMux(s, nil)

	t.Run("list hides password hashes", func(t *testing.T) {
		rec := do(mux, nil, http.MethodGet, "/api/admin/users", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), legacyAdminHash) {
			t.Error("password hash serialized")
		}
	})

	t.Run("toggle reports the new state", func(t *testing.T) {
		rec := do(mux, nil, http.MethodPut, "/api/admin/users/3/toggle-status", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body["isActive"] != false || body["message"] != "Cập nhật trạng thái thành công" {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("role accepts ordinal", func(t *testing.T) {
		rec := do(mux, nil, http.MethodPut, "/api/admin/users/3/role", `{"role": 1}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if s.users[3].Role != domain.RoleAdmin {
			t.Errorf("expected Admin, got %s", s.users[3].Role)
		}
	})

	t.Run("protected delete", func(t *testing.T) {
		rec := do(mux, nil, http.MethodDelete, "/api/admin/users/1", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Không thể xóa tài khoản hệ thống!") {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("update unknown user", func(t *testing.T) {
		rec := do(mux, nil, http.MethodPut, "/api/admin/users/99", `{"role": "Customer", "isActive": true}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}
