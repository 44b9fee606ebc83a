package orders

import (
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

var (
	customerOne = &auth.Principal{UserID: 2, Username: "alice", Role: domain.RoleCustomer}
	customerTwo = &auth.Principal{UserID: 3, Username: "bob", Role: domain.RoleCustomer}
	adminUser   = &auth.Principal{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
)

func newTestMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", h.HandleCreate)
	mux.HandleFunc("GET /api/orders", h.HandleList)
	mux.HandleFunc("GET /api/orders/{id}", h.HandleGet)
	mux.HandleFunc("GET /api/orders/user/{userId}", h.HandleListByUser)
	mux.HandleFunc("PUT /api/admin/orders/{id}/status", h.HandleUpdateStatus)
	return mux
}

func serve(mux http.Handler, p *auth.Principal, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func newTestHandler(m *memStore) *Handler {
	return NewHandler(newTestService(m, nil), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleCreate(t *testing.T) {
	t.Run("customer order is attached to the caller", func(t *testing.T) {
		m := newMemStore()
		mux := newTestMux(newTestHandler(m))

		rec := serve(mux, customerOne, http.MethodPost, "/api/orders", `{
			"userId": 99,
			"customerName": "Alice",
			"customerEmail": "alice@example.com",
			"voucherCode": "WELCOME10",
			"orderItems": [{"beverageId": 2, "quantity": 4}]
		}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var order domain.Order
		if err := json.Unmarshal(rec.Body.Bytes(), &order); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if order.UserID == nil || *order.UserID != customerOne.UserID {
			t.Errorf("expected userId %d, got %v", customerOne.UserID, order.UserID)
		}
		if order.TotalAmount.String() != "90000" || order.DiscountAmount.String() != "10000" {
			t.Errorf("unexpected totals %s/%s", order.TotalAmount, order.DiscountAmount)
		}
		if len(order.OrderItems) != 1 || order.OrderItems[0].Quantity != 4 {
			t.Errorf("unexpected items %+v", order.OrderItems)
		}
	})

	t.Run("admin may order for another user", func(t *testing.T) {
		m := newMemStore()
		mux := newTestMux(newTestHandler(m))

		rec := serve(mux, adminUser, http.MethodPost, "/api/orders",
			`{"userId": 3, "customerName": "Bob", "items": [{"beverageId": 1, "quantity": 1}]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var order domain.Order
		_ = json.Unmarshal(rec.Body.Bytes(), &order)
		if order.UserID == nil || *order.UserID != 3 {
			t.Errorf("expected userId 3, got %v", order.UserID)
		}
	})

	t.Run("insufficient stock names the beverage", func(t *testing.T) {
		m := newMemStore()
		mux := newTestMux(newTestHandler(m))

		rec := serve(mux, nil, http.MethodPost, "/api/orders",
			`{"customerName": "Guest", "items": [{"beverageId": 3, "quantity": 2}]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Nước Ép Cam") {
			t.Errorf("expected message to name the beverage, got %s", rec.Body.String())
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		mux := newTestMux(newTestHandler(newMemStore()))

		rec := serve(mux, nil, http.MethodPost, "/api/orders", `{"customerName": "Guest", "items": []}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Giỏ hàng trống") {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("missing customer name", func(t *testing.T) {
		mux := newTestMux(newTestHandler(newMemStore()))

		rec := serve(mux, nil, http.MethodPost, "/api/orders", `{"items": [{"beverageId": 1, "quantity": 1}]}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandleGetVisibility(t *testing.T) {
	m := newMemStore()
	mux := newTestMux(newTestHandler(m))

	rec := serve(mux, customerOne, http.MethodPost, "/api/orders",
		`{"customerName": "Alice", "items": [{"beverageId": 1, "quantity": 1}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup failed: %d %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		name       string
		principal  *auth.Principal
		wantStatus int
	}{
		{"owner", customerOne, http.StatusOK},
		{"admin", adminUser, http.StatusOK},
		{"other customer", customerTwo, http.StatusNotFound},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, tt.principal, http.MethodGet, "/api/orders/1", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestHandleList(t *testing.T) {
	m := newMemStore()
	mux := newTestMux(newTestHandler(m))

	for _, p := range []*auth.Principal{customerOne, customerOne, customerTwo} {
		rec := serve(mux, p, http.MethodPost, "/api/orders",
			`{"customerName": "x", "items": [{"beverageId": 2, "quantity": 1}]}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("setup failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	count := func(t *testing.T, rec *httptest.ResponseRecorder) int {
		t.Helper()
		var orders []domain.Order
		if err := json.Unmarshal(rec.Body.Bytes(), &orders); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return len(orders)
	}

	tests := []struct {
		name       string
		principal  *auth.Principal
		target     string
		wantStatus int
		wantCount  int
	}{
		{"admin sees all", adminUser, "/api/orders", http.StatusOK, 3},
		{"admin filters by user", adminUser, "/api/orders?userId=2", http.StatusOK, 2},
		{"customer sees own", customerTwo, "/api/orders", http.StatusOK, 1},
		{"customer asking for another user", customerTwo, "/api/orders?userId=2", http.StatusForbidden, 0},
		{"by user path as owner", customerOne, "/api/orders/user/2", http.StatusOK, 2},
		{"by user path as stranger", customerTwo, "/api/orders/user/2", http.StatusForbidden, 0},
		{"anonymous", nil, "/api/orders", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, tt.principal, http.MethodGet, tt.target, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK {
				if got := count(t, rec); got != tt.wantCount {
					t.Errorf("expected %d orders, got %d", tt.wantCount, got)
				}
			}
		})
	}
}

func TestHandleUpdateStatus(t *testing.T) {
	m := newMemStore()
	mux := newTestMux(newTestHandler(m))

	rec := serve(mux, customerOne, http.MethodPost, "/api/orders",
		`{"customerName": "Alice", "items": [{"beverageId": 1, "quantity": 5}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup failed: %d %s", rec.Code, rec.Body.String())
	}

	t.Run("ordinal status delivers and marks paid", func(t *testing.T) {
		rec := serve(mux, adminUser, http.MethodPut, "/api/admin/orders/1/status", `{"status": 4}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Message string             `json:"message"`
			Status  domain.OrderStatus `json:"status"`
			IsPaid  bool               `json:"isPaid"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Status != domain.OrderStatusDelivered || !body.IsPaid {
			t.Errorf("unexpected response %+v", body)
		}
	})

	t.Run("terminal order cannot be cancelled", func(t *testing.T) {
		rec := serve(mux, adminUser, http.MethodPut, "/api/admin/orders/1/status", `{"status": "Cancelled"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if got := m.stock(1); got != 45 {
			t.Errorf("expected stock 45, got %d", got)
		}
	})

	t.Run("unknown status name", func(t *testing.T) {
		rec := serve(mux, adminUser, http.MethodPut, "/api/admin/orders/1/status", `{"status": "Lost"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		rec := serve(mux, adminUser, http.MethodPut, "/api/admin/orders/77/status", `{"status": "Confirmed"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}
