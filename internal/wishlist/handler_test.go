package wishlist

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joao-fontenele/beverageshop/internal/auth"
	"github.com/joao-fontenele/beverageshop/internal/domain"
)

type fakeStore struct {
	mu     sync.Mutex
	items  []domain.WishlistItem
	nextID int64
	clock  time.Time
}

func (s *fakeStore) ListByUser(_ context.Context, userID int64) ([]domain.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.WishlistItem{}
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].UserID == userID {
			out = append(out, s.items[i])
		}
	}
	return out, nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*domain.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Add(_ context.Context, item *domain.WishlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.UserID == item.UserID && existing.BeverageID == item.BeverageID {
			return errAlreadyListed
		}
	}
	s.nextID++
	s.clock = s.clock.Add(time.Minute)
	item.ID = s.nextID
	item.AddedDate = s.clock
	s.items = append(s.items, *item)
	return nil
}

func (s *fakeStore) remove(match func(domain.WishlistItem) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if match(item) {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *fakeStore) Delete(_ context.Context, id int64) (bool, error) {
	return s.remove(func(item domain.WishlistItem) bool { return item.ID == id }), nil
}

func (s *fakeStore) DeleteByPair(_ context.Context, userID, beverageID int64) (bool, error) {
	return s.remove(func(item domain.WishlistItem) bool {
		return item.UserID == userID && item.BeverageID == beverageID
	}), nil
}

func (s *fakeStore) Contains(_ context.Context, userID, beverageID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.UserID == userID && item.BeverageID == beverageID {
			return true, nil
		}
	}
	return false, nil
}

type fakeBeverages map[int64]*domain.Beverage

func (f fakeBeverages) GetByID(_ context.Context, id int64) (*domain.Beverage, error) {
	return f[id], nil
}

var (
	alice = &auth.Principal{UserID: 2, Username: "alice", Role: domain.RoleCustomer}
	bob   = &auth.Principal{UserID: 3, Username: "bob", Role: domain.RoleCustomer}
	admin = &auth.Principal{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
)

func newTestMux() (*http.ServeMux, *fakeStore) {
	store := &fakeStore{clock: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)}
	beverages := fakeBeverages{
		1: {ID: 1, Name: "Trà Sữa Trân Châu"},
		2: {ID: 2, Name: "Cà Phê Đen Đá"},
	}
	h := NewHandler(store, beverages, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/wishlist/user/{userId}", h.HandleList)
	mux.HandleFunc("POST /api/wishlist", h.HandleAdd)
	mux.HandleFunc("DELETE /api/wishlist/{id}", h.HandleDelete)
	mux.HandleFunc("DELETE /api/wishlist/user/{userId}/beverage/{beverageId}", h.HandleDeleteByPair)
	mux.HandleFunc("GET /api/wishlist/check/{userId}/{beverageId}", h.HandleCheck)
	return mux, store
}

func call(mux http.Handler, p *auth.Principal, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestWishlistFlow(t *testing.T) {
	mux, _ := newTestMux()

	for _, body := range []string{`{"userId": 2, "beverageId": 1}`, `{"userId": 2, "beverageId": 2}`} {
		if rec := call(mux, alice, http.MethodPost, "/api/wishlist", body); rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := call(mux, alice, http.MethodPost, "/api/wishlist", `{"userId": 2, "beverageId": 1}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Item already in wishlist") {
		t.Fatalf("expected duplicate rejection, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = call(mux, alice, http.MethodGet, "/api/wishlist/user/2", "")
	var items []domain.WishlistItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(items) != 2 || items[0].BeverageID != 2 {
		t.Fatalf("expected newest first, got %+v", items)
	}

	rec = call(mux, alice, http.MethodGet, "/api/wishlist/check/2/1", "")
	if strings.TrimSpace(rec.Body.String()) != "true" {
		t.Errorf("expected true, got %s", rec.Body.String())
	}

	rec = call(mux, alice, http.MethodDelete, "/api/wishlist/user/2/beverage/1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}

	rec = call(mux, alice, http.MethodGet, "/api/wishlist/check/2/1", "")
	if strings.TrimSpace(rec.Body.String()) != "false" {
		t.Errorf("expected false, got %s", rec.Body.String())
	}

	rec = call(mux, alice, http.MethodDelete, "/api/wishlist/user/2/beverage/1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404 on second removal, got %d", rec.Code)
	}
}

func TestWishlistAccess(t *testing.T) {
	mux, store := newTestMux()
	if rec := call(mux, alice, http.MethodPost, "/api/wishlist", `{"userId": 2, "beverageId": 1}`); rec.Code != http.StatusCreated {
		t.Fatalf("setup failed: %d", rec.Code)
	}

	tests := []struct {
		name       string
		principal  *auth.Principal
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{"anonymous list", nil, http.MethodGet, "/api/wishlist/user/2", "", http.StatusUnauthorized},
		{"other user list", bob, http.MethodGet, "/api/wishlist/user/2", "", http.StatusForbidden},
		{"admin list", admin, http.MethodGet, "/api/wishlist/user/2", "", http.StatusOK},
		{"add for someone else", bob, http.MethodPost, "/api/wishlist", `{"userId": 2, "beverageId": 2}`, http.StatusForbidden},
		{"add unknown beverage", alice, http.MethodPost, "/api/wishlist", `{"userId": 2, "beverageId": 9}`, http.StatusNotFound},
		{"other user check", bob, http.MethodGet, "/api/wishlist/check/2/1", "", http.StatusForbidden},
		{"delete someone else's item", bob, http.MethodDelete, "/api/wishlist/1", "", http.StatusForbidden},
		{"delete unknown item", alice, http.MethodDelete, "/api/wishlist/99", "", http.StatusNotFound},
		{"admin deletes item", admin, http.MethodDelete, "/api/wishlist/1", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(mux, tt.principal, tt.method, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}

	if len(store.items) != 0 {
		t.Errorf("expected the admin removal to empty the wishlist, got %d items", len(store.items))
	}
}
